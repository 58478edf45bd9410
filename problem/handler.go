// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"encoding/json"
	"net/http"
)

// Paths of the error info API.
const (
	ErrorInfoPath       = "/api/v1.0/error-info"
	ErrorInfoSchemaPath = ErrorInfoPath + "/{id}"
)

// Routes registers the error info API on mux.
func (r *Registry) Routes(mux *http.ServeMux) {
	mux.Handle(http.MethodGet+" "+ErrorInfoPath, r.ListProblemsHandler())
	mux.Handle(http.MethodGet+" "+ErrorInfoSchemaPath, r.ProblemSchemaHandler())
}

// ListProblemsHandler responds with the sorted ids of every registered
// problem as a JSON array.
func (r *Registry) ListProblemsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "application/json", r.ids)
	})
}

// ProblemSchemaHandler responds with the [SchemaInfo] of the problem
// named by the id path value. Unknown ids are answered with a 404 whose
// body is itself a problem.
func (r *Registry) ProblemSchemaHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.PathValue("id")
		info, ok := r.Schema(id)
		if !ok {
			WriteProblem(w, Problem{
				Type:     "about:blank",
				Title:    http.StatusText(http.StatusNotFound),
				Status:   http.StatusNotFound,
				Detail:   UnknownProblemError{ID: id}.Error(),
				Instance: req.URL.Path,
			})
			return
		}
		writeJSON(w, http.StatusOK, "application/json", info)
	})
}

// WriteProblem writes p as an application/problem+json response with
// its status.
func WriteProblem(w http.ResponseWriter, p Problem) {
	status := p.Status
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ContentType, p)
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(b)
}
