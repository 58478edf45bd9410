// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// ContentType is the media type of a serialized [Problem].
const ContentType = "application/problem+json"

// Problem is a single occurrence of a problem.
//
// Its JSON form is flat: the standard members type, title, status,
// detail and instance sit beside the problem specific extension members.
type Problem struct {
	// ID is the registry id. It is not serialized but is recovered from
	// the type URI when decoding.
	ID       string
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]any
}

// Error implements the [error] interface.
func (p Problem) Error() string {
	return fmt.Sprintf("%s (%d): %s", p.Title, p.Status, p.Detail)
}

var reserved = map[string]struct{}{
	"type":     {},
	"title":    {},
	"status":   {},
	"detail":   {},
	"instance": {},
}

// IsReserved reports whether key is one of the standard members and
// therefore unusable as an extension member.
func IsReserved(key string) bool {
	_, ok := reserved[key]
	return ok
}

// MarshalJSON implements the [json.Marshaler] interface.
func (p Problem) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		if IsReserved(k) {
			continue
		}
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	m["detail"] = p.Detail
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}

// MalformedProblemError is returned when decoding JSON which is not a
// well formed problem.
type MalformedProblemError struct {
	Reason string
}

// Error implements the [error] interface.
func (e MalformedProblemError) Error() string {
	return "malformed problem: " + e.Reason
}

// UnmarshalJSON implements the [json.Unmarshaler] interface.
func (p *Problem) UnmarshalJSON(b []byte) error {
	var m map[string]any
	err := json.Unmarshal(b, &m)
	if err != nil {
		return err
	}
	if m == nil {
		return MalformedProblemError{Reason: "expected a JSON object"}
	}
	reason := wellFormed(m)
	if reason != "" {
		return MalformedProblemError{Reason: reason}
	}
	*p = fromMap(m)
	return nil
}

// IsWellFormed reports whether m has the standard problem members with
// the correct types: string type, title and detail and a numeric
// status. Every conversion path uses this check to decide if a payload
// is already a problem.
func IsWellFormed(m map[string]any) bool {
	return wellFormed(m) == ""
}

func wellFormed(m map[string]any) string {
	for _, k := range []string{"type", "title", "detail"} {
		if _, ok := m[k].(string); !ok {
			return fmt.Sprintf("member %q must be a string", k)
		}
	}
	if _, ok := statusOf(m["status"]); !ok {
		return `member "status" must be an integer`
	}
	if inst, present := m["instance"]; present && inst != nil {
		if _, ok := inst.(string); !ok {
			return `member "instance" must be a string`
		}
	}
	return ""
}

func statusOf(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, false
		}
		return statusInRange(n)
	case float64:
		if math.IsNaN(x) || x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case nil, bool, string:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return statusInRange(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt32 {
			return 0, false
		}
		return int(rv.Uint()), true
	default:
		return 0, false
	}
}

// statusInRange limits status to 32 bits so it survives every int width.
func statusInRange(n int64) (int, bool) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// Parse decodes b into a [Problem] if, and only if, it is a well formed
// problem JSON object.
func Parse(b []byte) (Problem, bool) {
	var m map[string]any
	err := json.Unmarshal(b, &m)
	if err != nil || m == nil || !IsWellFormed(m) {
		return Problem{}, false
	}
	return fromMap(m), true
}

func fromMap(m map[string]any) Problem {
	status, _ := statusOf(m["status"])
	p := Problem{
		Type:   m["type"].(string),
		Title:  m["title"].(string),
		Status: status,
		Detail: m["detail"].(string),
	}
	p.Instance, _ = m["instance"].(string)
	p.ID = idFromType(p.Type)

	for k, v := range m {
		if IsReserved(k) {
			continue
		}
		if p.Extensions == nil {
			p.Extensions = make(map[string]any)
		}
		p.Extensions[k] = v
	}
	return p
}

func idFromType(typ string) string {
	i := strings.LastIndex(typ, "/errors/")
	if i < 0 {
		return ""
	}
	return typ[i+len("/errors/"):]
}
