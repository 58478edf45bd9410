// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package problem implements RFC 7807 problem details backed by a
// registry of schema validated, versioned problem definitions.
//
// A [Registry] stamps every [Problem] it creates with a type URI of the form
//
//	{baseUri}/v{version}/{service}/errors/{id}
//
// and derives its detail from the validated parameters, so the detail can
// never disagree with the extension members it describes.
//
// A [Transformer] converts Go errors, recovered panic values, raw HTTP
// responses and API client errors into problems, reporting each new
// problem to a [Reporter]. Problems which already arrived well formed,
// for example in an upstream response body, pass through untouched and
// are not reported again.
package problem
