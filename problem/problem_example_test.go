// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package problem_test

import (
	"errors"
	"fmt"

	"github.com/z5labs/outcome/problem"
)

func ExampleRegistry_CreateProblem() {
	reg, err := problem.NewRegistry(problem.Config{
		BaseURI: "https://errors.example.com",
		Version: "1",
		Service: "accounts",
	}, problem.AppDefinitions())
	if err != nil {
		fmt.Println(err)
		return
	}

	p, err := reg.CreateProblem(problem.ValidationErrorID, problem.Context{
		"field":      "email",
		"constraint": "Email is required",
		"code":       "required",
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(p.Type)
	fmt.Println(p.Status)
	fmt.Println(p.Detail)

	_, err = reg.CreateProblem(problem.ValidationErrorID, problem.Context{
		"field": "email",
	})
	var cerr problem.ContextValidationError
	fmt.Println(errors.As(err, &cerr))
	// Output:
	// https://errors.example.com/v1/accounts/errors/validation_error
	// 400
	// Validation failed for field 'email': Email is required
	// true
}
