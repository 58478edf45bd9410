// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package result_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/z5labs/outcome/result"
)

func ExampleAll() {
	parse := func(s string) result.Result[int, error] {
		return result.Async(func() result.Result[int, error] {
			return result.FromTuple(strconv.Atoi(s))
		})
	}

	sum := result.Map(result.All(parse("1"), parse("2"), parse("3")), func(ns []int) int {
		total := 0
		for _, n := range ns {
			total += n
		}
		return total
	})
	fmt.Println(sum.UnwrapOr(-1))

	failed := result.All(parse("4"), parse("five"), parse("6"))
	fmt.Println(failed.IsErr())
	// Output:
	// 6
	// true
}

func ExampleResult_Serial() {
	ok := result.Ok[[]string, string]([]string{"a", "b"})
	b, err := json.Marshal(ok.Serial())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(b))

	failed := result.Err[[]string]("not found")
	b, err = json.Marshal(failed)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(b))
	// Output:
	// ["ok",["a","b"]]
	// ["err","not found"]
}

func ExampleFromSerial() {
	var s result.Serial[int, string]
	err := json.Unmarshal([]byte(`["ok",42]`), &s)
	if err != nil {
		fmt.Println(err)
		return
	}

	r := result.FromSerial(s)
	fmt.Println(r.Unwrap())
	// Output:
	// 42
}

func ExampleAndThen() {
	positive := func(n int) result.Result[int, error] {
		if n <= 0 {
			return result.Err[int](errors.New("must be positive"))
		}
		return result.Ok[int, error](n)
	}

	r := result.AndThen(result.FromTuple(strconv.Atoi("-3")), positive)
	fmt.Println(result.Match(r, strconv.Itoa, func(err error) string {
		return err.Error()
	}))
	// Output:
	// must be positive
}
