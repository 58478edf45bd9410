// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package result

// Pair holds the values combined by [Zip2].
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple holds the values combined by [Zip3].
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func anyPending[T, E any](rs []Result[T, E]) bool {
	for _, r := range rs {
		if r.pending != nil {
			return true
		}
	}
	return false
}

// All combines independent Results into a single Result of all their
// success values. If any of them fail, the error of the first failed
// Result by argument position is returned.
func All[T, E any](rs ...Result[T, E]) Result[[]T, E] {
	collect := func() outcome[[]T, E] {
		vals := make([]T, 0, len(rs))
		for _, r := range rs {
			o := r.resolve()
			if o.failed {
				return outcome[[]T, E]{err: o.err, failed: true}
			}
			vals = append(vals, o.value)
		}
		return outcome[[]T, E]{value: vals}
	}
	if !anyPending(rs) {
		return from(collect())
	}
	return spawn(collect)
}

// AllErrors combines independent Results into a single Result of all
// their success values. Unlike [All], it waits for every Result and
// fails with all of the errors, in argument order.
func AllErrors[T, E any](rs ...Result[T, E]) Result[[]T, []E] {
	collect := func() outcome[[]T, []E] {
		vals := make([]T, 0, len(rs))
		var errs []E
		for _, r := range rs {
			o := r.resolve()
			if o.failed {
				errs = append(errs, o.err)
				continue
			}
			vals = append(vals, o.value)
		}
		if len(errs) > 0 {
			return outcome[[]T, []E]{err: errs, failed: true}
		}
		return outcome[[]T, []E]{value: vals}
	}
	if !anyPending(rs) {
		return from(collect())
	}
	return spawn(collect)
}

// Zip2 combines two Results of different types. The first failure,
// by argument position, wins.
func Zip2[A, B, E any](ra Result[A, E], rb Result[B, E]) Result[Pair[A, B], E] {
	return AndThen(ra, func(a A) Result[Pair[A, B], E] {
		return Map(rb, func(b B) Pair[A, B] {
			return Pair[A, B]{First: a, Second: b}
		})
	})
}

// Zip3 combines three Results of different types. The first failure,
// by argument position, wins.
func Zip3[A, B, C, E any](ra Result[A, E], rb Result[B, E], rc Result[C, E]) Result[Triple[A, B, C], E] {
	return AndThen(Zip2(ra, rb), func(ab Pair[A, B]) Result[Triple[A, B, C], E] {
		return Map(rc, func(c C) Triple[A, B, C] {
			return Triple[A, B, C]{First: ab.First, Second: ab.Second, Third: c}
		})
	})
}
