// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package result provides a typed success-or-failure value which can
// also represent a computation that has not finished yet.
//
// A [Result] is either Ok(value) or Err(error). Results created with
// [Async], [FromAsync] or [FromSerialAsync] start resolving immediately
// in their own goroutine and every combinator applied to them returns
// another in-flight Result. Terminal operations such as [Match],
// [Result.Unwrap] and [Result.Serial] block until the Result resolves;
// use [Result.Await] to wait with a [context.Context].
//
// # Expected failures and programmer errors
//
// Expected failures (validation, missing auth, upstream HTTP errors) are
// always carried as Err. Invariant violations are not: a panic raised by
// an [Async] producer is captured and raised again, wrapped in a
// PanicError, by every call site that waits on the Result. It is never
// converted into an Err.
//
// [Result.Unwrap] reintroduces panic based control flow on purpose. It is
// meant for integration code that has already guaranteed success or
// wants to fail fast.
//
// # Aggregation
//
// [All] resolves to the error of the first Result, by argument position,
// which failed. [AllErrors] resolves to every error, in argument order.
// Neither guarantees the order in which in-flight Results finish.
//
// # Wire format
//
// [Serial] is the two element JSON array form of a Result:
//
//	["ok", value]
//	["err", error]
package result
