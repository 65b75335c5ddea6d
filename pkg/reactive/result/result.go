// Package result provides Result, the terminal value of a stream: either a
// success carrying a value or a failure carrying an error.
package result

import (
	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
)

// Result is a tagged success/failure value. The zero Result is a success
// holding the zero value of T.
type Result[T any] struct {
	value T
	err   error
}

// Success returns a successful Result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure returns a failed Result. A nil err is replaced with
// errors.ErrContentLoad so a failure always carries an error.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = cferrors.ErrContentLoad
	}
	return Result[T]{err: err}
}

// From builds a Result from the usual (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// IsSuccess reports whether r holds a value.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// Value returns the success value, or the zero value for a failure.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the failure error, or nil for a success.
func (r Result[T]) Err() error {
	return r.err
}

// Get returns the value and error pair.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// IfSuccess calls fn with the value when r is a success.
func (r Result[T]) IfSuccess(fn func(T)) {
	if r.err == nil && fn != nil {
		fn(r.value)
	}
}

// IfFailure calls fn with the error when r is a failure.
func (r Result[T]) IfFailure(fn func(error)) {
	if r.err != nil && fn != nil {
		fn(r.err)
	}
}

// Handle dispatches r to onSuccess or onFailure. Either may be nil.
func (r Result[T]) Handle(onSuccess func(T), onFailure func(error)) {
	r.IfSuccess(onSuccess)
	r.IfFailure(onFailure)
}

// Map applies f to a successful value and passes failures through untouched.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Failure[U](r.err)
	}
	return Success(f(r.value))
}
