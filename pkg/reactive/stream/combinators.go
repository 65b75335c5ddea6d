package stream

import (
	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// Transform waits for the first result of src and, on success, chains to the
// source returned by f. Failures skip f and propagate unchanged. If f returns
// nil, or a nil *Stream or *BackedStream, the result fails with
// errors.ErrNilStream.
func Transform[T, U any](src Source[T], f func(T) Source[U]) *Stream[U] {
	out, resolver := New[U](src.Executor())
	src.ObserveOnce(nil, func(r result.Result[T]) {
		if !r.IsSuccess() {
			resolver.Fail(r.Err())
			return
		}
		next := f(r.Value())
		if isNil(next) {
			resolver.Fail(cferrors.ErrNilStream)
			return
		}
		next.ObserveOnce(nil, resolver.Resolve)
	})
	return out
}

// Map applies f to the first successful value of src.
func Map[T, U any](src Source[T], f func(T) U) *Stream[U] {
	out, resolver := New[U](src.Executor())
	src.ObserveOnce(nil, func(r result.Result[T]) {
		resolver.Resolve(result.Map(r, f))
	})
	return out
}

// Join resolves with the values of all sources, in input order, once every
// source has succeeded. The first failure resolves the join immediately and
// the remaining sources are no longer observed. No sources resolve to an
// empty slice.
func Join[T any](exec executor.Executor, sources ...Source[T]) *Stream[[]T] {
	if len(sources) == 0 {
		return Value(exec, []T{})
	}

	out, resolver := New[[]T](exec)
	values := make([]T, len(sources))
	subs := make([]*Subscription, len(sources))
	remaining := len(sources)
	settled := false

	settle := func(i int, r result.Result[T]) {
		if settled {
			return
		}
		if !r.IsSuccess() {
			settled = true
			for j, sub := range subs {
				if j != i {
					sub.Cancel()
				}
			}
			resolver.Fail(r.Err())
			return
		}
		values[i] = r.Value()
		remaining--
		if remaining == 0 {
			settled = true
			resolver.Succeed(values)
		}
	}

	exec.Execute(func() {
		for i, src := range sources {
			i := i
			if isNil(src) {
				settle(i, result.Failure[T](cferrors.ErrNilStream))
				continue
			}
			subs[i] = src.ObserveOnce(nil, func(r result.Result[T]) {
				exec.Execute(func() { settle(i, r) })
			})
		}
	})
	return out
}

// Pair is the value of a two-way join.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple is the value of a three-way join.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Join2 joins two sources of different types. It behaves like Join.
func Join2[A, B any](a Source[A], b Source[B]) *Stream[Pair[A, B]] {
	joined := Join(a.Executor(), erase(a), erase(b))
	return Map[[]any](joined, func(vs []any) Pair[A, B] {
		first, _ := vs[0].(A)
		second, _ := vs[1].(B)
		return Pair[A, B]{First: first, Second: second}
	})
}

// Join3 joins three sources of different types. It behaves like Join.
func Join3[A, B, C any](a Source[A], b Source[B], c Source[C]) *Stream[Triple[A, B, C]] {
	joined := Join(a.Executor(), erase(a), erase(b), erase(c))
	return Map[[]any](joined, func(vs []any) Triple[A, B, C] {
		first, _ := vs[0].(A)
		second, _ := vs[1].(B)
		third, _ := vs[2].(C)
		return Triple[A, B, C]{First: first, Second: second, Third: third}
	})
}

// erase widens a typed source to Source[any] for heterogeneous joins.
func erase[T any](src Source[T]) Source[any] {
	if isNil(src) {
		return nil
	}
	return Map(src, func(v T) any { return v })
}
