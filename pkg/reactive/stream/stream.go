package stream

import (
	"reflect"

	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// Source is anything that delivers Results to listeners: a one-shot Stream
// or a rebindable BackedStream.
type Source[T any] interface {
	// Executor returns the execution context the source dispatches on.
	Executor() executor.Executor

	// Observe registers fn for every result the source delivers while the
	// subscription is live.
	Observe(owner *Owner, fn func(result.Result[T])) *Subscription

	// ObserveOnce registers fn for the next result only.
	ObserveOnce(owner *Owner, fn func(result.Result[T])) *Subscription
}

// attacher is implemented by the sources of this package. attach runs on
// the source's executor: it returns the current result, if any, and
// registers fn for results delivered afterwards.
type attacher[T any] interface {
	attach(fn func(result.Result[T])) (*Subscription, result.Result[T], bool)
}

// isNil reports whether src is nil or a nil pointer of a source type of
// this package.
func isNil[T any](src Source[T]) bool {
	switch s := src.(type) {
	case nil:
		return true
	case *Stream[T]:
		return s == nil
	case *BackedStream[T]:
		return s == nil
	}
	return false
}

// sameExecutor reports whether a and b are the same executor. Executors of
// uncomparable types, such as executor.Func, are never considered equal.
func sameExecutor(a, b executor.Executor) bool {
	if a == nil || b == nil || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// Stream is a value that becomes available at most once. Once resolved its
// Result never changes and late listeners receive it immediately.
type Stream[T any] struct {
	exec      executor.Executor
	res       *result.Result[T]
	listeners []*listener[result.Result[T]]
}

// Resolver is the producer side of a pending Stream.
type Resolver[T any] struct {
	s *Stream[T]
}

// New returns a pending stream and the resolver that completes it. The
// resolver may be used from any goroutine; resolution is marshalled onto exec.
func New[T any](exec executor.Executor) (*Stream[T], *Resolver[T]) {
	s := &Stream[T]{exec: exec}
	return s, &Resolver[T]{s: s}
}

// Value returns a stream already resolved to v.
func Value[T any](exec executor.Executor, v T) *Stream[T] {
	r := result.Success(v)
	return &Stream[T]{exec: exec, res: &r}
}

// Error returns a stream already failed with err.
func Error[T any](exec executor.Executor, err error) *Stream[T] {
	r := result.Failure[T](err)
	return &Stream[T]{exec: exec, res: &r}
}

// Resolved returns a stream holding r.
func Resolved[T any](exec executor.Executor, r result.Result[T]) *Stream[T] {
	return &Stream[T]{exec: exec, res: &r}
}

// Never returns a stream that stays pending forever.
func Never[T any](exec executor.Executor) *Stream[T] {
	return &Stream[T]{exec: exec}
}

// Resolve completes the stream with r. Only the first call has any effect.
func (r *Resolver[T]) Resolve(res result.Result[T]) {
	r.s.exec.Execute(func() {
		r.s.resolve(res)
	})
}

// Succeed resolves the stream with v.
func (r *Resolver[T]) Succeed(v T) {
	r.Resolve(result.Success(v))
}

// Fail resolves the stream with err.
func (r *Resolver[T]) Fail(err error) {
	r.Resolve(result.Failure[T](err))
}

// Stream returns the stream this resolver completes.
func (r *Resolver[T]) Stream() *Stream[T] {
	return r.s
}

// Executor implements Source.
func (s *Stream[T]) Executor() executor.Executor {
	return s.exec
}

// Observe implements Source. A stream delivers at most one result, so
// Observe and ObserveOnce behave the same.
func (s *Stream[T]) Observe(owner *Owner, fn func(result.Result[T])) *Subscription {
	sub := newSubscription(s.exec, owner)
	s.exec.Execute(func() {
		if !sub.live() {
			return
		}
		if s.res != nil {
			res := *s.res
			sub.finish()
			fn(res)
			return
		}
		l := &listener[result.Result[T]]{sub: sub, fn: fn, once: true}
		s.listeners = append(s.listeners, l)
		sub.detach = func() {
			s.listeners = removeListener(s.listeners, l)
		}
	})
	return sub
}

// ObserveOnce implements Source.
func (s *Stream[T]) ObserveOnce(owner *Owner, fn func(result.Result[T])) *Subscription {
	return s.Observe(owner, fn)
}

// Listen registers separate success and failure callbacks scoped to owner.
// Either callback may be nil.
func (s *Stream[T]) Listen(owner *Owner, onSuccess func(T), onFailure func(error)) *Subscription {
	return s.Observe(owner, func(r result.Result[T]) { r.Handle(onSuccess, onFailure) })
}

// ListenOnce is Listen for a single delivery.
func (s *Stream[T]) ListenOnce(owner *Owner, onSuccess func(T), onFailure func(error)) *Subscription {
	return s.Listen(owner, onSuccess, onFailure)
}

// ExtendLifetimeUntilFirstResult delivers the first result to fn without
// tying delivery to any Owner. Use it for fire-and-forget work that must
// complete even after the initiating owner has been closed.
func (s *Stream[T]) ExtendLifetimeUntilFirstResult(fn func(result.Result[T])) *Subscription {
	return s.Observe(nil, fn)
}

// Value returns the success value, if the stream resolved successfully.
// Call it on the stream's executor.
func (s *Stream[T]) Value() (T, bool) {
	if s.res == nil || !s.res.IsSuccess() {
		var zero T
		return zero, false
	}
	return s.res.Value(), true
}

// Result returns the resolved Result, if any. Call it on the stream's executor.
func (s *Stream[T]) Result() (result.Result[T], bool) {
	if s.res == nil {
		return result.Result[T]{}, false
	}
	return *s.res, true
}

// Resolved reports whether the stream has a result. Call it on the stream's executor.
func (s *Stream[T]) Resolved() bool {
	return s.res != nil
}

// attach implements attacher.
func (s *Stream[T]) attach(fn func(result.Result[T])) (*Subscription, result.Result[T], bool) {
	if s.res != nil {
		return nil, *s.res, true
	}
	sub := newSubscription(s.exec, nil)
	l := &listener[result.Result[T]]{sub: sub, fn: fn, once: true}
	s.listeners = append(s.listeners, l)
	sub.detach = func() {
		s.listeners = removeListener(s.listeners, l)
	}
	return sub, result.Result[T]{}, false
}

func (s *Stream[T]) resolve(res result.Result[T]) bool {
	if s.res != nil {
		return false
	}
	s.res = &res

	pending := s.listeners
	s.listeners = nil
	for _, l := range pending {
		if !l.sub.live() {
			continue
		}
		l.sub.finish()
		l.fn(res)
	}
	return true
}
