package stream

import (
	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/metrics"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// BackedStream forwards results from whichever source currently backs it.
// Rebinding replaces the backing; a superseded backing that resolves later
// is ignored. Listeners persist across rebinds and fire once per forwarded
// result.
type BackedStream[T any] struct {
	exec    executor.Executor
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry

	generation uint64
	backing    Source[T]
	backingSub *Subscription
	res        *result.Result[T]
	listeners  []*listener[result.Result[T]]
}

// BackedOption configures a BackedStream.
type BackedOption func(*backedOptions)

type backedOptions struct {
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry
}

// WithName labels the stream in logs and metrics.
func WithName(name string) BackedOption {
	return func(o *backedOptions) { o.name = name }
}

// WithLogger sets the logger used for debug output about rebinding.
func WithLogger(logger *zap.Logger) BackedOption {
	return func(o *backedOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics for the stream.
func WithMetrics(reg *metrics.Registry) BackedOption {
	return func(o *backedOptions) { o.metrics = reg }
}

// NewBacked returns an inactive BackedStream.
func NewBacked[T any](exec executor.Executor, opts ...BackedOption) *BackedStream[T] {
	o := backedOptions{name: "backed", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &BackedStream[T]{
		exec:    exec,
		name:    o.name,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// BackWithStream makes src the active backing. Any earlier backing is
// detached and its late results are dropped. A src on the same executor
// that already holds a result is forwarded in the rebinding task itself, so
// back-to-back rebinds each deliver. A nil src forwards errors.ErrNilStream.
func (b *BackedStream[T]) BackWithStream(src Source[T]) {
	b.exec.Execute(func() {
		b.detach()
		b.generation++
		gen := b.generation

		if b.metrics != nil {
			b.metrics.StreamBackingSwitches.WithLabelValues(b.name).Inc()
		}

		if isNil(src) {
			b.backing = nil
			b.forward(gen, result.Failure[T](cferrors.ErrNilStream))
			return
		}

		b.backing = src
		if a, ok := src.(attacher[T]); ok && sameExecutor(src.Executor(), b.exec) {
			sub, current, resolved := a.attach(func(r result.Result[T]) { b.forward(gen, r) })
			b.backingSub = sub
			if resolved {
				b.forward(gen, current)
			}
			return
		}
		b.backingSub = src.Observe(nil, func(r result.Result[T]) {
			b.exec.Execute(func() { b.forward(gen, r) })
		})
	})
}

// RemoveBacking detaches the current backing without delivering anything.
// The last forwarded result is kept.
func (b *BackedStream[T]) RemoveBacking() {
	b.exec.Execute(func() {
		b.detach()
		b.generation++
		b.backing = nil
	})
}

// Executor implements Source.
func (b *BackedStream[T]) Executor() executor.Executor {
	return b.exec
}

// Observe implements Source. fn fires for every forwarded result, and right
// away if a result is already present.
func (b *BackedStream[T]) Observe(owner *Owner, fn func(result.Result[T])) *Subscription {
	return b.observe(owner, fn, false)
}

// ObserveOnce implements Source.
func (b *BackedStream[T]) ObserveOnce(owner *Owner, fn func(result.Result[T])) *Subscription {
	return b.observe(owner, fn, true)
}

// Listen registers success and failure callbacks that fire on every
// forwarded result while owner is open.
func (b *BackedStream[T]) Listen(owner *Owner, onSuccess func(T), onFailure func(error)) *Subscription {
	return b.Observe(owner, func(r result.Result[T]) { r.Handle(onSuccess, onFailure) })
}

// ListenOnce is Listen for a single delivery.
func (b *BackedStream[T]) ListenOnce(owner *Owner, onSuccess func(T), onFailure func(error)) *Subscription {
	return b.ObserveOnce(owner, func(r result.Result[T]) { r.Handle(onSuccess, onFailure) })
}

// ExtendLifetimeUntilFirstResult delivers the next result to fn regardless
// of any Owner.
func (b *BackedStream[T]) ExtendLifetimeUntilFirstResult(fn func(result.Result[T])) *Subscription {
	return b.ObserveOnce(nil, fn)
}

// Active reports whether a backing is attached. Call it on the executor.
func (b *BackedStream[T]) Active() bool {
	return b.backing != nil
}

// Value returns the last forwarded success value. Call it on the executor.
func (b *BackedStream[T]) Value() (T, bool) {
	if b.res == nil || !b.res.IsSuccess() {
		var zero T
		return zero, false
	}
	return b.res.Value(), true
}

// Result returns the last forwarded Result. Call it on the executor.
func (b *BackedStream[T]) Result() (result.Result[T], bool) {
	if b.res == nil {
		return result.Result[T]{}, false
	}
	return *b.res, true
}

func (b *BackedStream[T]) observe(owner *Owner, fn func(result.Result[T]), once bool) *Subscription {
	sub := newSubscription(b.exec, owner)
	b.exec.Execute(func() {
		if !sub.live() {
			return
		}
		if b.res != nil && once {
			res := *b.res
			sub.finish()
			fn(res)
			return
		}

		l := &listener[result.Result[T]]{sub: sub, fn: fn, once: once}
		b.listeners = append(b.listeners, l)
		sub.detach = func() {
			b.listeners = removeListener(b.listeners, l)
		}
		if b.res != nil {
			fn(*b.res)
		}
	})
	return sub
}

// attach implements attacher. Later results reach fn without replaying the
// current one.
func (b *BackedStream[T]) attach(fn func(result.Result[T])) (*Subscription, result.Result[T], bool) {
	sub := newSubscription(b.exec, nil)
	l := &listener[result.Result[T]]{sub: sub, fn: fn}
	b.listeners = append(b.listeners, l)
	sub.detach = func() {
		b.listeners = removeListener(b.listeners, l)
	}
	if b.res == nil {
		return sub, result.Result[T]{}, false
	}
	return sub, *b.res, true
}

func (b *BackedStream[T]) detach() {
	if b.backingSub != nil {
		b.backingSub.Cancel()
		b.backingSub = nil
	}
}

func (b *BackedStream[T]) forward(gen uint64, r result.Result[T]) {
	if gen != b.generation {
		b.logger.Debug("dropping result from superseded backing",
			zap.String("stream", b.name),
			zap.Uint64("generation", gen),
			zap.Uint64("current", b.generation))
		if b.metrics != nil {
			b.metrics.StreamStaleResults.WithLabelValues(b.name).Inc()
		}
		return
	}

	b.res = &r
	if b.metrics != nil {
		outcome := "success"
		if !r.IsSuccess() {
			outcome = "failure"
		}
		b.metrics.StreamResults.WithLabelValues(b.name, outcome).Inc()
	}

	fire := make([]*listener[result.Result[T]], 0, len(b.listeners))
	keep := b.listeners[:0]
	for _, l := range b.listeners {
		if !l.sub.live() {
			continue
		}
		fire = append(fire, l)
		if !l.once {
			keep = append(keep, l)
		}
	}
	for i := len(keep); i < len(b.listeners); i++ {
		b.listeners[i] = nil
	}
	b.listeners = keep

	for _, l := range fire {
		if !l.sub.live() {
			continue
		}
		if l.once {
			l.sub.finish()
		}
		l.fn(r)
	}
}
