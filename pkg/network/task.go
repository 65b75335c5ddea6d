package network

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
	"github.com/vnykmshr/courseflow/pkg/scheduling/workerpool"
)

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	ctx     context.Context
	persist bool
}

// PersistResponse stores a successful response body in the manager's
// cache. When the request later fails, the cached body is served instead.
func PersistResponse() RequestOption {
	return func(o *requestOptions) {
		o.persist = true
	}
}

// WithContext bounds the request by ctx.
func WithContext(ctx context.Context) RequestOption {
	return func(o *requestOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// StreamForRequest issues req and returns a stream that resolves with the
// decoded response on the manager's executor.
func StreamForRequest[T any](m *Manager, req Request[T], opts ...RequestOption) *stream.Stream[T] {
	s, resolver := stream.New[T](m.exec)
	TaskForRequest(m, req, resolver.Resolve, opts...)
	return s
}

// TaskForRequest issues req and calls done with the outcome on the
// manager's executor. done is called exactly once.
func TaskForRequest[T any](m *Manager, req Request[T], done func(result.Result[T]), opts ...RequestOption) {
	o := requestOptions{ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		r := perform(ctx, m, req, o.persist)
		m.exec.Execute(func() { done(r) })
		return r.Err()
	})
	if err := m.pool.SubmitWithContext(o.ctx, task); err != nil {
		u, _ := m.resolve(req.Path, req.Query)
		nerr := &cferrors.NetworkError{Method: req.method(), Cause: err}
		if u != nil {
			nerr.URL = u.String()
		}
		m.exec.Execute(func() { done(result.Failure[T](nerr)) })
	}
}

// Perform runs fn on the manager's worker pool and reports its error to
// done on the manager's executor. Use it for blocking work, such as store
// I/O, that must not hold up the executor. done is called exactly once.
func (m *Manager) Perform(ctx context.Context, fn func(context.Context) error, done func(error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	task := workerpool.TaskFunc(func(ctx context.Context) error {
		err := fn(ctx)
		m.exec.Execute(func() { done(err) })
		return err
	})
	if err := m.pool.SubmitWithContext(ctx, task); err != nil {
		m.exec.Execute(func() { done(err) })
	}
}

func perform[T any](ctx context.Context, m *Manager, req Request[T], persist bool) result.Result[T] {
	if req.Decode == nil {
		return result.Failure[T](cferrors.NewContentLoadError(req.resource(), fmt.Errorf("no decoder")))
	}
	u, err := m.resolve(req.Path, req.Query)
	if err != nil {
		return result.Failure[T](&cferrors.NetworkError{Method: req.method(), URL: req.Path, Cause: err})
	}
	key := req.method() + " " + u.String()
	persist = persist && m.cache != nil

	body, err := m.fetch(ctx, rawRequest{
		method:       req.method(),
		url:          u.String(),
		body:         req.Body,
		contentType:  req.ContentType,
		requiresAuth: req.RequiresAuth,
	})
	if err != nil {
		if persist {
			if cached, ok := m.cached(ctx, key); ok {
				m.logger.Info("serving persisted response", zap.String("key", key), zap.Error(err))
				return decode(req, cached)
			}
		}
		return result.Failure[T](err)
	}

	r := decode(req, body)
	if persist && r.IsSuccess() {
		if err := m.cache.Set(ctx, key, body, m.cacheTTL); err != nil {
			m.recordCache("error")
			m.logger.Warn("persist response", zap.String("key", key), zap.Error(err))
		} else {
			m.recordCache("store")
		}
	}
	return r
}

func (m *Manager) cached(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := m.cache.Get(ctx, key)
	switch {
	case err != nil:
		m.recordCache("error")
		m.logger.Warn("read persisted response", zap.String("key", key), zap.Error(err))
		return nil, false
	case !ok:
		m.recordCache("miss")
		return nil, false
	default:
		m.recordCache("hit")
		return body, true
	}
}

func decode[T any](req Request[T], body []byte) result.Result[T] {
	v, err := req.Decode(body)
	if err != nil {
		return result.Failure[T](cferrors.NewContentLoadError(req.resource(), err))
	}
	return result.Success(v)
}

// TaskIssuer issues page requests for a paginator.
type TaskIssuer[A any] struct {
	m    *Manager
	opts []RequestOption
}

// NewTaskIssuer returns an issuer that runs page requests through m.
func NewTaskIssuer[A any](m *Manager, opts ...RequestOption) *TaskIssuer[A] {
	return &TaskIssuer[A]{m: m, opts: opts}
}

// Issue runs req and reports the page on the manager's executor.
func (ti *TaskIssuer[A]) Issue(req Request[[]A], done func(result.Result[[]A])) {
	TaskForRequest(ti.m, req, done, ti.opts...)
}
