package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/common/validation"
	"github.com/vnykmshr/courseflow/pkg/metrics"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
	"github.com/vnykmshr/courseflow/pkg/scheduling/workerpool"
)

const (
	// RequestIDHeader carries the per-request UUID to the server.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 16 << 20
)

// Config holds the tunables of a Manager.
type Config struct {
	// BaseURL is the API root that request paths are resolved against.
	BaseURL string

	// Timeout bounds each HTTP round trip. Zero means no timeout.
	Timeout time.Duration

	// Workers is the number of concurrent requests. Defaults to 4.
	Workers int

	// QueueSize is the number of requests that may wait for a worker.
	// Defaults to 64.
	QueueSize int

	// RateLimit is the sustained requests per second. Zero disables throttling.
	RateLimit float64

	// Burst is the number of requests allowed above RateLimit. Defaults to 1.
	Burst int

	// CacheTTL is how long persisted responses are kept. Zero keeps them
	// until the cache evicts them.
	CacheTTL time.Duration
}

// Authorizer decorates outgoing requests that need credentials.
type Authorizer interface {
	Authorize(req *http.Request) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(req *http.Request) error

// Authorize calls f(req).
func (f AuthorizerFunc) Authorize(req *http.Request) error {
	return f(req)
}

// BearerToken returns an Authorizer that sets a static bearer token.
func BearerToken(token string) Authorizer {
	return AuthorizerFunc(func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	})
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithCache enables persisted responses.
func WithCache(cache ResponseCache) Option {
	return func(m *Manager) {
		m.cache = cache
	}
}

// WithAuthorizer sets the Authorizer applied to requests with RequiresAuth.
func WithAuthorizer(auth Authorizer) Option {
	return func(m *Manager) {
		m.auth = auth
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(m *Manager) {
		m.metrics = reg
	}
}

// Manager issues API requests off the executor and hands decoded results
// back on it. GET requests for the same URL and credentials that are in
// flight at the same time share one round trip.
type Manager struct {
	base     *url.URL
	client   *http.Client
	pool     workerpool.Pool
	limiter  *rate.Limiter
	group    singleflight.Group
	cache    ResponseCache
	cacheTTL time.Duration
	timeout  time.Duration
	auth     Authorizer
	exec     executor.Executor
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// New creates a Manager. Completions are delivered on exec.
func New(config Config, exec executor.Executor, opts ...Option) (*Manager, error) {
	if err := validation.ValidateBaseURL("network", "base_url", config.BaseURL); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("network", "executor", exec); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("network", "rate_limit", config.RateLimit); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("network", "timeout", config.Timeout); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("network", "cache_ttl", config.CacheTTL); err != nil {
		return nil, err
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, cferrors.NewValidationError("network", "base_url", config.BaseURL, err.Error())
	}
	if config.Workers == 0 {
		config.Workers = 4
	}
	if config.QueueSize == 0 {
		config.QueueSize = 64
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	m := &Manager{
		base:     base,
		client:   &http.Client{Timeout: config.Timeout},
		cacheTTL: config.CacheTTL,
		timeout:  config.Timeout,
		exec:     exec,
		logger:   zap.NewNop(),
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}
	if config.RateLimit > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst)
	}
	for _, opt := range opts {
		opt(m)
	}

	m.pool, err = workerpool.NewWithConfig(workerpool.Config{
		Name:        "network",
		WorkerCount: config.Workers,
		QueueSize:   config.QueueSize,
		Logger:      m.logger,
		Metrics:     m.metrics,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Executor returns the executor completions are delivered on.
func (m *Manager) Executor() executor.Executor {
	return m.exec
}

// BaseURL returns the API root.
func (m *Manager) BaseURL() *url.URL {
	u := *m.base
	return &u
}

// Close stops accepting requests. The returned channel closes once
// in-flight requests have finished.
func (m *Manager) Close() <-chan struct{} {
	return m.pool.Shutdown()
}

// resolve builds the absolute URL of a request.
func (m *Manager) resolve(path string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := m.base.ResolveReference(ref)
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

type rawRequest struct {
	method       string
	url          string
	body         []byte
	contentType  string
	requiresAuth bool
}

// fetch performs one HTTP round trip and returns the body of a 2xx
// response. Concurrent identical GETs are collapsed. The shared round trip
// does not inherit any caller's cancellation; each caller stops waiting
// when its own ctx is done.
func (m *Manager) fetch(ctx context.Context, raw rawRequest) ([]byte, error) {
	if raw.method != http.MethodGet || raw.body != nil {
		return m.roundTrip(ctx, raw)
	}
	ch := m.group.DoChan(flightKey(raw), func() (interface{}, error) {
		shared, cancel := m.detach(ctx)
		defer cancel()
		return m.roundTrip(shared, raw)
	})
	select {
	case res := <-ch:
		if res.Shared {
			m.logger.Debug("shared in-flight request", zap.String("url", raw.url))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", cferrors.ErrTimeout, err)
		}
		return nil, &cferrors.NetworkError{Method: raw.method, URL: raw.url, Cause: err}
	}
}

// flightKey identifies GETs that may share a round trip. Authorized and
// anonymous requests for the same URL are kept apart.
func flightKey(raw rawRequest) string {
	return raw.method + " " + raw.url + " auth=" + strconv.FormatBool(raw.requiresAuth)
}

// detach returns a context that keeps ctx's values but not its
// cancellation, bounded by the configured timeout.
func (m *Manager) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return context.WithCancel(ctx)
}

func (m *Manager) roundTrip(ctx context.Context, raw rawRequest) ([]byte, error) {
	fail := func(status int, cause error) error {
		return &cferrors.NetworkError{Method: raw.method, URL: raw.url, StatusCode: status, Cause: cause}
	}

	if err := m.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fail(0, ctx.Err())
		}
		return nil, fail(0, fmt.Errorf("%w: %w", cferrors.ErrRateLimited, err))
	}

	var body io.Reader
	if raw.body != nil {
		body = bytes.NewReader(raw.body)
	}
	req, err := http.NewRequestWithContext(ctx, raw.method, raw.url, body)
	if err != nil {
		return nil, fail(0, err)
	}
	if raw.contentType != "" {
		req.Header.Set("Content-Type", raw.contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	if raw.requiresAuth && m.auth != nil {
		if err := m.auth.Authorize(req); err != nil {
			return nil, fail(0, err)
		}
	}

	log := m.logger.With(
		zap.String("request_id", requestID),
		zap.String("method", raw.method),
		zap.String("url", raw.url),
	)

	start := time.Now()
	resp, err := m.client.Do(req)
	if m.metrics != nil {
		m.metrics.NetworkDuration.WithLabelValues(raw.method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", cferrors.ErrTimeout, err)
		}
		m.record(raw.method, "error")
		log.Warn("request failed", zap.Error(err))
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		m.record(raw.method, "error")
		return nil, fail(resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.record(raw.method, "status")
		log.Warn("unexpected status", zap.Int("status", resp.StatusCode))
		return nil, fail(resp.StatusCode, nil)
	}

	m.record(raw.method, "success")
	log.Debug("request complete", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return data, nil
}

func (m *Manager) record(method, outcome string) {
	if m.metrics != nil {
		m.metrics.NetworkRequests.WithLabelValues(method, outcome).Inc()
	}
}

func (m *Manager) recordCache(outcome string) {
	if m.metrics != nil {
		m.metrics.NetworkCache.WithLabelValues(outcome).Inc()
	}
}
