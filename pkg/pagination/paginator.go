package pagination

import (
	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/common/validation"
	"github.com/vnykmshr/courseflow/pkg/metrics"
	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
)

// State is the position of a Paginator in its lifecycle.
type State int

const (
	// Idle means no request is in flight and more pages may exist.
	Idle State = iota
	// Loading means a page request is in flight.
	Loading
	// Exhausted means the last page was seen or a request failed.
	Exhausted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Issuer runs a page request and reports its outcome through done.
// network.TaskIssuer satisfies it.
type Issuer[A any] interface {
	Issue(req network.Request[[]A], done func(result.Result[[]A]))
}

// Option configures a Paginator.
type Option func(*options)

type options struct {
	name      string
	indicator Indicator
	logger    *zap.Logger
	metrics   *metrics.Registry
}

// WithName labels the paginator in logs and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithIndicator sets the loading indicator.
func WithIndicator(ind Indicator) Option {
	return func(o *options) {
		if ind != nil {
			o.indicator = ind
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) {
		o.metrics = reg
	}
}

// Paginator loads successive pages of a feed for one list. A page shorter
// than the page size ends the feed, and so does a failed request.
//
// A Paginator is confined to the executor its issuer completes on and must
// not be shared between lists.
type Paginator[A any] struct {
	issuer    Issuer[A]
	feed      *Feed[network.Request[[]A]]
	name      string
	indicator Indicator
	logger    *zap.Logger
	metrics   *metrics.Registry

	state   State
	hasMore bool
	lastErr error
}

// New creates a Paginator in the Idle state.
func New[A any](issuer Issuer[A], feed *Feed[network.Request[[]A]], opts ...Option) (*Paginator[A], error) {
	if err := validation.ValidateNotNil("pagination", "issuer", issuer); err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, cferrors.NewValidationError("pagination", "feed", nil, "cannot be nil")
	}

	o := options{name: "default", indicator: NopIndicator(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Paginator[A]{
		issuer:    issuer,
		feed:      feed,
		name:      o.name,
		indicator: o.indicator,
		logger:    o.logger.With(zap.String("paginator", o.name)),
		metrics:   o.metrics,
		state:     Idle,
		hasMore:   true,
	}, nil
}

// HasMoreResults reports whether another page may exist.
func (p *Paginator[A]) HasMoreResults() bool {
	return p.hasMore
}

// State returns the current state.
func (p *Paginator[A]) State() State {
	return p.state
}

// LastError returns the failure that exhausted the paginator, if any.
// The callback of LoadDataIfAvailable reports end of data and failure the
// same way; LastError tells them apart.
func (p *Paginator[A]) LastError() error {
	return p.lastErr
}

// LoadDataIfAvailable requests the next page and reports it to cb.
//
// When the feed is exhausted cb is called right away with ok=false and no
// request is issued. Otherwise the next page is requested and cb receives
// its items with ok=true, or ok=false if the request failed. A call made
// while a page is in flight is ignored and cb is not called.
//
// It returns true if a request was issued.
func (p *Paginator[A]) LoadDataIfAvailable(cb func(items []A, ok bool)) bool {
	switch {
	case p.state == Loading:
		p.logger.Debug("page already loading")
		return false
	case !p.hasMore:
		p.state = Exhausted
		cb(nil, false)
		return false
	}

	req := p.feed.Next()
	pageSize := p.feed.Current().PageSize()
	p.setLoading(true)

	p.issuer.Issue(req, func(r result.Result[[]A]) {
		p.setLoading(false)

		items, err := r.Get()
		if err != nil {
			p.lastErr = err
			p.exhaust("error")
			p.recordPage("failure", 0)
			p.logger.Warn("page request failed",
				zap.Int("page", p.feed.Current().Index),
				zap.Bool("retryable", cferrors.IsRetryable(err)),
				zap.Error(err))
			cb(nil, false)
			return
		}

		p.recordPage("success", len(items))
		if len(items) == pageSize {
			p.state = Idle
		} else {
			p.exhaust("end")
		}
		cb(items, true)
	})
	return true
}

func (p *Paginator[A]) setLoading(loading bool) {
	if loading {
		p.state = Loading
		p.indicator.Start()
	} else {
		p.indicator.Stop()
	}
	if p.metrics != nil {
		v := 0.0
		if loading {
			v = 1
		}
		p.metrics.PaginatorLoading.WithLabelValues(p.name).Set(v)
	}
}

func (p *Paginator[A]) exhaust(reason string) {
	p.hasMore = false
	p.state = Exhausted
	p.indicator.Detach()
	if p.metrics != nil {
		p.metrics.PaginatorExhausted.WithLabelValues(p.name, reason).Inc()
	}
}

func (p *Paginator[A]) recordPage(outcome string, items int) {
	if p.metrics == nil {
		return
	}
	p.metrics.PaginatorPages.WithLabelValues(p.name, outcome).Inc()
	p.metrics.PaginatorItems.WithLabelValues(p.name).Add(float64(items))
}
