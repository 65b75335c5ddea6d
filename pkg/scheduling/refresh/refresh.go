package refresh

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/common/validation"
	"github.com/vnykmshr/courseflow/pkg/metrics"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// Parser accepts standard five-field expressions, an optional leading
// seconds field and descriptors such as "@every 5m" or "@hourly".
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Option configures a Refresher.
type Option func(*Refresher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Refresher) {
		r.metrics = reg
	}
}

// WithLocation evaluates schedules in loc instead of time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Refresher) {
		if loc != nil {
			r.location = loc
		}
	}
}

type job struct {
	id      string
	spec    string
	entry   cron.EntryID
	fn      func()
	pending atomic.Bool
}

// Refresher fires jobs on cron schedules. Jobs run on the executor, so a
// job may rebind BackedStreams directly. A job whose previous dispatch has
// not run yet is skipped rather than queued twice.
type Refresher struct {
	exec     executor.Executor
	logger   *zap.Logger
	metrics  *metrics.Registry
	location *time.Location

	mu   sync.Mutex
	cron *cron.Cron
	jobs map[string]*job
}

// New creates a stopped Refresher.
func New(exec executor.Executor, opts ...Option) (*Refresher, error) {
	if err := validation.ValidateNotNil("refresh", "executor", exec); err != nil {
		return nil, err
	}
	r := &Refresher{
		exec:     exec,
		logger:   zap.NewNop(),
		location: time.Local,
		jobs:     make(map[string]*job),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cron = cron.New(
		cron.WithParser(Parser),
		cron.WithLocation(r.location),
		cron.WithLogger(cronLogger{r.logger}),
		cron.WithChain(cron.Recover(cronLogger{r.logger})),
	)
	return r, nil
}

// Schedule registers fn under id. Scheduling an existing id replaces it.
func (r *Refresher) Schedule(id, spec string, fn func()) error {
	if err := validation.ValidateNotEmpty("refresh", "id", id); err != nil {
		return err
	}
	if fn == nil {
		return cferrors.NewValidationError("refresh", "fn", nil, "cannot be nil")
	}
	if _, err := Parser.Parse(spec); err != nil {
		return cferrors.NewValidationError("refresh", "spec", spec, err.Error()).
			WithHint(`use a cron expression such as "*/5 * * * *" or "@every 5m"`)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.jobs[id]; ok {
		r.cron.Remove(old.entry)
	}
	j := &job{id: id, spec: spec, fn: fn}
	entry, err := r.cron.AddFunc(spec, func() { r.dispatch(j) })
	if err != nil {
		return cferrors.NewOperationError("refresh", "schedule", err).WithContext(id)
	}
	j.entry = entry
	r.jobs[id] = j
	r.logger.Debug("refresh scheduled", zap.String("job", id), zap.String("spec", spec))
	return nil
}

// Remove unregisters id. It reports whether the job existed.
func (r *Refresher) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return false
	}
	r.cron.Remove(j.entry)
	delete(r.jobs, id)
	return true
}

// Trigger dispatches id right away, outside its schedule.
func (r *Refresher) Trigger(id string) error {
	r.mu.Lock()
	j, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("refresh job %q: %w", id, cferrors.ErrNotFound)
	}
	r.dispatch(j)
	return nil
}

// Next returns the next scheduled run of id. It is zero until Start.
func (r *Refresher) Next(id string) (time.Time, bool) {
	r.mu.Lock()
	j, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return r.cron.Entry(j.entry).Next, true
}

// Jobs returns the registered job ids in sorted order.
func (r *Refresher) Jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start begins firing schedules in the background.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop halts scheduling. The returned context is done once no schedule
// callback is still running; jobs already handed to the executor still run.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}

func (r *Refresher) dispatch(j *job) {
	if !j.pending.CompareAndSwap(false, true) {
		r.logger.Debug("refresh still pending, skipping", zap.String("job", j.id))
		return
	}
	if r.metrics != nil {
		r.metrics.RefreshRuns.WithLabelValues(j.id).Inc()
	}
	r.exec.Execute(func() {
		j.pending.Store(false)
		j.fn()
	})
}

// cronLogger routes cron's own logging into zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
