package executor

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/vnykmshr/courseflow/pkg/metrics"
)

// Serial runs tasks one at a time on a dedicated goroutine, in submission
// order. It is the execution context for hosts that do I/O on other
// goroutines and marshal completions back with Execute.
type Serial struct {
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry

	mu       sync.Mutex
	tasks    *queue.Queue
	wake     chan struct{}
	shutdown bool

	stopped      chan struct{}
	shutdownOnce sync.Once
}

// Option configures a Serial executor.
type Option func(*Serial)

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Serial) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics under the given executor name.
func WithMetrics(reg *metrics.Registry, name string) Option {
	return func(s *Serial) {
		s.metrics = reg
		if name != "" {
			s.name = name
		}
	}
}

// NewSerial starts a serial executor.
func NewSerial(opts ...Option) *Serial {
	s := &Serial{
		name:    "default",
		logger:  zap.NewNop(),
		tasks:   queue.New(),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Execute implements Executor. Tasks submitted after Shutdown are dropped.
func (s *Serial) Execute(fn func()) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		s.logger.Debug("task dropped after shutdown", zap.String("executor", s.name))
		return
	}
	s.tasks.Add(fn)
	queued := s.tasks.Length()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ExecutorQueued.WithLabelValues(s.name).Set(float64(queued))
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Wait runs fn on the executor and blocks until it has run. It must not be
// called from a task running on the same executor.
func (s *Serial) Wait(fn func()) {
	done := make(chan struct{})
	s.Execute(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-s.stopped:
	}
}

// Shutdown stops accepting tasks, drains what is queued and stops the loop.
// The returned channel closes once the loop has exited.
func (s *Serial) Shutdown() <-chan struct{} {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()

		select {
		case s.wake <- struct{}{}:
		default:
		}
	})
	return s.stopped
}

// QueueSize returns the number of tasks waiting to run.
func (s *Serial) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Length()
}

func (s *Serial) run() {
	defer close(s.stopped)

	for {
		fn, stop := s.next()
		if stop {
			return
		}
		if fn == nil {
			<-s.wake
			continue
		}
		s.runTask(fn)
	}
}

// next pops the next task. It reports stop once shut down with nothing left.
func (s *Serial) next() (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tasks.Length() == 0 {
		return nil, s.shutdown
	}
	fn := s.tasks.Remove().(func())
	if s.metrics != nil {
		s.metrics.ExecutorQueued.WithLabelValues(s.name).Set(float64(s.tasks.Length()))
	}
	return fn, false
}

func (s *Serial) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("executor task panicked",
				zap.String("executor", s.name),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()))
			if s.metrics != nil {
				s.metrics.ExecutorPanics.WithLabelValues(s.name).Inc()
			}
		}
	}()

	fn()

	if s.metrics != nil {
		s.metrics.ExecutorExecuted.WithLabelValues(s.name).Inc()
	}
}
