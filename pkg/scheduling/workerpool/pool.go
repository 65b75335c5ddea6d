package workerpool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/courseflow/pkg/common/validation"
	"github.com/vnykmshr/courseflow/pkg/metrics"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool runs tasks on a fixed set of worker goroutines.
type Pool interface {
	// Submit adds a task to the pool for execution with context.Background().
	Submit(task Task) error

	// SubmitWithContext queues a task. ctx bounds both queuing and execution.
	SubmitWithContext(ctx context.Context, task Task) error

	// Shutdown stops accepting tasks and lets queued tasks finish.
	// Returns a channel that closes when shutdown is complete.
	Shutdown() <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Name labels the pool in logs and metrics.
	Name string

	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the maximum number of tasks that can be queued.
	// Zero means submissions wait for a free worker.
	QueueSize int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// Logger receives panic reports. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics enables Prometheus metrics when non-nil.
	Metrics *metrics.Registry

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(result Result)
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config
	logger *zap.Logger

	taskQueue    chan taskWithContext
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	mu            sync.RWMutex
	isShutdown    bool
	activeWorkers int

	workerWg sync.WaitGroup
}

// taskWithContext pairs a task with the context it was submitted under.
type taskWithContext struct {
	task Task
	ctx  context.Context
}

// New creates a worker pool with the specified number of workers and queue size.
func New(workerCount, queueSize int) (Pool, error) {
	return NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewWithConfig creates a worker pool with the specified configuration.
func NewWithConfig(config Config) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "worker_count", config.WorkerCount); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("workerpool", "queue_size", float64(config.QueueSize)); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("workerpool", "task_timeout", config.TaskTimeout); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = "default"
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pool := &workerPool{
		config:     config,
		logger:     logger.With(zap.String("pool", config.Name)),
		taskQueue:  make(chan taskWithContext, config.QueueSize),
		shutdownCh: make(chan struct{}),
	}

	if config.Metrics != nil {
		config.Metrics.WorkerPoolSize.WithLabelValues(config.Name).Set(float64(config.WorkerCount))
	}

	for i := 0; i < config.WorkerCount; i++ {
		pool.workerWg.Add(1)
		go pool.run(i)
	}

	return pool, nil
}
