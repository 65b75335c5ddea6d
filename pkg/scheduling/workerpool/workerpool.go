package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context is passed to the task's Execute method, enabling timeout and
// cancellation propagation. If the pool has a TaskTimeout configured, the
// effective timeout will be the minimum of the context deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	isShutdown := p.isShutdown
	p.mu.RUnlock()

	if isShutdown {
		return fmt.Errorf("cannot submit task: %w", cferrors.ErrClosed)
	}

	// Check if context is already canceled before attempting to queue
	select {
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	default:
	}

	select {
	case p.taskQueue <- taskWithContext{task: task, ctx: ctx}:
		p.updateGauges()
		return nil
	case <-p.shutdownCh:
		return fmt.Errorf("cannot submit task: %w", cferrors.ErrClosed)
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	}
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	done := make(chan struct{})

	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()

		close(p.shutdownCh)
	})

	go func() {
		p.workerWg.Wait()
		close(done)
	}()

	return done
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeWorkers
}

// run is the main loop for a worker. After shutdown it drains whatever is
// still queued before exiting.
func (p *workerPool) run(id int) {
	defer p.workerWg.Done()

	for {
		select {
		case twc := <-p.taskQueue:
			p.executeTask(id, twc)
		case <-p.shutdownCh:
			for {
				select {
				case twc := <-p.taskQueue:
					p.executeTask(id, twc)
				default:
					return
				}
			}
		}
	}
}

// executeTask executes a single task with the provided context.
func (p *workerPool) executeTask(id int, twc taskWithContext) {
	start := time.Now()
	var err error

	p.setActive(1)

	// Handle panics during task execution
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
			p.logger.Error("task panicked",
				zap.Int("worker", id),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()))
		}

		p.setActive(-1)
		p.record(err)

		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(Result{
				Task:     twc.task,
				Error:    err,
				Duration: time.Since(start),
				WorkerID: id,
			})
		}
	}()

	ctx := twc.ctx

	// The effective timeout is the minimum of the context deadline and TaskTimeout
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	err = twc.task.Execute(ctx)
}

func (p *workerPool) setActive(delta int) {
	p.mu.Lock()
	p.activeWorkers += delta
	p.mu.Unlock()
	p.updateGauges()
}

func (p *workerPool) updateGauges() {
	if p.config.Metrics == nil {
		return
	}
	p.config.Metrics.WorkerPoolActive.WithLabelValues(p.config.Name).Set(float64(p.ActiveWorkers()))
	p.config.Metrics.WorkerPoolQueued.WithLabelValues(p.config.Name).Set(float64(len(p.taskQueue)))
}

func (p *workerPool) record(err error) {
	if p.config.Metrics == nil {
		return
	}
	if err != nil {
		p.config.Metrics.TasksFailed.WithLabelValues(p.config.Name).Inc()
		return
	}
	p.config.Metrics.TasksCompleted.WithLabelValues(p.config.Name).Inc()
}
