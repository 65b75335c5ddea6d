/*
Package workerpool runs blocking work, such as HTTP round trips, on a fixed set
of goroutines so that the single-threaded stream executor never blocks.

Basic usage:

	pool, err := workerpool.NewWithConfig(workerpool.Config{
		Name:        "network",
		WorkerCount: 4,
		QueueSize:   64,
		TaskTimeout: 30 * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() { <-pool.Shutdown() }()

	err = pool.SubmitWithContext(ctx, workerpool.TaskFunc(func(ctx context.Context) error {
		body, err := fetch(ctx)
		exec.Execute(func() { resolver.Resolve(result.From(body, err)) })
		return err
	}))

Tasks report completion themselves, typically by marshalling a result back
onto an executor. Config.OnTaskComplete observes every task outcome.

Panics inside tasks are recovered, logged with the configured zap logger and
reported as task errors. Shutdown stops accepting work and lets queued tasks
finish.
*/
package workerpool
