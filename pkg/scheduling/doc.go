/*
Package scheduling groups the components that decide where and when
courseflow work runs.

  - executor: Where stream callbacks run. Immediate runs tasks inline,
    Serial runs them one at a time on a dedicated goroutine.
  - workerpool: Fixed worker pool for blocking work such as HTTP requests
  - refresh: Cron-scheduled reloads of course content

Executors:

Every stream is bound to an executor and only touches its state from tasks
running there:

	exec := executor.NewSerial()
	defer func() { <-exec.Shutdown() }()

	exec.Execute(func() {
		// runs on the executor goroutine
	})

Worker Pool:

	pool, err := workerpool.New(4, 100) // 4 workers, queue size 100
	if err != nil {
		return err
	}
	defer func() { <-pool.Shutdown() }()

	pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return nil
	}))

Refresh:

	r, _ := refresh.New(exec)
	r.Schedule("announcements", "@every 10m", announcements.Reload)
	r.Start()
	defer r.Stop()

Refresh jobs run on the executor, so they may rebind streams directly.
*/
package scheduling
