/*
Package executor provides the execution contexts that stream resolution and
listener dispatch run on.

The stream core assumes a single logical thread: no stream holds a lock, and
all of its state is touched only from tasks run by its Executor. This package
makes that thread explicit.

  - Immediate runs tasks synchronously on the caller's goroutine and
    trampolines nested submissions, giving deterministic tests.
  - Serial owns a goroutine and an unbounded FIFO. Network completions from
    worker goroutines are marshalled onto it with Execute.

Example:

	exec := executor.NewSerial(executor.WithLogger(logger))
	defer func() { <-exec.Shutdown() }()

	s, resolver := stream.New[int](exec)
	go func() { resolver.Succeed(fetch()) }() // resolution hops onto exec
*/
package executor
