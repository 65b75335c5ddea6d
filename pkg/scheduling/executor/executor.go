package executor

// Executor runs tasks on a single logical thread. Every mutation of stream
// state and every listener dispatch goes through one.
type Executor interface {
	// Execute schedules fn. It never runs fn concurrently with another task
	// submitted to the same executor.
	Execute(fn func())
}

// Func adapts an ordinary function to the Executor interface.
type Func func(fn func())

// Execute implements Executor.
func (f Func) Execute(fn func()) {
	f(fn)
}

// Immediate is a synchronous trampolining executor. A task submitted from
// outside any task runs before Execute returns. A task submitted while another
// task is running is queued and runs right after it, so callbacks never nest.
//
// Immediate is not safe for concurrent use; it is meant for tests and for
// hosts that already confine all work to one goroutine.
type Immediate struct {
	pending  []func()
	draining bool
}

// NewImmediate returns an empty trampolining executor.
func NewImmediate() *Immediate {
	return &Immediate{}
}

// Execute implements Executor.
func (im *Immediate) Execute(fn func()) {
	im.pending = append(im.pending, fn)
	if im.draining {
		return
	}
	im.draining = true
	defer func() { im.draining = false }()

	for len(im.pending) > 0 {
		next := im.pending[0]
		im.pending[0] = nil
		im.pending = im.pending[1:]
		next()
	}
}

// Pending returns the number of queued tasks. It is non-zero only while a
// task is running.
func (im *Immediate) Pending() int {
	return len(im.pending)
}
