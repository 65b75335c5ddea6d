package stream

import (
	"sync"

	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// Owner scopes a group of subscriptions to one lifetime, typically a screen
// or a request handler. Closing the owner cancels every subscription
// registered with it; subscriptions registered afterwards never fire.
//
// Streams hold no reference to an Owner. An Owner may be closed from any
// goroutine.
type Owner struct {
	mu     sync.Mutex
	closed bool
	subs   map[*Subscription]struct{}
}

// NewOwner returns an open Owner.
func NewOwner() *Owner {
	return &Owner{subs: make(map[*Subscription]struct{})}
}

// Close cancels all live subscriptions. It is idempotent.
func (o *Owner) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	for sub := range subs {
		sub.Cancel()
	}
}

// Closed reports whether Close has been called.
func (o *Owner) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Len returns the number of subscriptions still tracked by the owner.
func (o *Owner) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

func (o *Owner) track(sub *Subscription) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	if o.subs == nil {
		o.subs = make(map[*Subscription]struct{})
	}
	o.subs[sub] = struct{}{}
	return true
}

func (o *Owner) forget(sub *Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.subs, sub)
}

// Subscription is the handle for one registered listener. Its fields are
// only touched on the executor of the stream it belongs to.
type Subscription struct {
	exec   executor.Executor
	owner  *Owner
	done   bool
	detach func()
}

func newSubscription(exec executor.Executor, owner *Owner) *Subscription {
	sub := &Subscription{exec: exec}
	if owner == nil {
		return sub
	}
	if !owner.track(sub) {
		sub.done = true
		return sub
	}
	sub.owner = owner
	return sub
}

// Cancel removes the listener. A cancelled listener never fires again.
// Cancel is idempotent and safe to call on a nil Subscription.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.exec.Execute(func() {
		detach := s.detach
		s.finish()
		if detach != nil {
			detach()
		}
	})
}

// live reports whether the listener may still fire.
func (s *Subscription) live() bool {
	if s.done {
		return false
	}
	return s.owner == nil || !s.owner.Closed()
}

// finish marks the subscription spent and releases the owner.
func (s *Subscription) finish() {
	if s.done {
		return
	}
	s.done = true
	s.detach = nil
	if s.owner != nil {
		s.owner.forget(s)
		s.owner = nil
	}
}

// listener is one registered callback.
type listener[T any] struct {
	sub  *Subscription
	fn   func(T)
	once bool
}

func removeListener[T any](ls []*listener[T], target *listener[T]) []*listener[T] {
	for i, l := range ls {
		if l == target {
			copy(ls[i:], ls[i+1:])
			ls[len(ls)-1] = nil
			return ls[:len(ls)-1]
		}
	}
	return ls
}
