package stream

import (
	"errors"
	"runtime"
	"testing"

	"github.com/vnykmshr/courseflow/internal/testutil"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

func TestValue_ListenFiresImmediately(t *testing.T) {
	exec := executor.NewImmediate()
	var got int
	Value(exec, 7).Listen(nil, func(v int) { got = v }, func(error) { t.Fatal("unexpected failure") })
	testutil.AssertEqual(t, got, 7)
}

func TestError_ListenFiresFailure(t *testing.T) {
	exec := executor.NewImmediate()
	boom := errors.New("boom")
	var got error
	Error[int](exec, boom).Listen(nil, func(int) { t.Fatal("unexpected success") }, func(err error) { got = err })
	testutil.AssertEqual(t, got, boom)
}

func TestNew_ListenersFireInRegistrationOrder(t *testing.T) {
	exec := executor.NewImmediate()
	s, resolver := New[string](exec)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		s.Listen(nil, func(string) { order = append(order, i) }, nil)
	}
	testutil.AssertEqual(t, len(order), 0)
	testutil.AssertEqual(t, s.Resolved(), false)

	resolver.Succeed("done")
	testutil.AssertEqual(t, len(order), 3)
	for i := range order {
		testutil.AssertEqual(t, order[i], i)
	}
}

// Once resolved, later resolution attempts do not change the value and late
// listeners get the original value.
func TestSingleResolution(t *testing.T) {
	exec := executor.NewImmediate()
	s, resolver := New[int](exec)

	fired := 0
	s.Listen(nil, func(int) { fired++ }, nil)

	resolver.Succeed(1)
	resolver.Succeed(2)
	resolver.Fail(errors.New("late"))

	testutil.AssertEqual(t, fired, 1)
	v, ok := s.Value()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, 1)

	var late int
	s.Listen(nil, func(v int) { late = v }, nil)
	testutil.AssertEqual(t, late, 1)
}

func TestNever(t *testing.T) {
	exec := executor.NewImmediate()
	fired := false
	Never[int](exec).Observe(nil, func(result.Result[int]) { fired = true })
	testutil.AssertEqual(t, fired, false)
}

func TestSubscriptionCancel(t *testing.T) {
	exec := executor.NewImmediate()
	s, resolver := New[int](exec)

	fired := false
	sub := s.Listen(nil, func(int) { fired = true }, nil)
	sub.Cancel()
	sub.Cancel()
	resolver.Succeed(1)

	testutil.AssertEqual(t, fired, false)
	testutil.AssertEqual(t, len(s.listeners), 0)

	var nilSub *Subscription
	nilSub.Cancel()
}

// A listener whose owner is closed before resolution never fires, and the
// stream keeps no reference to it.
func TestOwnerScopedTeardown(t *testing.T) {
	exec := executor.NewImmediate()
	s, resolver := New[int](exec)
	owner := NewOwner()

	fired := false
	s.Listen(owner, func(int) { fired = true }, func(error) { fired = true })
	testutil.AssertEqual(t, owner.Len(), 1)
	testutil.AssertEqual(t, len(s.listeners), 1)

	owner.Close()
	testutil.AssertEqual(t, owner.Closed(), true)
	testutil.AssertEqual(t, owner.Len(), 0)
	testutil.AssertEqual(t, len(s.listeners), 0)

	resolver.Succeed(1)
	testutil.AssertEqual(t, fired, false)
}

func TestClosedOwner_NeverFires(t *testing.T) {
	exec := executor.NewImmediate()
	owner := NewOwner()
	owner.Close()
	owner.Close()

	fired := false
	Value(exec, 1).Listen(owner, func(int) { fired = true }, nil)
	testutil.AssertEqual(t, fired, false)
}

func TestOwner_FiredSubscriptionsAreForgotten(t *testing.T) {
	exec := executor.NewImmediate()
	owner := NewOwner()
	Value(exec, 1).Listen(owner, func(int) {}, nil)
	testutil.AssertEqual(t, owner.Len(), 0)

	var zero Owner
	Value(exec, 1).Listen(&zero, func(int) {}, nil)
	zero.Close()
}

// A fire-and-forget listener on an otherwise unreferenced stream still fires
// after its initiator is gone.
func TestExtendLifetimeUntilFirstResult(t *testing.T) {
	exec := executor.NewImmediate()
	owner := NewOwner()

	var delivered []int
	resolver := func() *Resolver[int] {
		s, r := New[int](exec)
		s.Listen(owner, func(int) { t.Fatal("owner-scoped listener fired after close") }, nil)
		s.ExtendLifetimeUntilFirstResult(func(r result.Result[int]) {
			delivered = append(delivered, r.Value())
		})
		return r
	}()

	owner.Close()
	runtime.GC()
	resolver.Succeed(42)
	resolver.Succeed(43)

	testutil.AssertEqual(t, len(delivered), 1)
	testutil.AssertEqual(t, delivered[0], 42)
}

func TestNestedListenDuringResolution(t *testing.T) {
	exec := executor.NewImmediate()
	s, resolver := New[int](exec)

	var order []string
	s.Listen(nil, func(int) {
		order = append(order, "first")
		s.Listen(nil, func(int) { order = append(order, "nested") }, nil)
	}, nil)
	s.Listen(nil, func(int) { order = append(order, "second") }, nil)

	resolver.Succeed(1)

	want := []string{"first", "second", "nested"}
	testutil.AssertEqual(t, len(order), len(want))
	for i := range want {
		testutil.AssertEqual(t, order[i], want[i])
	}
}
