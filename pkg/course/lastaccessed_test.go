package course

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/courseflow/internal/testutil"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
)

var visitedAt = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

type lastAccessedHarness struct {
	api     *fakeCourseAPI
	store   *MemoryLastAccessedStore
	tracker *LastAccessedTracker
	fired   chan result.Result[AccessedBlock]
}

func newLastAccessedHarness(t *testing.T) *lastAccessedHarness {
	t.Helper()
	api := newFakeCourseAPI(t)
	m := newTestManager(t, api)
	q := NewQuerier(m, "physics")
	require.True(t, await[*Outline](t, q.Outline()).IsSuccess())

	store := NewMemoryLastAccessedStore()
	tracker := NewLastAccessedTracker(m, q, store, "ada")
	tracker.now = testutil.NewMockClock(visitedAt).Now

	h := &lastAccessedHarness{
		api:     api,
		store:   store,
		tracker: tracker,
		fired:   make(chan result.Result[AccessedBlock], 8),
	}
	tracker.Loader().Observe(nil, func(r result.Result[AccessedBlock]) { h.fired <- r })
	return h
}

func (h *lastAccessedHarness) next(t *testing.T) result.Result[AccessedBlock] {
	t.Helper()
	return testutil.Receive(t, h.fired)
}

func (h *lastAccessedHarness) stored(t *testing.T) LastAccessed {
	t.Helper()
	la, ok, err := h.store.Get(context.Background(), "physics")
	require.NoError(t, err)
	require.True(t, ok)
	return la
}

func TestLastAccessed_StoredThenRemote(t *testing.T) {
	h := newLastAccessedHarness(t)
	gate := make(chan struct{})
	h.api.set(func(api *fakeCourseAPI) { api.statusGate = gate })
	t.Cleanup(func() {
		select {
		case <-gate:
		default:
			close(gate)
		}
	})
	require.NoError(t, h.store.Set(context.Background(), "physics", LastAccessed{ModuleID: "seq3"}))

	h.tracker.Load()

	first := h.next(t)
	require.True(t, first.IsSuccess(), "err: %v", first.Err())
	assert.Equal(t, "seq3", first.Value().First.ID)
	assert.Equal(t, "Work", first.Value().First.Name)

	close(gate)
	second := h.next(t)
	require.True(t, second.IsSuccess(), "err: %v", second.Err())
	assert.Equal(t, "seq1", second.Value().First.ID)

	assert.Eventually(t, func() bool {
		la, ok, _ := h.store.Get(context.Background(), "physics")
		return ok && la.ModuleID == "seq1"
	}, testTimeout, tick)
	assert.Equal(t, "Velocity", h.stored(t).ModuleName)
}

func TestLastAccessed_OfflineKeepsStored(t *testing.T) {
	h := newLastAccessedHarness(t)
	require.NoError(t, h.store.Set(context.Background(), "physics", LastAccessed{ModuleID: "seq3", ModuleName: "Work"}))
	h.api.set(func(api *fakeCourseAPI) { api.down = true })

	h.tracker.Load()

	r := h.next(t)
	require.True(t, r.IsSuccess(), "err: %v", r.Err())
	assert.Equal(t, "seq3", r.Value().First.ID)

	assert.Eventually(t, func() bool { return h.api.hitCount("last_accessed") == 1 }, testTimeout, tick)
	select {
	case extra := <-h.fired:
		t.Fatalf("unexpected delivery %+v", extra)
	case <-time.After(10 * tick):
	}
	assert.Equal(t, "seq3", h.stored(t).ModuleID)
}

func TestLastAccessed_NothingStored(t *testing.T) {
	h := newLastAccessedHarness(t)

	h.tracker.Load()

	r := h.next(t)
	require.True(t, r.IsSuccess(), "err: %v", r.Err())
	assert.Equal(t, "seq1", r.Value().First.ID)
	assert.Equal(t, "seq1", r.Value().Second.ModuleID)
}

func TestLastAccessed_NothingStoredOffline(t *testing.T) {
	h := newLastAccessedHarness(t)
	h.api.set(func(api *fakeCourseAPI) { api.down = true })

	h.tracker.Load()

	r := h.next(t)
	assert.False(t, r.IsSuccess())
}

func TestLastAccessed_Save(t *testing.T) {
	h := newLastAccessedHarness(t)

	r := await[AccessedBlock](t, h.tracker.Save("seq2"))
	require.True(t, r.IsSuccess(), "err: %v", r.Err())
	assert.Equal(t, "Quiz", r.Value().First.Name)

	assert.Eventually(t, func() bool {
		la, ok, _ := h.store.Get(context.Background(), "physics")
		return ok && la.ModuleName == "Quiz"
	}, testTimeout, tick)
	la := h.stored(t)
	assert.Equal(t, "seq2", la.ModuleID)
	assert.True(t, la.VisitedAt.Equal(visitedAt))
}

func TestLastAccessed_SaveUnknownBlock(t *testing.T) {
	h := newLastAccessedHarness(t)

	r := await[AccessedBlock](t, h.tracker.Save("missing"))
	assert.False(t, r.IsSuccess())
	_, ok, err := h.store.Get(context.Background(), "physics")
	require.NoError(t, err)
	assert.False(t, ok)
}

// blockingStore holds every Set until release is closed.
type blockingStore struct {
	*MemoryLastAccessedStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Set(ctx context.Context, courseID string, la LastAccessed) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.MemoryLastAccessedStore.Set(ctx, courseID, la)
}

func TestLastAccessed_SlowStoreDoesNotHoldExecutor(t *testing.T) {
	api := newFakeCourseAPI(t)
	m := newTestManager(t, api)
	q := NewQuerier(m, "physics")
	require.True(t, await[*Outline](t, q.Outline()).IsSuccess())

	store := &blockingStore{
		MemoryLastAccessedStore: NewMemoryLastAccessedStore(),
		entered:                 make(chan struct{}, 1),
		release:                 make(chan struct{}),
	}
	var once sync.Once
	unblock := func() { once.Do(func() { close(store.release) }) }
	t.Cleanup(unblock)
	tracker := NewLastAccessedTracker(m, q, store, "ada")

	r := await[AccessedBlock](t, tracker.Save("seq2"))
	require.True(t, r.IsSuccess(), "err: %v", r.Err())
	testutil.Receive(t, store.entered)

	ran := make(chan struct{})
	m.Executor().Execute(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(storeTimeout / 2):
		t.Fatal("executor blocked behind the store write")
	}

	unblock()
	assert.Eventually(t, func() bool {
		la, ok, _ := store.MemoryLastAccessedStore.Get(context.Background(), "physics")
		return ok && la.ModuleName == "Quiz"
	}, testTimeout, tick)
}
