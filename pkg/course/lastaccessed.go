package course

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
)

// AccessedBlock pairs the last visited module with its outline block.
type AccessedBlock = stream.Pair[Block, LastAccessed]

// LastAccessedTracker loads and records the module a user last visited.
type LastAccessedTracker struct {
	username string
	querier  *Querier
	manager  *network.Manager
	store    LastAccessedStore
	logger   *zap.Logger
	now      func() time.Time

	loader *stream.BackedStream[AccessedBlock]
}

// NewLastAccessedTracker returns a tracker for the course of q.
func NewLastAccessedTracker(m *network.Manager, q *Querier, store LastAccessedStore, username string, opts ...Option) *LastAccessedTracker {
	o := buildOptions(opts)
	return &LastAccessedTracker{
		username: username,
		querier:  q,
		manager:  m,
		store:    store,
		logger:   o.logger,
		now:      time.Now,
		loader:   stream.NewBacked[AccessedBlock](q.Executor(), o.backed("last_accessed", zap.String("course", q.CourseID()))...),
	}
}

// Expand looks up the outline block of the module src names.
func (t *LastAccessedTracker) Expand(src stream.Source[LastAccessed]) *stream.Stream[AccessedBlock] {
	exec := t.querier.Executor()
	return stream.Transform[LastAccessed, AccessedBlock](src, func(la LastAccessed) stream.Source[AccessedBlock] {
		return stream.Join2[Block, LastAccessed](t.querier.BlockWithID(la.ModuleID), stream.Value(exec, la))
	})
}

// Loader fires with the last accessed block: first the value stored on
// the device, if any, then the server's answer.
func (t *LastAccessedTracker) Loader() *stream.BackedStream[AccessedBlock] {
	return t.loader
}

// Load binds Loader to the stored value, then switches it to the server's
// answer once that arrives and stores it. A failed request keeps the
// stored value. The store is read on the manager's worker pool.
func (t *LastAccessedTracker) Load() {
	courseID := t.querier.CourseID()

	var (
		local    LastAccessed
		hasLocal bool
	)
	t.manager.Perform(context.Background(), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		var err error
		local, hasLocal, err = t.store.Get(ctx, courseID)
		return err
	}, func(err error) {
		if err != nil {
			t.logger.Warn("read last accessed", zap.String("course", courseID), zap.Error(err))
		}
		t.loadRemote(local, hasLocal)
	})
}

func (t *LastAccessedTracker) loadRemote(local LastAccessed, hasLocal bool) {
	exec := t.querier.Executor()
	courseID := t.querier.CourseID()
	if hasLocal {
		t.loader.BackWithStream(t.Expand(stream.Value(exec, local)))
	}

	remote := t.Expand(network.StreamForRequest(t.manager, LastAccessedRequest(t.username, courseID)))
	remote.ObserveOnce(nil, func(r result.Result[AccessedBlock]) {
		if !r.IsSuccess() && hasLocal {
			t.logger.Info("keeping stored last accessed", zap.String("course", courseID), zap.Error(r.Err()))
			return
		}
		r.IfSuccess(t.remember)
		t.loader.BackWithStream(stream.Resolved(exec, r))
	})
}

// Save tells the server that blockID was visited and records the answer
// on the device. Delivery is not tied to any owner, so the record is kept
// even if the screen that triggered it is gone.
func (t *LastAccessedTracker) Save(blockID string) *stream.Stream[AccessedBlock] {
	courseID := t.querier.CourseID()
	req := SetLastAccessedRequest(t.username, courseID, blockID, t.now())
	saved := t.Expand(network.StreamForRequest(t.manager, req))
	saved.ExtendLifetimeUntilFirstResult(func(r result.Result[AccessedBlock]) {
		r.IfSuccess(func(info AccessedBlock) {
			t.remember(info)
		})
		r.IfFailure(func(err error) {
			t.logger.Warn("save last accessed", zap.String("course", courseID), zap.String("block", blockID), zap.Error(err))
		})
	})
	return saved
}

// remember writes info to the store, named after its block. The write runs
// on the manager's worker pool.
func (t *LastAccessedTracker) remember(info AccessedBlock) {
	la := info.Second
	la.ModuleName = info.First.Name
	la.VisitedAt = t.now()
	courseID := t.querier.CourseID()

	t.manager.Perform(context.Background(), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		return t.store.Set(ctx, courseID, la)
	}, func(err error) {
		if err != nil {
			t.logger.Warn("write last accessed", zap.String("course", courseID), zap.Error(err))
		}
	})
}
