package course

import (
	"go.uber.org/zap"

	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// TopicsManager holds the discussion topics of a course. Topics are
// fetched once, on first access.
type TopicsManager struct {
	courseID string
	exec     executor.Executor
	manager  *network.Manager
	topics   *stream.BackedStream[[]Topic]
}

// NewTopicsManager loads topics through m.
func NewTopicsManager(m *network.Manager, courseID string, opts ...Option) *TopicsManager {
	o := buildOptions(opts)
	return &TopicsManager{
		courseID: courseID,
		exec:     m.Executor(),
		manager:  m,
		topics:   stream.NewBacked[[]Topic](m.Executor(), o.backed("topics", zap.String("course", courseID))...),
	}
}

// NewStaticTopicsManager serves a fixed topic list.
func NewStaticTopicsManager(exec executor.Executor, courseID string, topics []Topic, opts ...Option) *TopicsManager {
	o := buildOptions(opts)
	t := &TopicsManager{
		courseID: courseID,
		exec:     exec,
		topics:   stream.NewBacked[[]Topic](exec, o.backed("topics", zap.String("course", courseID))...),
	}
	t.topics.BackWithStream(stream.Value(exec, topics))
	return t
}

// Topics returns the topic stream, starting the fetch if nothing has been
// loaded or requested yet.
func (t *TopicsManager) Topics() stream.Source[[]Topic] {
	t.exec.Execute(func() {
		if _, ok := t.topics.Value(); ok || t.topics.Active() || t.manager == nil {
			return
		}
		t.topics.BackWithStream(network.StreamForRequest(t.manager, TopicsRequest(t.courseID), network.PersistResponse()))
	})
	return t.topics
}

// Refresh fetches the topics again.
func (t *TopicsManager) Refresh() {
	t.exec.Execute(func() {
		if t.manager == nil {
			return
		}
		t.topics.BackWithStream(network.StreamForRequest(t.manager, TopicsRequest(t.courseID), network.PersistResponse()))
	})
}
