package course

import (
	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/pagination"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
)

// CommentsFeed pages through the responses of a thread.
func CommentsFeed(threadID string, pageSize int) (*pagination.Feed[network.Request[[]Comment]], error) {
	return pagination.NewFeed(pageSize, func(p pagination.Page) network.Request[[]Comment] {
		return ResponsesRequest(threadID, p.Index, p.PageSize())
	})
}

// NewCommentsPaginator returns a paginator over the responses of a thread.
func NewCommentsPaginator(m *network.Manager, threadID string, pageSize int, opts ...pagination.Option) (*pagination.Paginator[Comment], error) {
	feed, err := CommentsFeed(threadID, pageSize)
	if err != nil {
		return nil, err
	}
	opts = append([]pagination.Option{pagination.WithName("comments")}, opts...)
	return pagination.New[Comment](network.NewTaskIssuer[Comment](m), feed, opts...)
}

// Discussion posts and moderates comments. Every comment posted through
// it is announced on CommentAdded, so open comment lists can append it.
type Discussion struct {
	manager *network.Manager
	added   *stream.BackedStream[CommentAdded]
}

// NewDiscussion returns a Discussion that talks to the server through m.
func NewDiscussion(m *network.Manager, opts ...Option) *Discussion {
	o := buildOptions(opts)
	return &Discussion{
		manager: m,
		added:   stream.NewBacked[CommentAdded](m.Executor(), o.backed("comment_added")...),
	}
}

// CommentAdded fires once per comment posted through AddComment.
func (d *Discussion) CommentAdded() *stream.BackedStream[CommentAdded] {
	return d.added
}

// AddComment posts body to threadID.
func (d *Discussion) AddComment(threadID, body string) *stream.Stream[Comment] {
	posted := network.StreamForRequest(d.manager, AddCommentRequest(threadID, body))
	posted.ExtendLifetimeUntilFirstResult(func(r result.Result[Comment]) {
		r.IfSuccess(func(c Comment) {
			d.added.BackWithStream(stream.Value(d.manager.Executor(), CommentAdded{ThreadID: threadID, Comment: c}))
		})
	})
	return posted
}

// FlagComment sets or clears the abuse flag of a comment and reports the
// updated comment to done.
func (d *Discussion) FlagComment(commentID string, flagged bool, done func(result.Result[Comment])) {
	network.TaskForRequest(d.manager, FlagCommentRequest(commentID, flagged), done)
}
