package course

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/metrics"
	"github.com/vnykmshr/courseflow/pkg/pagination"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

type page struct {
	items  []Comment
	ok     bool
	issued bool
}

// loadPage drives p on exec, where its completions are delivered.
func loadPage(t *testing.T, exec executor.Executor, p *pagination.Paginator[Comment]) page {
	t.Helper()
	ch := make(chan page, 1)
	exec.Execute(func() {
		issued := p.LoadDataIfAvailable(func(items []Comment, ok bool) {
			ch <- page{items: items, ok: ok, issued: true}
		})
		if !issued {
			select {
			case got := <-ch:
				got.issued = false
				ch <- got
			default:
				ch <- page{}
			}
		}
	})
	select {
	case got := <-ch:
		return got
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for page")
		return page{}
	}
}

func comments(n int) []Comment {
	out := make([]Comment, n)
	for i := range out {
		out[i] = Comment{ID: fmt.Sprintf("c%d", i+1), ThreadID: "t1"}
	}
	return out
}

func TestCommentsPaginator_PagesUntilShortPage(t *testing.T) {
	api := newFakeCourseAPI(t)
	api.set(func(api *fakeCourseAPI) { api.responses = comments(5) })
	m := newTestManager(t, api)
	reg := metrics.NewRegistry(prometheus.NewRegistry())

	p, err := NewCommentsPaginator(m, "t1", 2, pagination.WithMetrics(reg))
	require.NoError(t, err)

	var seen []string
	for i := 0; i < 3; i++ {
		got := loadPage(t, m.Executor(), p)
		require.True(t, got.issued, "page %d", i+1)
		require.True(t, got.ok, "page %d", i+1)
		for _, c := range got.items {
			seen = append(seen, c.ID)
		}
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, seen)

	last := loadPage(t, m.Executor(), p)
	assert.False(t, last.issued)
	assert.False(t, last.ok)
	assert.Equal(t, 3, api.hitCount("responses"))
	assert.Equal(t, 3.0, promtest.ToFloat64(reg.PaginatorPages.WithLabelValues("comments", "success")))
}

func TestCommentsPaginator_FullLastPageNeedsEmptyFetch(t *testing.T) {
	api := newFakeCourseAPI(t)
	api.set(func(api *fakeCourseAPI) { api.responses = comments(4) })
	m := newTestManager(t, api)

	p, err := NewCommentsPaginator(m, "t1", 2)
	require.NoError(t, err)

	loadPage(t, m.Executor(), p)
	loadPage(t, m.Executor(), p)
	third := loadPage(t, m.Executor(), p)
	require.True(t, third.issued)
	assert.True(t, third.ok)
	assert.Empty(t, third.items)
	assert.Equal(t, 3, api.hitCount("responses"))
}

func TestCommentsPaginator_FailureEndsFeed(t *testing.T) {
	api := newFakeCourseAPI(t)
	api.set(func(api *fakeCourseAPI) { api.down = true })
	m := newTestManager(t, api)

	p, err := NewCommentsPaginator(m, "t1", 2)
	require.NoError(t, err)

	got := loadPage(t, m.Executor(), p)
	assert.True(t, got.issued)
	assert.False(t, got.ok)

	errs := make(chan error, 1)
	m.Executor().Execute(func() { errs <- p.LastError() })
	var netErr *cferrors.NetworkError
	require.True(t, errors.As(<-errs, &netErr))
	assert.Equal(t, http.StatusBadGateway, netErr.StatusCode)
}

func TestCommentsFeed_Validation(t *testing.T) {
	_, err := CommentsFeed("t1", 0)
	assert.Error(t, err)
}

func TestDiscussion_AddCommentAnnounces(t *testing.T) {
	api := newFakeCourseAPI(t)
	m := newTestManager(t, api)
	d := NewDiscussion(m)

	added := make(chan CommentAdded, 1)
	d.CommentAdded().Listen(nil, func(c CommentAdded) { added <- c }, nil)

	r := await[Comment](t, d.AddComment("t1", "Nice explanation"))
	require.True(t, r.IsSuccess(), "err: %v", r.Err())
	assert.Equal(t, "Nice explanation", r.Value().RawBody)

	select {
	case c := <-added:
		assert.Equal(t, "t1", c.ThreadID)
		assert.Equal(t, "c-new", c.Comment.ID)
	case <-time.After(testTimeout):
		t.Fatal("comment was not announced")
	}
}

func TestDiscussion_ConcurrentPostsEachAnnounced(t *testing.T) {
	api := newFakeCourseAPI(t)
	m := newTestManager(t, api)
	d := NewDiscussion(m)

	const posts = 5
	added := make(chan CommentAdded, 2*posts)
	d.CommentAdded().Listen(nil, func(c CommentAdded) { added <- c }, nil)

	var wg sync.WaitGroup
	posted := make(chan result.Result[Comment], posts)
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.AddComment("t1", fmt.Sprintf("comment %d", i)).
				ObserveOnce(nil, func(r result.Result[Comment]) { posted <- r })
		}(i)
	}
	wg.Wait()
	for i := 0; i < posts; i++ {
		select {
		case r := <-posted:
			require.True(t, r.IsSuccess(), "err: %v", r.Err())
		case <-time.After(testTimeout):
			t.Fatal("post did not complete")
		}
	}

	bodies := make(map[string]bool)
	for len(bodies) < posts {
		select {
		case c := <-added:
			assert.False(t, bodies[c.Comment.RawBody], "announced twice: %s", c.Comment.RawBody)
			bodies[c.Comment.RawBody] = true
		case <-time.After(testTimeout):
			t.Fatalf("got %d announcements, want %d", len(bodies), posts)
		}
	}
	select {
	case c := <-added:
		t.Fatalf("unexpected extra announcement %+v", c)
	case <-time.After(5 * tick):
	}
	assert.Equal(t, posts, api.hitCount("add_comment"))
}

func TestDiscussion_FailedPostNotAnnounced(t *testing.T) {
	api := newFakeCourseAPI(t)
	api.set(func(api *fakeCourseAPI) { api.down = true })
	m := newTestManager(t, api)
	d := NewDiscussion(m)

	fired := make(chan CommentAdded, 1)
	d.CommentAdded().Listen(nil, func(c CommentAdded) { fired <- c }, nil)

	r := await[Comment](t, d.AddComment("t1", "hello"))
	assert.False(t, r.IsSuccess())
	select {
	case c := <-fired:
		t.Fatalf("unexpected announcement %+v", c)
	case <-time.After(5 * tick):
	}
}

func TestDiscussion_FlagComment(t *testing.T) {
	api := newFakeCourseAPI(t)
	m := newTestManager(t, api)
	d := NewDiscussion(m)

	done := make(chan result.Result[Comment], 1)
	d.FlagComment("c7", true, func(r result.Result[Comment]) { done <- r })

	select {
	case r := <-done:
		require.True(t, r.IsSuccess(), "err: %v", r.Err())
		assert.Equal(t, "c7", r.Value().ID)
		assert.True(t, r.Value().Flagged)
	case <-time.After(testTimeout):
		t.Fatal("flag request did not complete")
	}
	assert.Equal(t, 1, api.hitCount("flag_comment"))
}
