package course

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/courseflow/internal/testutil"
	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// sampleBlocks is a small course:
//
//	course
//	├── ch1
//	│   ├── seq1 ── vert1 ── video1, html1
//	│   └── seq2 ── vert2 ── problem1
//	└── ch2
//	    └── seq3 ── vert3 ── video2
func sampleBlocks() map[string]Block {
	return map[string]Block{
		"course":   {Type: BlockCourse, Name: "Physics", Children: []string{"ch1", "ch2"}},
		"ch1":      {Type: BlockChapter, Name: "Motion", Children: []string{"seq1", "seq2"}},
		"ch2":      {Type: BlockChapter, Name: "Energy", Children: []string{"seq3"}},
		"seq1":     {Type: BlockSequential, Name: "Velocity", Children: []string{"vert1"}},
		"seq2":     {Type: BlockSequential, Name: "Quiz", Children: []string{"vert2"}},
		"seq3":     {Type: BlockSequential, Name: "Work", Children: []string{"vert3"}},
		"vert1":    {Type: BlockVertical, Name: "Lesson 1", Children: []string{"video1", "html1"}},
		"vert2":    {Type: BlockVertical, Name: "Quiz 1", Children: []string{"problem1"}},
		"vert3":    {Type: BlockVertical, Name: "Lesson 2", Children: []string{"video2"}},
		"video1":   {Type: BlockVideo, Name: "Intro video"},
		"html1":    {Type: BlockHTML, Name: "Notes"},
		"problem1": {Type: BlockProblem, Name: "Problem"},
		"video2":   {Type: BlockVideo, Name: "Work video"},
	}
}

func sampleOutline(t *testing.T) *Outline {
	t.Helper()
	o, err := NewOutline("course", sampleBlocks())
	require.NoError(t, err)
	return o
}

func ids(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}

// resolved returns the current result of s on a synchronous executor.
func resolved[T any](t *testing.T, s stream.Source[T]) result.Result[T] {
	t.Helper()
	var got *result.Result[T]
	s.ObserveOnce(nil, func(r result.Result[T]) { got = &r })
	require.NotNil(t, got, "stream has no result")
	return *got
}

// await waits for the next result of s delivered on a concurrent executor.
func await[T any](t *testing.T, s stream.Source[T]) result.Result[T] {
	t.Helper()
	ch := make(chan result.Result[T], 1)
	s.ObserveOnce(nil, func(r result.Result[T]) { ch <- r })
	select {
	case r := <-ch:
		return r
	case <-time.After(testutil.TestTimeout):
		t.Fatal("timed out waiting for result")
		return result.Result[T]{}
	}
}

// fakeCourseAPI serves the course endpoints for one course.
type fakeCourseAPI struct {
	server *httptest.Server

	mu           sync.Mutex
	course       Course
	updates      []Announcement
	handouts     string
	lastAccessed LastAccessed
	responses    []Comment
	statusGate   chan struct{}
	hits         map[string]int
	down         bool
}

func newFakeCourseAPI(t *testing.T) *fakeCourseAPI {
	t.Helper()
	api := &fakeCourseAPI{
		course:       Course{ID: "physics", Name: "Physics", Access: &CoursewareAccess{HasAccess: true}},
		updates:      []Announcement{{Date: "2024-09-01", Content: "Welcome"}},
		handouts:     "<p>syllabus</p>",
		lastAccessed: LastAccessed{ModuleID: "seq1"},
		hits:         make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			api.mu.Lock()
			down := api.down
			if route := mux.CurrentRoute(req); route != nil {
				api.hits[route.GetName()]++
			}
			api.mu.Unlock()
			if down {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/api/courses/v1/blocks/", func(w http.ResponseWriter, req *http.Request) {
		api.writeJSON(w, map[string]interface{}{"root": "course", "blocks": withIDs(sampleBlocks())})
	}).Name("outline")
	r.HandleFunc("/api/mobile/v0.5/courses/{course}", func(w http.ResponseWriter, req *http.Request) {
		api.mu.Lock()
		c := api.course
		api.mu.Unlock()
		api.writeJSON(w, c)
	}).Name("course")
	r.HandleFunc("/api/mobile/v0.5/course_info/{course}/updates", func(w http.ResponseWriter, req *http.Request) {
		api.mu.Lock()
		u := api.updates
		api.mu.Unlock()
		api.writeJSON(w, u)
	}).Name("updates")
	r.HandleFunc("/api/mobile/v0.5/course_info/{course}/handouts", func(w http.ResponseWriter, req *http.Request) {
		api.mu.Lock()
		h := api.handouts
		api.mu.Unlock()
		api.writeJSON(w, map[string]string{"handouts_html": h})
	}).Name("handouts")
	r.HandleFunc("/api/discussion/v1/course_topics/{course}", func(w http.ResponseWriter, req *http.Request) {
		api.writeJSON(w, map[string]interface{}{
			"courseware_topics":     []Topic{{ID: "ch1", Name: "Motion"}},
			"non_courseware_topics": []Topic{{ID: "general", Name: "General"}},
		})
	}).Name("topics")
	r.HandleFunc("/api/discussion/v1/comments/", func(w http.ResponseWriter, req *http.Request) {
		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
		api.mu.Lock()
		all := api.responses
		api.mu.Unlock()
		start := (page - 1) * size
		if start > len(all) {
			start = len(all)
		}
		end := start + size
		if end > len(all) {
			end = len(all)
		}
		api.writeJSON(w, map[string]interface{}{"results": all[start:end]})
	}).Methods(http.MethodGet).Name("responses")
	r.HandleFunc("/api/discussion/v1/comments/", func(w http.ResponseWriter, req *http.Request) {
		var in map[string]string
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &in)
		api.writeJSON(w, Comment{ID: "c-new", ThreadID: in["thread_id"], RawBody: in["raw_body"]})
	}).Methods(http.MethodPost).Name("add_comment")
	r.HandleFunc("/api/discussion/v1/comments/{id}/", func(w http.ResponseWriter, req *http.Request) {
		var in map[string]bool
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &in)
		api.writeJSON(w, Comment{ID: mux.Vars(req)["id"], Flagged: in["abuse_flagged"]})
	}).Methods(http.MethodPatch).Name("flag_comment")
	r.HandleFunc("/api/mobile/v0.5/users/{user}/course_status_info/{course}", func(w http.ResponseWriter, req *http.Request) {
		api.mu.Lock()
		gate := api.statusGate
		api.mu.Unlock()
		if gate != nil {
			<-gate
		}

		api.mu.Lock()
		defer api.mu.Unlock()
		if req.Method == http.MethodPatch {
			var in map[string]string
			body, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(body, &in)
			api.lastAccessed = LastAccessed{ModuleID: in["last_visited_module_id"]}
		}
		b, _ := json.Marshal(api.lastAccessed)
		_, _ = w.Write(b)
	}).Name("last_accessed")

	api.server = httptest.NewServer(r)
	t.Cleanup(api.server.Close)
	return api
}

func withIDs(blocks map[string]Block) map[string]Block {
	for id, b := range blocks {
		b.ID = id
		blocks[id] = b
	}
	return blocks
}

func (api *fakeCourseAPI) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (api *fakeCourseAPI) set(fn func(api *fakeCourseAPI)) {
	api.mu.Lock()
	defer api.mu.Unlock()
	fn(api)
}

func (api *fakeCourseAPI) hitCount(route string) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.hits[route]
}

func newTestManager(t *testing.T, api *fakeCourseAPI) *network.Manager {
	t.Helper()
	exec := executor.NewSerial()
	m, err := network.New(network.Config{BaseURL: api.server.URL + "/", Timeout: time.Second}, exec,
		network.WithCache(network.NewMemoryCache()))
	require.NoError(t, err)
	t.Cleanup(func() {
		<-m.Close()
		<-exec.Shutdown()
	})
	return m
}

const tick = 10 * time.Millisecond

var testTimeout = testutil.TestTimeout
