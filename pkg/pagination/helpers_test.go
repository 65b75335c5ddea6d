package pagination

import (
	"strconv"

	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
)

// fakeIssuer records page requests and completes them on demand.
type fakeIssuer[A any] struct {
	requests []network.Request[[]A]
	pending  []func(result.Result[[]A])
}

func (f *fakeIssuer[A]) Issue(req network.Request[[]A], done func(result.Result[[]A])) {
	f.requests = append(f.requests, req)
	f.pending = append(f.pending, done)
}

func (f *fakeIssuer[A]) complete(r result.Result[[]A]) {
	done := f.pending[0]
	f.pending = f.pending[1:]
	done(r)
}

type recordingIndicator struct {
	starts, stops, detaches int
}

func (r *recordingIndicator) Start()  { r.starts++ }
func (r *recordingIndicator) Stop()   { r.stops++ }
func (r *recordingIndicator) Detach() { r.detaches++ }

func (r *recordingIndicator) visible() bool {
	return r.starts > r.stops
}

func pageRequest(p Page) network.Request[[]int] {
	return network.Request[[]int]{
		Path:   "comments",
		Query:  map[string][]string{"page": {strconv.Itoa(p.Index)}, "page_size": {strconv.Itoa(p.Size)}},
		Decode: network.DecodeJSON[[]int](),
	}
}

func items(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
