package course

import (
	"fmt"

	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/metrics"
	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
	"github.com/vnykmshr/courseflow/pkg/reactive/tree"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// Mode selects which outline blocks are shown.
type Mode int

const (
	// ModeFull shows every block.
	ModeFull Mode = iota
	// ModeVideo shows only blocks whose subtree contains a video.
	ModeVideo
)

func (m Mode) String() string {
	if m == ModeVideo {
		return "video"
	}
	return "full"
}

// Option configures the stream-owning types of this package.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Registry
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics on the backed streams.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) {
		o.metrics = reg
	}
}

// backed labels a stream by component. Per-instance detail, such as the
// course, goes into the logger only so metric cardinality stays fixed.
func (o options) backed(name string, fields ...zap.Field) []stream.BackedOption {
	return []stream.BackedOption{
		stream.WithName(name),
		stream.WithLogger(o.logger.With(fields...)),
		stream.WithMetrics(o.metrics),
	}
}

// Querier answers structural questions about one course outline. The
// outline is fetched on first use and persisted for offline reads.
type Querier struct {
	courseID string
	exec     executor.Executor
	manager  *network.Manager
	outline  *stream.BackedStream[*Outline]
}

// NewQuerier returns a Querier that loads the outline through m.
func NewQuerier(m *network.Manager, courseID string, opts ...Option) *Querier {
	o := buildOptions(opts)
	return &Querier{
		courseID: courseID,
		exec:     m.Executor(),
		manager:  m,
		outline:  stream.NewBacked[*Outline](m.Executor(), o.backed("outline", zap.String("course", courseID))...),
	}
}

// NewStaticQuerier returns a Querier over an outline that is already in
// memory. Reload has no effect on it.
func NewStaticQuerier(exec executor.Executor, courseID string, outline *Outline, opts ...Option) *Querier {
	o := buildOptions(opts)
	q := &Querier{
		courseID: courseID,
		exec:     exec,
		outline:  stream.NewBacked[*Outline](exec, o.backed("outline", zap.String("course", courseID))...),
	}
	q.outline.BackWithStream(stream.Value(exec, outline))
	return q
}

// CourseID returns the course this querier describes.
func (q *Querier) CourseID() string {
	return q.courseID
}

// Executor returns the executor every stream of this querier runs on.
func (q *Querier) Executor() executor.Executor {
	return q.exec
}

// Outline returns the outline stream, starting the load if needed.
func (q *Querier) Outline() stream.Source[*Outline] {
	q.exec.Execute(func() {
		if _, ok := q.outline.Value(); !ok && !q.outline.Active() {
			q.load()
		}
	})
	return q.outline
}

// Reload fetches the outline again. Listeners of Outline see the new
// result once it arrives.
func (q *Querier) Reload() {
	q.exec.Execute(q.load)
}

func (q *Querier) load() {
	if q.manager == nil {
		return
	}
	q.outline.BackWithStream(network.StreamForRequest(q.manager, OutlineRequest(q.courseID), network.PersistResponse()))
}

func (q *Querier) lookup(id string, f func(o *Outline) (Block, bool)) *stream.Stream[Block] {
	return stream.Transform[*Outline, Block](q.Outline(), func(o *Outline) stream.Source[Block] {
		b, ok := f(o)
		if !ok {
			return stream.Error[Block](q.exec, fmt.Errorf("block %q: %w", id, cferrors.ErrNotFound))
		}
		return stream.Value(q.exec, b)
	})
}

// BlockWithID resolves to the block with id.
func (q *Querier) BlockWithID(id string) *stream.Stream[Block] {
	return q.lookup(id, func(o *Outline) (Block, bool) { return o.Block(id) })
}

// ParentOfBlockWithID resolves to the ID of the parent of id. The root
// block has no parent and fails with ErrNotFound.
func (q *Querier) ParentOfBlockWithID(id string) *stream.Stream[string] {
	parent := q.lookup(id, func(o *Outline) (Block, bool) { return o.Parent(id) })
	return stream.Map(parent, func(b Block) string { return b.ID })
}

// ChildrenOfBlockWithID resolves to the block with id and its children
// visible in mode. An empty id means the root.
func (q *Querier) ChildrenOfBlockWithID(id string, mode Mode) *stream.Stream[BlockGroup] {
	return stream.Transform[*Outline, BlockGroup](q.Outline(), func(o *Outline) stream.Source[BlockGroup] {
		blockID := id
		if blockID == "" {
			blockID = o.RootID()
		}
		block, ok := o.Block(blockID)
		if !ok {
			return stream.Error[BlockGroup](q.exec, fmt.Errorf("block %q: %w", blockID, cferrors.ErrNotFound))
		}
		children, _ := o.ChildBlocks(blockID)
		if mode == ModeVideo {
			visible := children[:0:0]
			for _, c := range children {
				if o.ContainsVideo(c.ID) {
					visible = append(visible, c)
				}
			}
			children = visible
		}
		return stream.Value(q.exec, BlockGroup{Block: block, Children: children})
	})
}

// FlatMapRootedAtBlockWithID applies fn to every block of the subtree
// rooted at id, in pre-order, and concatenates the results.
func FlatMapRootedAtBlockWithID[U any](q *Querier, id string, fn func(Block) []U) *stream.Stream[[]U] {
	return stream.Transform[*Outline, []U](q.Outline(), func(o *Outline) stream.Source[[]U] {
		root, ok := o.Index(id)
		if !ok {
			return stream.Error[[]U](q.exec, fmt.Errorf("block %q: %w", id, cferrors.ErrNotFound))
		}
		return tree.FlatMap[Block, U](q.exec, o, root, func(b Block) stream.Source[[]U] {
			return stream.Value(q.exec, fn(b))
		})
	})
}

// VideoIDsRootedAt resolves to the IDs of every video under id.
func (q *Querier) VideoIDsRootedAt(id string) *stream.Stream[[]string] {
	return FlatMapRootedAtBlockWithID(q, id, func(b Block) []string {
		if b.Type.IsVideo() {
			return []string{b.ID}
		}
		return nil
	})
}
