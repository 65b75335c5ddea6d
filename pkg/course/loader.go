package course

import (
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
)

// OutlineLoader drives one outline screen: the current block ID feeds the
// headers (the block and its children), and the headers feed the rows
// (the children of every header). Moving to another block rebinds the
// chain; results from the block that was left are dropped.
type OutlineLoader struct {
	querier *Querier
	mode    Mode
	owner   *stream.Owner

	blockID *stream.BackedStream[string]
	headers *stream.BackedStream[BlockGroup]
	rows    *stream.BackedStream[[]BlockGroup]
}

// NewOutlineLoader wires the loader chain. Call Close to tear it down.
func NewOutlineLoader(q *Querier, mode Mode, opts ...Option) *OutlineLoader {
	o := buildOptions(opts)
	exec := q.Executor()
	l := &OutlineLoader{
		querier: q,
		mode:    mode,
		owner:   stream.NewOwner(),
		blockID: stream.NewBacked[string](exec, o.backed("outline.block_id")...),
		headers: stream.NewBacked[BlockGroup](exec, o.backed("outline.headers")...),
		rows:    stream.NewBacked[[]BlockGroup](exec, o.backed("outline.rows")...),
	}

	l.blockID.Listen(l.owner,
		func(id string) { l.headers.BackWithStream(l.querier.ChildrenOfBlockWithID(id, l.mode)) },
		func(err error) { l.headers.BackWithStream(stream.Error[BlockGroup](exec, err)) },
	)
	l.headers.Listen(l.owner,
		func(group BlockGroup) { l.rows.BackWithStream(l.rowsFor(group)) },
		func(err error) { l.rows.BackWithStream(stream.Error[[]BlockGroup](exec, err)) },
	)
	return l
}

func (l *OutlineLoader) rowsFor(group BlockGroup) *stream.Stream[[]BlockGroup] {
	children := make([]stream.Source[BlockGroup], 0, len(group.Children))
	for _, c := range group.Children {
		children = append(children, l.querier.ChildrenOfBlockWithID(c.ID, l.mode))
	}
	return stream.Join(l.querier.Executor(), children...)
}

// Show loads the block with id. An empty id means the course root.
func (l *OutlineLoader) Show(id string) {
	l.blockID.BackWithStream(stream.Value(l.querier.Executor(), id))
}

// EnteredBlock moves the loader to the parent of id, which is the group a
// content page for id belongs to.
func (l *OutlineLoader) EnteredBlock(id string) {
	l.blockID.BackWithStream(l.querier.ParentOfBlockWithID(id))
}

// BlockID is the block currently shown.
func (l *OutlineLoader) BlockID() *stream.BackedStream[string] { return l.blockID }

// Headers is the block currently shown and its children.
func (l *OutlineLoader) Headers() *stream.BackedStream[BlockGroup] { return l.headers }

// Rows is the children of every header, in header order.
func (l *OutlineLoader) Rows() *stream.BackedStream[[]BlockGroup] { return l.rows }

// Close stops the chain. Streams keep their last results.
func (l *OutlineLoader) Close() {
	l.owner.Close()
}
