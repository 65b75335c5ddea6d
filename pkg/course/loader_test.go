package course

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

func groupIDs(groups []BlockGroup) map[string][]string {
	out := make(map[string][]string, len(groups))
	for _, g := range groups {
		out[g.Block.ID] = ids(g.Children)
	}
	return out
}

func TestOutlineLoader_RootChain(t *testing.T) {
	q := newStaticQuerier(t)
	l := NewOutlineLoader(q, ModeFull)
	defer l.Close()

	var rows [][]BlockGroup
	l.Rows().Listen(nil, func(g []BlockGroup) { rows = append(rows, g) }, nil)
	l.Show("")

	headers := resolved[BlockGroup](t, l.Headers())
	require.True(t, headers.IsSuccess())
	assert.Equal(t, "course", headers.Value().Block.ID)

	require.Len(t, rows, 1)
	require.Len(t, rows[0], 2)
	assert.Equal(t, "ch1", rows[0][0].Block.ID)
	assert.Equal(t, "ch2", rows[0][1].Block.ID)
	assert.Equal(t, map[string][]string{
		"ch1": {"seq1", "seq2"},
		"ch2": {"seq3"},
	}, groupIDs(rows[0]))
}

func TestOutlineLoader_VideoMode(t *testing.T) {
	q := newStaticQuerier(t)
	l := NewOutlineLoader(q, ModeVideo)
	defer l.Close()

	l.Show("ch1")
	rows := resolved[[]BlockGroup](t, l.Rows())
	require.True(t, rows.IsSuccess())
	assert.Equal(t, map[string][]string{"seq1": {"vert1"}}, groupIDs(rows.Value()))
}

func TestOutlineLoader_EnteredBlockShowsParent(t *testing.T) {
	q := newStaticQuerier(t)
	l := NewOutlineLoader(q, ModeFull)
	defer l.Close()

	l.EnteredBlock("video1")

	id := resolved[string](t, l.BlockID())
	assert.Equal(t, "vert1", id.Value())
	headers := resolved[BlockGroup](t, l.Headers())
	assert.Equal(t, []string{"video1", "html1"}, ids(headers.Value().Children))
}

func TestOutlineLoader_ErrorsFlowDownTheChain(t *testing.T) {
	q := newStaticQuerier(t)
	l := NewOutlineLoader(q, ModeFull)
	defer l.Close()

	l.Show("missing")
	headers := resolved[BlockGroup](t, l.Headers())
	assert.True(t, errors.Is(headers.Err(), cferrors.ErrNotFound))
	rows := resolved[[]BlockGroup](t, l.Rows())
	assert.True(t, errors.Is(rows.Err(), cferrors.ErrNotFound))

	l.EnteredBlock("course")
	rows = resolved[[]BlockGroup](t, l.Rows())
	assert.True(t, errors.Is(rows.Err(), cferrors.ErrNotFound))
}

// Navigating away before the outline arrives must not surface the old block.
func TestOutlineLoader_StaleNavigationDropped(t *testing.T) {
	exec := executor.NewImmediate()
	outline, resolver := stream.New[*Outline](exec)
	q := &Querier{courseID: "physics", exec: exec, outline: stream.NewBacked[*Outline](exec)}
	q.outline.BackWithStream(outline)

	l := NewOutlineLoader(q, ModeFull)
	defer l.Close()

	var shown []string
	l.Headers().Listen(nil, func(g BlockGroup) { shown = append(shown, g.Block.ID) }, nil)

	l.Show("ch1")
	l.Show("ch2")
	resolver.Succeed(sampleOutline(t))

	assert.Equal(t, []string{"ch2"}, shown)
}

func TestOutlineLoader_CloseStopsChain(t *testing.T) {
	q := newStaticQuerier(t)
	l := NewOutlineLoader(q, ModeFull)

	l.Show("ch1")
	l.Close()
	l.Show("ch2")

	headers := resolved[BlockGroup](t, l.Headers())
	assert.Equal(t, "ch1", headers.Value().Block.ID)
}
