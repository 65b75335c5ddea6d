// Package tree provides stream combinators over arena-indexed trees, such as
// a course outline stored as a flat slice of blocks.
package tree

import (
	"fmt"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
	"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
)

// Tree is an arena of nodes addressed by index.
type Tree[N any] interface {
	// Len returns the number of nodes in the arena.
	Len() int

	// Node returns the node stored at index i.
	Node(i int) N

	// Children returns the indices of the children of node i, in order.
	Children(i int) []int
}

// Walk visits the subtree rooted at root in pre-order using an explicit
// stack. Returning false from visit skips that node's children. Indices
// outside the arena and nodes already visited are ignored, so malformed
// arenas with cycles still terminate.
func Walk[N any](t Tree[N], root int, visit func(i int, n N) bool) {
	if root < 0 || root >= t.Len() {
		return
	}

	visited := make(map[int]struct{})
	stack := []int{root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[i]; seen {
			continue
		}
		visited[i] = struct{}{}

		if !visit(i, t.Node(i)) {
			continue
		}

		children := t.Children(i)
		for c := len(children) - 1; c >= 0; c-- {
			child := children[c]
			if child >= 0 && child < t.Len() {
				stack = append(stack, child)
			}
		}
	}
}

// FlatMap walks the subtree rooted at root and asks fn for a sub-stream per
// node; nodes for which fn returns nil are skipped. The sub-streams are
// joined and their slices concatenated in pre-order. The first failing
// sub-stream fails the whole result. A subtree with no matching nodes yields
// an empty slice.
func FlatMap[N, U any](exec executor.Executor, t Tree[N], root int, fn func(N) stream.Source[[]U]) *stream.Stream[[]U] {
	if root < 0 || root >= t.Len() {
		return stream.Error[[]U](exec, fmt.Errorf("tree root %d: %w", root, cferrors.ErrNotFound))
	}

	var parts []stream.Source[[]U]
	Walk(t, root, func(_ int, n N) bool {
		if s := fn(n); s != nil {
			parts = append(parts, s)
		}
		return true
	})

	joined := stream.Join(exec, parts...)
	return stream.Map[[][]U](joined, flatten[U])
}

func flatten[U any](parts [][]U) []U {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]U, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
