package course

import (
	"fmt"
	"sort"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/reactive/tree"
)

// Outline is a course block tree stored as an arena. Blocks reachable
// from the root come first in pre-order; unreachable blocks follow in ID
// order. Child references to unknown blocks are dropped.
type Outline struct {
	root     int
	blocks   []Block
	index    map[string]int
	children [][]int
	parent   []int
}

var _ tree.Tree[Block] = (*Outline)(nil)

// NewOutline builds an outline from blocks keyed by ID.
func NewOutline(rootID string, blocks map[string]Block) (*Outline, error) {
	if _, ok := blocks[rootID]; !ok {
		return nil, fmt.Errorf("outline root %q: %w", rootID, cferrors.ErrNotFound)
	}

	o := &Outline{index: make(map[string]int, len(blocks))}
	add := func(id string) int {
		b := blocks[id]
		b.ID = id
		o.index[id] = len(o.blocks)
		o.blocks = append(o.blocks, b)
		o.parent = append(o.parent, -1)
		return len(o.blocks) - 1
	}

	o.root = add(rootID)
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		kids := blocks[id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			kid := kids[i]
			if _, known := blocks[kid]; !known {
				continue
			}
			if _, seen := o.index[kid]; seen {
				continue
			}
			// Reserve pre-order slots by pushing in reverse and adding on pop.
			stack = append(stack, kid)
		}
		if _, added := o.index[id]; !added {
			add(id)
		}
	}

	rest := make([]string, 0, len(blocks)-len(o.blocks))
	for id := range blocks {
		if _, ok := o.index[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		add(id)
	}

	o.children = make([][]int, len(o.blocks))
	for i, b := range o.blocks {
		for _, kid := range b.Children {
			j, ok := o.index[kid]
			if !ok || o.parent[j] != -1 || j == o.root {
				continue
			}
			o.parent[j] = i
			o.children[i] = append(o.children[i], j)
		}
	}
	return o, nil
}

// Len implements tree.Tree.
func (o *Outline) Len() int { return len(o.blocks) }

// Node implements tree.Tree.
func (o *Outline) Node(i int) Block { return o.blocks[i] }

// Children implements tree.Tree.
func (o *Outline) Children(i int) []int { return o.children[i] }

// Root returns the arena index of the root block.
func (o *Outline) Root() int { return o.root }

// RootID returns the ID of the root block.
func (o *Outline) RootID() string { return o.blocks[o.root].ID }

// Index returns the arena index of id.
func (o *Outline) Index(id string) (int, bool) {
	i, ok := o.index[id]
	return i, ok
}

// Block returns the block with id.
func (o *Outline) Block(id string) (Block, bool) {
	i, ok := o.index[id]
	if !ok {
		return Block{}, false
	}
	return o.blocks[i], true
}

// Parent returns the parent of id. The root has no parent.
func (o *Outline) Parent(id string) (Block, bool) {
	i, ok := o.index[id]
	if !ok || o.parent[i] < 0 {
		return Block{}, false
	}
	return o.blocks[o.parent[i]], true
}

// ChildBlocks returns the children of id in order.
func (o *Outline) ChildBlocks(id string) ([]Block, bool) {
	i, ok := o.index[id]
	if !ok {
		return nil, false
	}
	out := make([]Block, 0, len(o.children[i]))
	for _, j := range o.children[i] {
		out = append(out, o.blocks[j])
	}
	return out, true
}

// ContainsVideo reports whether the subtree rooted at id has a video block.
func (o *Outline) ContainsVideo(id string) bool {
	i, ok := o.index[id]
	if !ok {
		return false
	}
	found := false
	tree.Walk[Block](o, i, func(_ int, b Block) bool {
		if b.Type.IsVideo() {
			found = true
		}
		return !found
	})
	return found
}
