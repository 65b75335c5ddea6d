package pagination

import (
	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/common/validation"
)

// Page identifies one page of a feed. Index is 1-based.
type Page struct {
	Index int
	Size  int
}

// PageSize returns the number of items a full page holds.
func (p Page) PageSize() int {
	return p.Size
}

// Feed is a cursor over numbered pages. Each call to Next advances the
// cursor and builds the request for the new page.
type Feed[R any] struct {
	size    int
	current Page
	build   func(Page) R
}

// NewFeed creates a feed positioned before the first page.
func NewFeed[R any](pageSize int, build func(Page) R) (*Feed[R], error) {
	if err := validation.ValidatePositive("pagination", "page_size", pageSize); err != nil {
		return nil, err
	}
	if build == nil {
		return nil, cferrors.NewValidationError("pagination", "build", nil, "cannot be nil")
	}
	return &Feed[R]{
		size:    pageSize,
		current: Page{Index: 0, Size: pageSize},
		build:   build,
	}, nil
}

// Next advances to the following page and returns its request.
func (f *Feed[R]) Next() R {
	f.current = Page{Index: f.current.Index + 1, Size: f.size}
	return f.build(f.current)
}

// Current returns the page most recently returned by Next. Before the
// first call its Index is 0.
func (f *Feed[R]) Current() Page {
	return f.current
}

// Reset moves the cursor back before the first page.
func (f *Feed[R]) Reset() {
	f.current = Page{Index: 0, Size: f.size}
}
