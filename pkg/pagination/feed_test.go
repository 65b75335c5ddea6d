package pagination

import (
	"testing"

	"github.com/vnykmshr/courseflow/internal/testutil"
	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
)

func TestNewFeed_Validation(t *testing.T) {
	_, err := NewFeed(0, pageRequest)
	if !cferrors.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = NewFeed[int](10, nil)
	if !cferrors.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFeed_NextAdvances(t *testing.T) {
	feed, err := NewFeed(20, pageRequest)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, feed.Current().Index, 0)

	req := feed.Next()
	testutil.AssertEqual(t, req.Query.Get("page"), "1")
	testutil.AssertEqual(t, req.Query.Get("page_size"), "20")
	testutil.AssertEqual(t, feed.Current().Index, 1)
	testutil.AssertEqual(t, feed.Current().PageSize(), 20)

	req = feed.Next()
	testutil.AssertEqual(t, req.Query.Get("page"), "2")
	testutil.AssertEqual(t, feed.Current().Index, 2)
}

func TestFeed_Reset(t *testing.T) {
	feed, err := NewFeed(5, pageRequest)
	testutil.AssertNoError(t, err)

	feed.Next()
	feed.Next()
	feed.Reset()
	testutil.AssertEqual(t, feed.Current().Index, 0)
	testutil.AssertEqual(t, feed.Next().Query.Get("page"), "1")
}
