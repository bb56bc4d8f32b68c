package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrViewerNotFound fails a whole Resolve call; no partial result is returned.
	ErrViewerNotFound = errors.New("viewer not found")
	// ErrDanglingOwner means an item references an account the store does not have.
	ErrDanglingOwner = errors.New("item owner not found")
	// ErrNilGroupKey rejects Interleave calls without a grouping function.
	ErrNilGroupKey = errors.New("nil group key function")
)

// Store operation names carried by StoreError.
const (
	OpGetAccount  = "get_account"
	OpGetItem     = "get_item"
	OpIsFollowing = "is_following"
	OpHasReacted  = "has_reacted"
	OpListInbox   = "list_inbox"
)

// StoreError reports a failed store lookup. The resolver never retries; the
// whole call is read-only and safe to repeat.
type StoreError struct {
	Op  string
	ID  int64
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s(%d): %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
