// Package store exposes the read-only relationship lookups the feed core
// depends on: account and item point reads plus follow/reaction edge checks.
package store

import (
	"context"
	"errors"

	"github.com/d60-Lab/feedmix/internal/model"
)

// ErrNotFound is returned by GetAccount and GetItem when no record has the id.
var ErrNotFound = errors.New("not found")

// Store is the relationship store contract. Implementations must be safe for
// concurrent use; every call is an independent keyed lookup.
type Store interface {
	GetAccount(ctx context.Context, id int64) (model.User, error)
	// GetItem returns the raw record; AuthorID is not resolved.
	GetItem(ctx context.Context, id int64) (model.Post, error)
	IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error)
	HasReacted(ctx context.Context, viewerID, itemID int64) (bool, error)
}
