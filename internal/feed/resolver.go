package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedmix/internal/store"
	"github.com/d60-Lab/feedmix/pkg/logger"
)

// Resolver enriches item ids with their owner and the viewer's follow and
// reaction edges.
type Resolver struct {
	store   store.Store
	workers int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithWorkers bounds concurrent per-item lookups. n <= 1 resolves sequentially.
func WithWorkers(n int) ResolverOption {
	return func(r *Resolver) { r.workers = n }
}

func NewResolver(s store.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: s, workers: 1}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns one result per input position, duplicates included, in input
// order. A nil slot means the item does not exist. An unknown viewer fails the
// call with ErrViewerNotFound; any store failure fails it with *StoreError.
// Duplicate ids are looked up once and each position gets its own copy.
func (r *Resolver) Resolve(ctx context.Context, viewerID int64, itemIDs []int64) ([]*EnrichedItem, error) {
	if _, err := r.store.GetAccount(ctx, viewerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrViewerNotFound, viewerID)
		}
		return nil, &StoreError{Op: OpGetAccount, ID: viewerID, Err: err}
	}

	unique := make([]int64, 0, len(itemIDs))
	slot := make([]int, len(itemIDs))
	seen := make(map[int64]int, len(itemIDs))
	for i, id := range itemIDs {
		u, ok := seen[id]
		if !ok {
			u = len(unique)
			seen[id] = u
			unique = append(unique, id)
		}
		slot[i] = u
	}

	resolved := make([]*EnrichedItem, len(unique))
	if r.workers <= 1 || len(unique) < 2 {
		for i, id := range unique {
			e, err := r.resolveOne(ctx, viewerID, id)
			if err != nil {
				return nil, err
			}
			resolved[i] = e
		}
	} else {
		// 每个 goroutine 只写自己的下标，结果按位置回填
		p := pool.New().
			WithContext(ctx).
			WithCancelOnError().
			WithFirstError().
			WithMaxGoroutines(r.workers)
		for i, id := range unique {
			i, id := i, id
			p.Go(func(ctx context.Context) error {
				e, err := r.resolveOne(ctx, viewerID, id)
				if err != nil {
					return err
				}
				resolved[i] = e
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]*EnrichedItem, len(itemIDs))
	used := make([]bool, len(unique))
	for i, u := range slot {
		e := resolved[u]
		if e == nil {
			continue
		}
		if used[u] {
			e = e.clone()
		}
		used[u] = true
		out[i] = e
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, viewerID, itemID int64) (*EnrichedItem, error) {
	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Debug("feed item missing", zap.Int64("viewer_id", viewerID), zap.Int64("item_id", itemID))
			return nil, nil
		}
		return nil, &StoreError{Op: OpGetItem, ID: itemID, Err: err}
	}

	owner, err := r.store.GetAccount(ctx, item.AuthorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = fmt.Errorf("%w: item %d", ErrDanglingOwner, itemID)
		}
		return nil, &StoreError{Op: OpGetAccount, ID: item.AuthorID, Err: err}
	}

	followed, err := r.store.IsFollowing(ctx, viewerID, owner.ID)
	if err != nil {
		return nil, &StoreError{Op: OpIsFollowing, ID: owner.ID, Err: err}
	}

	reacted, err := r.store.HasReacted(ctx, viewerID, item.ID)
	if err != nil {
		return nil, &StoreError{Op: OpHasReacted, ID: item.ID, Err: err}
	}

	item.Author = nil
	return &EnrichedItem{
		Post:              item,
		Owner:             Account{User: owner, IsFollowedByViewer: followed},
		IsReactedByViewer: reacted,
	}, nil
}
