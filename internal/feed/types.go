package feed

import "github.com/d60-Lab/feedmix/internal/model"

// Account is an account as seen by one viewer. The flag is computed per call
// and never written back to the store.
type Account struct {
	model.User
	IsFollowedByViewer bool `json:"is_followed_by_viewer"`
}

// EnrichedItem is an item with its resolved owner and the viewer-relative
// reaction flag.
type EnrichedItem struct {
	model.Post
	Owner             Account `json:"owner"`
	IsReactedByViewer bool    `json:"is_reacted_by_viewer"`
}

// OwnerID is the grouping key used for interleaving.
func (e *EnrichedItem) OwnerID() int64 { return e.Owner.ID }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// clone returns a copy sharing no pointers with e.
func (e *EnrichedItem) clone() *EnrichedItem {
	c := *e
	c.Image = cloneString(e.Image)
	c.Author = nil
	c.Owner.ProfilePicture = cloneString(e.Owner.ProfilePicture)
	return &c
}

// Compact drops absent (nil) slots, keeping order.
func Compact(items []*EnrichedItem) []*EnrichedItem {
	out := make([]*EnrichedItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
