package feed

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Interleave reorders items round robin across groups: each round takes the
// oldest remaining item of every non-empty group, visiting groups in the order
// they first appear in items. Order inside a group is preserved and the result
// is a permutation of the input. Runs in O(N) regardless of group sizes.
func Interleave[T any, K comparable](items []T, key func(T) K) ([]T, error) {
	if key == nil {
		return nil, ErrNilGroupKey
	}
	if len(items) == 0 {
		return []T{}, nil
	}

	// Per-group FIFOs live in one arena: next[i] links item i to the next item
	// of its group, -1 terminates.
	next := make([]int, len(items))
	var heads, tails []int
	groupOf := make(map[K]int)
	for i, it := range items {
		next[i] = -1
		k := key(it)
		g, ok := groupOf[k]
		if !ok {
			groupOf[k] = len(heads)
			heads = append(heads, i)
			tails = append(tails, i)
			continue
		}
		next[tails[g]] = i
		tails[g] = i
	}

	out := make([]T, 0, len(items))
	if len(heads) == 1 {
		return append(out, items...), nil
	}

	// active holds groups with remaining items in rotation order
	active := linkedlistqueue.New()
	for g := range heads {
		active.Enqueue(g)
	}
	for !active.Empty() {
		v, _ := active.Dequeue()
		g := v.(int)
		i := heads[g]
		out = append(out, items[i])
		if heads[g] = next[i]; heads[g] >= 0 {
			active.Enqueue(g)
		}
	}
	return out, nil
}

// InterleaveByOwner interleaves enriched items by owning account. Absent (nil)
// slots are dropped.
func InterleaveByOwner(items []*EnrichedItem) []*EnrichedItem {
	out, _ := Interleave(Compact(items), (*EnrichedItem).OwnerID)
	return out
}
