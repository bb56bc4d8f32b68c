package feed

// Merge concatenates batches in order and reverses the whole result, so the
// last item of the last batch comes first. Empty batches contribute nothing.
func Merge[T any](batches [][]T) []T {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]T, n)
	i := n
	for _, b := range batches {
		for _, it := range b {
			i--
			out[i] = it
		}
	}
	return out
}
