// Package ranking orders scored items. Ties always keep their input order, so a ranking
// is a pure function of the scores and the order in which items were enumerated.
package ranking

import "sort"

// Scored pairs an item with its integer score.
type Scored[T any] struct {
	Item  T
	Score int
}

// Rank returns a copy of items sorted by descending score. Items with equal scores
// keep their relative input order. The input slice is never reordered.
func Rank[T any](items []Scored[T]) []Scored[T] {
	out := make([]Scored[T], len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// TopK returns the first k items of Rank(items). k <= 0 yields an empty, non-nil slice;
// k larger than len(items) yields every item.
func TopK[T any](items []Scored[T], k int) []Scored[T] {
	if k <= 0 {
		return []Scored[T]{}
	}
	ranked := Rank(items)
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Items unwraps the items of a ranked slice, keeping order.
func Items[T any](ranked []Scored[T]) []T {
	out := make([]T, len(ranked))
	for i, s := range ranked {
		out[i] = s.Item
	}
	return out
}
