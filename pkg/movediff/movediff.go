// ABOUTME: Array move analysis between two equal-length sequences
// ABOUTME: Produces splice-moves that turn the source order into the target order

package movediff

// Move relocates the element at From to To. Replaying a move removes the
// element currently at From and reinserts it at To, shifting the elements in
// between by one.
type Move struct {
	From int
	To   int
}

// Diff computes the moves that rearrange source into target. Both slices must
// have the same length; a nil slot is undefined and never used as a move
// anchor, so moves are only expressed between defined values.
//
// When a value occurs more than once, the occurrence nearest the end of the
// working copy is picked. Replaying the returned moves in order against a copy
// of source reproduces target on every position where source is defined.
func Diff[T comparable](source, target []*T) []Move {
	if len(source) != len(target) {
		return nil
	}

	working := make([]*T, len(target))
	copy(working, target)

	var moves []Move
	for i, want := range source {
		if want == nil {
			continue
		}
		if same(working[i], want) {
			continue
		}

		j := lastIndex(working, *want)
		if j < 0 {
			// value absent from target, nothing can be anchored on it
			continue
		}

		MoveItem(working, j, i)
		moves = append([]Move{{From: i, To: j}}, moves...)
	}

	return moves
}

// Apply replays moves against a copy of items and returns the result.
func Apply[T any](items []T, moves []Move) []T {
	out := make([]T, len(items))
	copy(out, items)
	for _, m := range moves {
		MoveItem(out, m.From, m.To)
	}
	return out
}

// MoveItem removes the element at from and reinserts it at to, in place.
// Indexes outside the slice are clamped to its bounds.
func MoveItem[T any](items []T, from, to int) {
	if len(items) == 0 {
		return
	}
	from = clamp(from, len(items)-1)
	to = clamp(to, len(items)-1)
	if from == to {
		return
	}

	item := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
}

func same[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func lastIndex[T comparable](items []*T, v T) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] != nil && *items[i] == v {
			return i
		}
	}
	return -1
}

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}
