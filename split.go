package rtree

import (
	"math"

	"go.uber.org/zap"
)

// splitNode splits node with index n into two nodes. The first group of
// entries stays in n, and the second moves to a newly created node sharing
// n's kind and parent. The return value is the index of the new node.
func (t *RTree[ID, T]) splitNode(n int) int {
	entries := t.nodes[n].entries

	var s1, s2 int
	if t.split == LinearSplit {
		s1, s2 = linearSeeds(entries)
	} else {
		s1, s2 = quadraticSeeds(entries)
	}

	groupA := make([]entry, 0, t.maxEntries+1)
	groupB := make([]entry, 0, t.maxEntries+1)
	groupA = append(groupA, entries[s1])
	groupB = append(groupB, entries[s2])
	boxA, boxB := entries[s1].box, entries[s2].box

	remaining := make([]entry, 0, len(entries)-2)
	for i, e := range entries {
		if i != s1 && i != s2 {
			remaining = append(remaining, e)
		}
	}

	for len(remaining) > 0 {
		// If one group needs every remaining entry to reach the minimum,
		// it gets them all.
		if len(groupA)+len(remaining) <= t.minEntries {
			groupA = append(groupA, remaining...)
			break
		}
		if len(groupB)+len(remaining) <= t.minEntries {
			groupB = append(groupB, remaining...)
			break
		}

		next := 0
		if t.split == QuadraticSplit {
			next = pickNext(remaining, boxA, boxB)
		}
		e := remaining[next]
		remaining = append(remaining[:next], remaining[next+1:]...)

		if chooseGroupA(e.box, boxA, boxB, len(groupA), len(groupB)) {
			groupA = append(groupA, e)
			boxA = combine(boxA, e.box)
		} else {
			groupB = append(groupB, e)
			boxB = combine(boxB, e.box)
		}
	}

	t.nodes[n].entries = groupA
	nn := t.newNode(t.nodes[n].kind, t.nodes[n].parent)
	t.nodes[nn].entries = append(t.nodes[nn].entries, groupB...)
	if t.nodes[nn].kind == internalKind {
		for _, e := range groupB {
			t.nodes[e.index].parent = nn
		}
	}

	t.metrics.split()
	t.log.Debug("rtree: split node",
		zap.Int("node", n),
		zap.Int("new_node", nn),
		zap.Stringer("kind", t.nodes[n].kind),
		zap.Int("entries_a", len(groupA)),
		zap.Int("entries_b", len(groupB)))
	return nn
}

// chooseGroupA decides which group an entry joins: the one needing the least
// enlargement, then the one with the smaller area, then the one with fewer
// entries. Remaining ties go to group A.
func chooseGroupA(bb, boxA, boxB BBox, countA, countB int) bool {
	dA := enlargement(boxA, bb)
	dB := enlargement(boxB, bb)
	if dA != dB {
		return dA < dB
	}
	if aA, aB := area(boxA), area(boxB); aA != aB {
		return aA < aB
	}
	return countA <= countB
}

// quadraticSeeds picks the pair of entries that would waste the most area if
// they were put in the same group.
func quadraticSeeds(entries []entry) (int, int) {
	seedA, seedB := 0, 1
	worst := math.Inf(-1)
	for i := 0; i < len(entries)-1; i++ {
		for j := i + 1; j < len(entries); j++ {
			bi, bj := entries[i].box, entries[j].box
			waste := area(combine(bi, bj)) - area(bi) - area(bj)
			if waste > worst {
				worst = waste
				seedA, seedB = i, j
			}
		}
	}
	return seedA, seedB
}

// pickNext finds the remaining entry with the greatest preference for one
// group over the other.
func pickNext(remaining []entry, boxA, boxB BBox) int {
	best := 0
	bestDiff := math.Inf(-1)
	for i, e := range remaining {
		diff := math.Abs(enlargement(boxA, e.box) - enlargement(boxB, e.box))
		if diff > bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return best
}

// linearSeeds picks, along whichever axis separates them most after
// normalising by the spread of all entries, the entry with the lowest high
// side and the entry with the highest low side.
func linearSeeds(entries []entry) (int, int) {
	xLo, xHi, xSep := extremes(entries,
		func(bb BBox) float64 { return bb.MinX },
		func(bb BBox) float64 { return bb.MaxX })
	yLo, yHi, ySep := extremes(entries,
		func(bb BBox) float64 { return bb.MinY },
		func(bb BBox) float64 { return bb.MaxY })
	if ySep > xSep {
		return yLo, yHi
	}
	return xLo, xHi
}

// extremes finds, along one axis, the entry whose high side is lowest and a
// different entry whose low side is highest, along with their separation
// normalised by the width of all entries.
func extremes(entries []entry, lo, hi func(BBox) float64) (int, int, float64) {
	lowestHigh := 0
	minLo, maxHi := lo(entries[0].box), hi(entries[0].box)
	for i, e := range entries {
		if hi(e.box) < hi(entries[lowestHigh].box) {
			lowestHigh = i
		}
		minLo = math.Min(minLo, lo(e.box))
		maxHi = math.Max(maxHi, hi(e.box))
	}

	highestLow := -1
	for i, e := range entries {
		if i == lowestHigh {
			continue
		}
		if highestLow == -1 || lo(e.box) > lo(entries[highestLow].box) {
			highestLow = i
		}
	}

	sep := lo(entries[highestLow].box) - hi(entries[lowestHigh].box)
	if width := maxHi - minLo; width > 0 {
		sep /= width
	}
	return lowestHigh, highestLow, sep
}
