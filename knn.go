package rtree

import (
	"cmp"
	"container/heap"
)

// candidate is a pending entry in a nearest neighbour search.
type candidate[ID cmp.Ordered] struct {
	dist     float64
	isRecord bool
	id       ID  // only set for records
	index    int // record slot or node index
}

// candidates is a min-heap of entries ordered by distance. At equal distance
// nodes come before records, so that every record at a given distance is in
// the heap before the first of them is popped, and records are ordered by ID.
type candidates[ID cmp.Ordered] []candidate[ID]

func (c candidates[ID]) Len() int { return len(c) }

func (c candidates[ID]) Less(i, j int) bool {
	a, b := &c[i], &c[j]
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	if a.isRecord != b.isRecord {
		return !a.isRecord
	}
	if a.isRecord && a.id != b.id {
		return a.id < b.id
	}
	return a.index < b.index
}

func (c candidates[ID]) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

func (c *candidates[ID]) Push(x interface{}) {
	*c = append(*c, x.(candidate[ID]))
}

func (c *candidates[ID]) Pop() interface{} {
	old := *c
	n := len(old)
	x := old[n-1]
	*c = old[:n-1]
	return x
}

// Nearest gives the record closest to the point (x, y), or false if the tree
// is empty.
func (t *RTree[ID, T]) Nearest(x, y float64) (Record[ID, T], bool) {
	recs := t.nearest(KNearest{X: x, Y: y, K: 1})
	if len(recs) == 0 {
		var zero Record[ID, T]
		return zero, false
	}
	return recs[0], true
}

// nearest runs a best-first search: the closest pending entry is always
// expanded next, so records come out of the heap in distance order and the
// search stops as soon as q.K of them have been seen.
func (t *RTree[ID, T]) nearest(q KNearest) []Record[ID, T] {
	results := make([]Record[ID, T], 0)
	if q.K <= 0 || t.size == 0 {
		return results
	}

	pq := make(candidates[ID], 0, t.maxEntries)
	t.pushEntries(&pq, t.root, q.X, q.Y)
	visits := 1
	for pq.Len() > 0 && len(results) < q.K {
		c := heap.Pop(&pq).(candidate[ID])
		if c.isRecord {
			results = append(results, t.records[c.index])
			continue
		}
		t.pushEntries(&pq, c.index, q.X, q.Y)
		visits++
	}
	t.metrics.searched(visits)
	return results
}

func (t *RTree[ID, T]) pushEntries(pq *candidates[ID], n int, x, y float64) {
	nd := &t.nodes[n]
	isRecord := nd.kind == leafKind
	for _, e := range nd.entries {
		c := candidate[ID]{
			dist:     e.box.DistanceSquared(x, y),
			isRecord: isRecord,
			index:    e.index,
		}
		if isRecord {
			c.id = t.records[e.index].ID
		}
		heap.Push(pq, c)
	}
}
