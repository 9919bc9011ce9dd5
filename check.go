package rtree

// Check validates the structural invariants of the tree: every internal
// entry's box is exactly the bound of its child, every node other than the
// root holds between the minimum and maximum number of entries, every leaf is
// at the same depth, parent links agree with child entries, and the record
// count matches. The returned error wraps ErrCorrupt.
func (t *RTree[ID, T]) Check() error {
	if t.root < 0 || t.root >= len(t.nodes) {
		return wrapErr(ErrCorrupt, "root index %d out of range", t.root)
	}
	if p := t.nodes[t.root].parent; p != noNode {
		return wrapErr(ErrCorrupt, "root %d has parent %d", t.root, p)
	}
	root := t.nodes[t.root]
	if root.kind == internalKind && len(root.entries) == 0 {
		return wrapErr(ErrCorrupt, "internal root %d has no entries", t.root)
	}

	seen := make(map[int]bool)
	records, err := t.checkNode(t.root, 1, seen)
	if err != nil {
		return err
	}
	if records != t.size {
		return wrapErr(ErrCorrupt, "found %d records but size is %d", records, t.size)
	}
	return nil
}

func (t *RTree[ID, T]) checkNode(n, depth int, seen map[int]bool) (int, error) {
	if seen[n] {
		return 0, wrapErr(ErrCorrupt, "node %d reached more than once", n)
	}
	seen[n] = true

	nd := &t.nodes[n]
	count := len(nd.entries)
	if count > t.maxEntries {
		return 0, wrapErr(ErrCorrupt, "node %d has %d entries, more than %d", n, count, t.maxEntries)
	}
	if n != t.root && count < t.minEntries {
		return 0, wrapErr(ErrCorrupt, "node %d has %d entries, fewer than %d", n, count, t.minEntries)
	}

	switch nd.kind {
	case leafKind:
		if depth != t.height {
			return 0, wrapErr(ErrCorrupt, "leaf %d at depth %d but height is %d", n, depth, t.height)
		}
		for i, e := range nd.entries {
			if e.index < 0 || e.index >= len(t.records) {
				return 0, wrapErr(ErrCorrupt, "leaf %d entry %d has record slot %d out of range", n, i, e.index)
			}
			if rb := t.records[e.index].BBox; rb != e.box {
				return 0, wrapErr(ErrCorrupt, "leaf %d entry %d has box %s but record box is %s", n, i, e.box, rb)
			}
		}
		return count, nil
	case internalKind:
		if depth >= t.height {
			return 0, wrapErr(ErrCorrupt, "internal node %d at depth %d but height is %d", n, depth, t.height)
		}
		var total int
		for i, e := range nd.entries {
			if e.index < 0 || e.index >= len(t.nodes) {
				return 0, wrapErr(ErrCorrupt, "node %d entry %d has child %d out of range", n, i, e.index)
			}
			child := &t.nodes[e.index]
			if child.parent != n {
				return 0, wrapErr(ErrCorrupt, "node %d has parent %d, expected %d", e.index, child.parent, n)
			}
			if len(child.entries) == 0 {
				return 0, wrapErr(ErrCorrupt, "node %d has no entries", e.index)
			}
			if bound := t.calculateBound(e.index); bound != e.box {
				return 0, wrapErr(ErrCorrupt,
					"node %d entry %d has box %s, expected smallest box %s covering its child", n, i, e.box, bound)
			}
			sub, err := t.checkNode(e.index, depth+1, seen)
			if err != nil {
				return 0, err
			}
			total += sub
		}
		return total, nil
	default:
		return 0, wrapErr(ErrCorrupt, "node %d has invalid kind %d", n, nd.kind)
	}
}

// Stats summarises the shape of an RTree.
type Stats struct {
	Records  int
	Nodes    int
	Leaves   int
	Height   int
	MaxDepth int
	// FillRatio is the mean number of entries per node divided by the
	// maximum number of entries.
	FillRatio float64
}

// Stats walks the tree and reports its shape.
func (t *RTree[ID, T]) Stats() Stats {
	s := Stats{Records: t.size, Height: t.height}
	var entries int
	var recurse func(n, depth int)
	recurse = func(n, depth int) {
		s.Nodes++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		nd := &t.nodes[n]
		entries += len(nd.entries)
		if nd.kind == leafKind {
			s.Leaves++
			return
		}
		for _, e := range nd.entries {
			recurse(e.index, depth+1)
		}
	}
	recurse(t.root, 1)
	s.FillRatio = float64(entries) / float64(s.Nodes*t.maxEntries)
	return s
}
