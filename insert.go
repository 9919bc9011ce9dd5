package rtree

import "go.uber.org/zap"

// Insert adds a record to the RTree. Records are identified by ID, but the
// tree doesn't enforce uniqueness. Insert panics if the record's BBox has a
// NaN coordinate or a min greater than its max.
func (t *RTree[ID, T]) Insert(rec Record[ID, T]) {
	if err := rec.BBox.validate(); err != nil {
		fmtPanic("cannot insert record %v: %v", rec.ID, err)
	}
	idx := t.allocRecord(rec)
	t.insertEntry(entry{box: rec.BBox, index: idx}, 1)
	t.size++
}

// Update replaces old with new. It's exactly a Delete of old followed by an
// Insert of new, and reports whether old was found. new is inserted either
// way.
func (t *RTree[ID, T]) Update(old, new Record[ID, T]) bool {
	found := t.Delete(old)
	t.Insert(new)
	return found
}

// insertEntry places an entry into a node at the given level, where leaves
// are level 1 and the root is level t.height. Record entries go to level 1;
// an entry for a subtree of height h goes to level h+1.
func (t *RTree[ID, T]) insertEntry(e entry, level int) {
	n := t.chooseNode(e.box, level)
	t.nodes[n].entries = append(t.nodes[n].entries, e)
	if t.nodes[n].kind == internalKind {
		t.nodes[e.index].parent = n
	}

	nn := noNode
	if len(t.nodes[n].entries) > t.maxEntries {
		nn = t.splitNode(n)
	}
	t.adjustTree(n, nn)
}

// insertSubtree reattaches a detached subtree of the given height so that its
// leaves end up at the same depth as every other leaf.
func (t *RTree[ID, T]) insertSubtree(sub, subHeight int) {
	switch {
	case len(t.nodes[t.root].entries) == 0:
		t.freeNode(t.root)
		t.root = sub
		t.nodes[sub].parent = noNode
		t.height = subHeight
	case subHeight < t.height:
		t.insertEntry(entry{box: t.calculateBound(sub), index: sub}, subHeight+1)
	case subHeight == t.height:
		t.joinRoots(t.root, sub)
	default:
		// The subtree is taller than what's left of the tree, so it becomes
		// the root and the remainder is reinserted into it.
		oldRoot, oldHeight := t.root, t.height
		t.root = sub
		t.nodes[sub].parent = noNode
		t.height = subHeight
		t.insertSubtree(oldRoot, oldHeight)
	}
}

// joinRoots puts a new root above r1 and r2, increasing the tree height.
func (t *RTree[ID, T]) joinRoots(r1, r2 int) {
	root := t.newNode(internalKind, noNode)
	t.appendChild(root, r1)
	t.appendChild(root, r2)
	t.root = root
	t.height++

	t.metrics.grow()
	t.log.Debug("rtree: root grew",
		zap.Int("root", root),
		zap.Int("height", t.height))
}

// adjustTree walks from n up to the root, tightening the box of each node's
// entry in its parent. nn is the node split off from n, or noNode. Each split
// node is added to its parent, which may split in turn.
func (t *RTree[ID, T]) adjustTree(n, nn int) {
	for {
		if n == t.root {
			if nn != noNode {
				t.joinRoots(n, nn)
			}
			return
		}
		parent := t.nodes[n].parent
		pe := t.parentEntry(parent, n)
		t.nodes[parent].entries[pe].box = t.calculateBound(n)

		pp := noNode
		if nn != noNode {
			t.appendChild(parent, nn)
			if len(t.nodes[parent].entries) > t.maxEntries {
				pp = t.splitNode(parent)
			}
		}

		n, nn = parent, pp
	}
}

// chooseNode descends from the root to the node at the given level whose
// entries need the least enlargement to include bb.
func (t *RTree[ID, T]) chooseNode(bb BBox, level int) int {
	node := t.root
	for lvl := t.height; lvl > level; lvl-- {
		entries := t.nodes[node].entries
		bestDelta := enlargement(entries[0].box, bb)
		bestEntry := 0
		for i := 1; i < len(entries); i++ {
			delta := enlargement(entries[i].box, bb)
			if delta < bestDelta {
				bestDelta = delta
				bestEntry = i
			} else if delta == bestDelta && area(entries[i].box) < area(entries[bestEntry].box) {
				// Area is used as a tie breaking if the enlargements are the same.
				bestEntry = i
			}
		}
		node = entries[bestEntry].index
	}
	return node
}
