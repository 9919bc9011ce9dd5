package rtree

import (
	"slices"

	"go.uber.org/zap"
)

// Delete removes a single record with a matching ID from the RTree. The
// record's BBox specifies where to search in the RTree (it must intersect the
// box the record was inserted with). The returned bool indicates whether or
// not the record could be found and thus removed. Deleting a record that
// isn't present does nothing.
func (t *RTree[ID, T]) Delete(rec Record[ID, T]) bool {
	// D1 [Find node containing record]
	leaf, entryIdx := t.findLeaf(t.root, rec)
	if leaf == noNode {
		return false
	}

	// D2 [Delete record]
	recIdx := t.nodes[leaf].entries[entryIdx].index
	t.nodes[leaf].entries = slices.Delete(t.nodes[leaf].entries, entryIdx, entryIdx+1)
	t.freeRecord(recIdx)
	t.size--

	// D3 [Propagate changes]
	t.condenseTree(leaf)

	// D4 [Shorten tree]
	for t.shortenable() {
		old := t.root
		t.root = t.nodes[old].entries[0].index
		t.nodes[t.root].parent = noNode
		t.freeNode(old)
		t.height--

		t.metrics.shrink(1)
		t.log.Debug("rtree: root shrank",
			zap.Int("root", t.root),
			zap.Int("height", t.height))
	}
	return true
}

// shortenable reports whether the root has a single entry leading to another
// internal node. A root whose only child is a leaf is kept.
func (t *RTree[ID, T]) shortenable() bool {
	root := &t.nodes[t.root]
	if root.kind != internalKind || len(root.entries) != 1 {
		return false
	}
	return t.nodes[root.entries[0].index].kind == internalKind
}

// findLeaf finds the leaf holding the entry for rec, visiting every branch
// whose box overlaps rec's box. It returns noNode if there is no such leaf.
func (t *RTree[ID, T]) findLeaf(n int, rec Record[ID, T]) (leaf, entryIdx int) {
	nd := &t.nodes[n]
	for i, e := range nd.entries {
		if !overlap(e.box, rec.BBox) {
			continue
		}
		if nd.kind == leafKind {
			if t.records[e.index].ID == rec.ID {
				return n, i
			}
			continue
		}
		if leaf, entryIdx := t.findLeaf(e.index, rec); leaf != noNode {
			return leaf, entryIdx
		}
	}
	return noNode, -1
}

// orphan is a node removed from the tree by condenseTree, along with its
// level (leaves are level 1).
type orphan struct {
	node  int
	level int
}

// condenseTree walks from leaf up to the root, removing nodes that have
// fallen below the minimum entry count and tightening the boxes of those that
// remain. Entries of removed nodes are then reinserted at their original
// level.
func (t *RTree[ID, T]) condenseTree(leaf int) {
	// CT1 [Initialise]
	var eliminated []orphan
	current, level := leaf, 1

	for current != t.root {
		// CT2 [Find Parent Entry]
		parent := t.nodes[current].parent
		pe := t.parentEntry(parent, current)

		if len(t.nodes[current].entries) < t.minEntries {
			// CT3 [Eliminate Under-Full Node]
			eliminated = append(eliminated, orphan{node: current, level: level})
			t.nodes[parent].entries = slices.Delete(t.nodes[parent].entries, pe, pe+1)
		} else {
			// CT4 [Adjust Covering Rectangle]
			t.nodes[parent].entries[pe].box = t.calculateBound(current)
		}

		// CT5 [Move Up One Level In Tree]
		current = parent
		level++
	}

	if len(eliminated) == 0 {
		return
	}

	// Every child of the root was eliminated, so start again from an empty
	// leaf root.
	if root := t.nodes[t.root]; root.kind == internalKind && len(root.entries) == 0 {
		t.metrics.shrink(t.height - 1)
		t.freeNode(t.root)
		t.root = t.newNode(leafKind, noNode)
		t.height = 1
	}

	// CT6 [Reinsert orphaned entries]
	// Taller subtrees go first, so that the record entries of eliminated
	// leaves never end up in a node that is later pushed below a new root.
	var reinserted int
	for i := len(eliminated) - 1; i >= 0; i-- {
		o := eliminated[i]
		kind := t.nodes[o.node].kind
		entries := t.nodes[o.node].entries
		t.freeNode(o.node)
		for _, e := range entries {
			if kind == leafKind {
				t.insertEntry(e, 1)
			} else {
				t.insertSubtree(e.index, o.level-1)
			}
			reinserted++
		}
	}

	t.metrics.reinserted(reinserted)
	t.log.Debug("rtree: condensed tree",
		zap.Int("eliminated_nodes", len(eliminated)),
		zap.Int("reinserted_entries", reinserted),
		zap.Int("height", t.height))
}
