package rtree

import (
	"cmp"

	"go.uber.org/zap"
)

// Record is an item stored in an RTree. The tree keeps a copy of the record,
// so the BBox must not change while the record is in the tree; to move a
// record use Update.
type Record[ID cmp.Ordered, T any] struct {
	// ID identifies the record. Delete locates records by ID, and equal
	// distances in nearest neighbour results are ordered by ID.
	ID ID
	// BBox bounds the record.
	BBox BBox
	// Payload is carried alongside the record and never inspected.
	Payload T
}

// nodeKind tags a node as holding either records or other nodes. It's set
// when the node is created and never changes.
type nodeKind uint8

const (
	leafKind nodeKind = iota + 1
	internalKind
)

func (k nodeKind) String() string {
	switch k {
	case leafKind:
		return "leaf"
	case internalKind:
		return "internal"
	default:
		return "invalid"
	}
}

// noNode stands in for a missing node index, e.g. the parent of the root.
const noNode = -1

// node is a node in an R-Tree. Nodes can either be leaf nodes holding entries
// for records, or internal nodes holding entries for more nodes.
type node struct {
	kind    nodeKind
	entries []entry
	parent  int
}

// entry is an entry under a node, leading either to a record or to another
// node.
type entry struct {
	box BBox

	// For leaf nodes, this is a slot in the record arena. For internal nodes,
	// it's the child node.
	index int
}

// RTree is an in-memory R-Tree data structure. Nodes and records live in
// arenas and refer to each other by index. An RTree must be created with New
// and is not safe for concurrent use.
type RTree[ID cmp.Ordered, T any] struct {
	nodes     []node
	freeNodes []int

	records     []Record[ID, T]
	freeRecords []int

	root   int
	height int
	size   int

	minEntries int
	maxEntries int
	split      SplitPolicy

	log     *zap.Logger
	metrics *instruments
}

// New creates an empty RTree. Every node other than the root holds between
// minEntries and maxEntries entries. maxEntries must be at least 4, and
// minEntries must be at least 1 and no more than half of maxEntries.
func New[ID cmp.Ordered, T any](minEntries, maxEntries int, opts ...Option) (*RTree[ID, T], error) {
	if maxEntries < 4 {
		return nil, wrapErr(ErrInvalidConfig, "max entries must be at least 4 (got %d)", maxEntries)
	}
	if minEntries < 1 {
		return nil, wrapErr(ErrInvalidConfig, "min entries must be at least 1 (got %d)", minEntries)
	}
	if minEntries > maxEntries/2 {
		return nil, wrapErr(ErrInvalidConfig,
			"min entries must be less than or equal to half of the max entries (got min %d, max %d)",
			minEntries, maxEntries)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.split.valid() {
		return nil, wrapErr(ErrInvalidConfig, "unknown split policy %d", int(o.split))
	}
	ins, err := newInstruments(o.meter)
	if err != nil {
		return nil, wrapErr(ErrInvalidConfig, "metric instruments: %v", err)
	}

	t := &RTree[ID, T]{
		minEntries: minEntries,
		maxEntries: maxEntries,
		split:      o.split,
		log:        o.logger,
		metrics:    ins,
	}
	t.root = t.newNode(leafKind, noNode)
	t.height = 1
	return t, nil
}

// Len gives the number of records in the tree.
func (t *RTree[ID, T]) Len() int {
	return t.size
}

// Height gives the number of nodes on any path from the root to a leaf. An
// empty tree has height 1.
func (t *RTree[ID, T]) Height() int {
	return t.height
}

// Extent gives the Box that most closely bounds the RTree. If the RTree is
// empty, then false is returned.
func (t *RTree[ID, T]) Extent() (BBox, bool) {
	if len(t.nodes[t.root].entries) == 0 {
		return BBox{}, false
	}
	return t.calculateBound(t.root), true
}

// newNode takes a node from the free list, or grows the arena if the free list
// is empty.
func (t *RTree[ID, T]) newNode(kind nodeKind, parent int) int {
	n := node{
		kind:    kind,
		entries: make([]entry, 0, t.maxEntries+1),
		parent:  parent,
	}
	if k := len(t.freeNodes); k > 0 {
		idx := t.freeNodes[k-1]
		t.freeNodes = t.freeNodes[:k-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *RTree[ID, T]) freeNode(n int) {
	t.nodes[n] = node{parent: noNode}
	t.freeNodes = append(t.freeNodes, n)
}

func (t *RTree[ID, T]) allocRecord(rec Record[ID, T]) int {
	if k := len(t.freeRecords); k > 0 {
		idx := t.freeRecords[k-1]
		t.freeRecords = t.freeRecords[:k-1]
		t.records[idx] = rec
		return idx
	}
	t.records = append(t.records, rec)
	return len(t.records) - 1
}

func (t *RTree[ID, T]) freeRecord(idx int) {
	var zero Record[ID, T]
	t.records[idx] = zero
	t.freeRecords = append(t.freeRecords, idx)
}

// calculateBound calculates the smallest bounding box that fits a node. The
// node must have at least one entry.
func (t *RTree[ID, T]) calculateBound(n int) BBox {
	entries := t.nodes[n].entries
	bb := entries[0].box
	for _, e := range entries[1:] {
		bb = combine(bb, e.box)
	}
	return bb
}

// appendChild adds an entry for child to the internal node parent and links
// the child back to it.
func (t *RTree[ID, T]) appendChild(parent, child int) {
	t.nodes[parent].entries = append(t.nodes[parent].entries, entry{
		box:   t.calculateBound(child),
		index: child,
	})
	t.nodes[child].parent = parent
}

// parentEntry finds the position of the entry for child within parent.
func (t *RTree[ID, T]) parentEntry(parent, child int) int {
	for i, e := range t.nodes[parent].entries {
		if e.index == child {
			return i
		}
	}
	fmtPanic("could not find entry for node %d in parent %d", child, parent)
	return -1
}
