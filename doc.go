// Package rtree provides a dynamic, in-memory R-Tree: a balanced multi-way
// tree of bounding boxes supporting insertion, deletion and update of records
// alongside rectangular window, circular range and k-nearest-neighbour
// queries.
//
// Nodes split with Guttman's quadratic algorithm by default (linear split is
// available through WithSplitPolicy), and deletions condense under-full nodes
// by reinserting their entries.
//
// An RTree is not safe for concurrent use. Callers sharing a tree between
// goroutines must serialise access themselves.
package rtree
