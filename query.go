package rtree

import "math"

// Query is one of Window, Range or KNearest.
type Query interface {
	query()
}

// Window matches records whose box overlaps the rectangle.
type Window struct {
	MinX, MinY, MaxX, MaxY float64
}

// Range matches records whose box comes within Radius of the centre point.
type Range struct {
	CenterX, CenterY float64
	Radius           float64
}

// KNearest matches the K records closest to the point, measuring from the
// point to the closest part of each record's box. Results are ordered by
// distance, with equal distances ordered by record ID.
type KNearest struct {
	X, Y float64
	K    int
}

func (Window) query()   {}
func (Range) query()    {}
func (KNearest) query() {}

func (w Window) bbox() BBox {
	return BBox{MinX: w.MinX, MinY: w.MinY, MaxX: w.MaxX, MaxY: w.MaxY}
}

// Search runs a query and returns the matching records. The order of Window
// and Range results is not defined. An empty tree gives an empty result.
func (t *RTree[ID, T]) Search(q Query) []Record[ID, T] {
	if knn, ok := q.(KNearest); ok {
		return t.nearest(knn)
	}
	results := make([]Record[ID, T], 0)
	_ = t.SearchFunc(q, func(rec Record[ID, T]) error {
		results = append(results, rec)
		return nil
	})
	return results
}

// SearchFunc runs a query, calling fn with each matching record. If fn
// returns an error then the search is terminated early. Any error returned
// from fn is returned by SearchFunc, except for the special Stop sentinel
// error (in which case nil is returned).
func (t *RTree[ID, T]) SearchFunc(q Query, fn func(Record[ID, T]) error) error {
	var match func(BBox) bool
	switch q := q.(type) {
	case Window:
		bb := q.bbox()
		match = func(e BBox) bool { return overlap(e, bb) }
	case Range:
		if q.Radius < 0 || math.IsNaN(q.Radius) {
			return nil
		}
		r2 := q.Radius * q.Radius
		match = func(e BBox) bool { return e.DistanceSquared(q.CenterX, q.CenterY) <= r2 }
	case KNearest:
		for _, rec := range t.nearest(q) {
			if err := fn(rec); err == Stop {
				return nil
			} else if err != nil {
				return err
			}
		}
		return nil
	default:
		fmtPanic("unknown query type %T", q)
	}

	var visits int
	err := t.visit(t.root, match, fn, &visits)
	t.metrics.searched(visits)
	if err == Stop {
		return nil
	}
	return err
}

// visit recurses into every entry of node n whose box matches, calling fn for
// matching records.
func (t *RTree[ID, T]) visit(n int, match func(BBox) bool, fn func(Record[ID, T]) error, visits *int) error {
	*visits++
	nd := &t.nodes[n]
	for _, e := range nd.entries {
		if !match(e.box) {
			continue
		}
		if nd.kind == leafKind {
			if err := fn(t.records[e.index]); err != nil {
				return err
			}
		} else if err := t.visit(e.index, match, fn, visits); err != nil {
			return err
		}
	}
	return nil
}
