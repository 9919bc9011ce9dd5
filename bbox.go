package rtree

import (
	"math"
	"strconv"
)

// BBox is an axis-aligned bounding box.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBBox creates a bounding box, checking that each min is no greater than
// its max and that no coordinate is NaN.
func NewBBox(minX, minY, maxX, maxY float64) (BBox, error) {
	bb := BBox{minX, minY, maxX, maxY}
	if err := bb.validate(); err != nil {
		return BBox{}, err
	}
	return bb, nil
}

func (bb BBox) validate() error {
	if math.IsNaN(bb.MinX) || math.IsNaN(bb.MinY) || math.IsNaN(bb.MaxX) || math.IsNaN(bb.MaxY) {
		return fmtErr("bbox %s has a NaN coordinate", bb)
	}
	if bb.MinX > bb.MaxX || bb.MinY > bb.MaxY {
		return fmtErr("bbox %s has min greater than max", bb)
	}
	return nil
}

// Area gives the area of the box.
func (bb BBox) Area() float64 {
	return area(bb)
}

// Combine gives the smallest bounding box containing both bb and other.
func (bb BBox) Combine(other BBox) BBox {
	return combine(bb, other)
}

// Overlaps reports whether the two boxes share at least one point. Boxes that
// only touch along an edge or at a corner overlap.
func (bb BBox) Overlaps(other BBox) bool {
	return overlap(bb, other)
}

// Contains reports whether other lies entirely inside bb.
func (bb BBox) Contains(other BBox) bool {
	return bb.MinX <= other.MinX && bb.MaxX >= other.MaxX &&
		bb.MinY <= other.MinY && bb.MaxY >= other.MaxY
}

// Center gives the midpoint of the box.
func (bb BBox) Center() (x, y float64) {
	return (bb.MinX + bb.MaxX) / 2, (bb.MinY + bb.MaxY) / 2
}

// DistanceSquared gives the squared distance from the point (x, y) to the
// closest point of the box. It is zero when the point is inside the box.
func (bb BBox) DistanceSquared(x, y float64) float64 {
	dx := clampDelta(x, bb.MinX, bb.MaxX)
	dy := clampDelta(y, bb.MinY, bb.MaxY)
	return dx*dx + dy*dy
}

// String formats the box as [minX,minY,maxX,maxY].
func (bb BBox) String() string {
	b := make([]byte, 0, 64)
	b = append(b, '[')
	b = strconv.AppendFloat(b, bb.MinX, 'g', -1, 64)
	b = append(b, ',')
	b = strconv.AppendFloat(b, bb.MinY, 'g', -1, 64)
	b = append(b, ',')
	b = strconv.AppendFloat(b, bb.MaxX, 'g', -1, 64)
	b = append(b, ',')
	b = strconv.AppendFloat(b, bb.MaxY, 'g', -1, 64)
	b = append(b, ']')
	return string(b)
}

// clampDelta gives the distance from v to the interval [lo, hi] along one
// axis.
func clampDelta(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}

// combine gives the smallest bounding box containing both bbox1 and bbox2.
func combine(bbox1, bbox2 BBox) BBox {
	return BBox{
		MinX: math.Min(bbox1.MinX, bbox2.MinX),
		MinY: math.Min(bbox1.MinY, bbox2.MinY),
		MaxX: math.Max(bbox1.MaxX, bbox2.MaxX),
		MaxY: math.Max(bbox1.MaxY, bbox2.MaxY),
	}
}

// enlargement returns how much additional area the existing BBox would have to
// enlarge by to accommodate the additional BBox.
func enlargement(existing, additional BBox) float64 {
	return area(combine(existing, additional)) - area(existing)
}

func area(bb BBox) float64 {
	return (bb.MaxX - bb.MinX) * (bb.MaxY - bb.MinY)
}

func overlap(bbox1, bbox2 BBox) bool {
	return (bbox1.MinX <= bbox2.MaxX) && (bbox1.MaxX >= bbox2.MinX) &&
		(bbox1.MinY <= bbox2.MaxY) && (bbox1.MaxY >= bbox2.MinY)
}
