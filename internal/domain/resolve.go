package domain

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
)

const (
	// IndexThreshold is the table size above which NewResolver builds a
	// quadtree instead of scanning linearly.
	IndexThreshold = 2048

	// CoveragePadding widens the reference bounding box, in degrees, when
	// deciding whether a point is inside the covered region.
	CoveragePadding = 0.25
)

// Resolver finds the reference point closest to a coordinate.
type Resolver interface {
	// Nearest returns the closest reference point. Ties go to the entry that
	// comes first in table order.
	Nearest(p orb.Point) (ReferencePoint, error)

	// Covers reports whether p lies within the padded bounding box of the
	// reference set. Nearest answers regardless; this only flags accuracy.
	Covers(p orb.Point) bool
}

// NewResolver picks a linear scan for small tables and a quadtree for large ones.
func NewResolver(table ReferenceTable) Resolver {
	if len(table) > IndexThreshold {
		return NewIndexedResolver(table)
	}
	return NewNearestResolver(table)
}

// Nearest returns the name of the reference point closest to p.
func Nearest(p orb.Point, table ReferenceTable) (string, error) {
	ref, err := NewNearestResolver(table).Nearest(p)
	if err != nil {
		return "", err
	}
	return ref.Name, nil
}

// NearestResolver scans the whole table on every call.
type NearestResolver struct {
	table    ReferenceTable
	coverage orb.Bound
}

// NewNearestResolver creates a linear-scan resolver over table.
func NewNearestResolver(table ReferenceTable) *NearestResolver {
	return &NearestResolver{
		table:    table,
		coverage: table.Bound().Pad(CoveragePadding),
	}
}

func (r *NearestResolver) Nearest(p orb.Point) (ReferencePoint, error) {
	if len(r.table) == 0 {
		return ReferencePoint{}, ErrEmptyReferenceSet
	}
	best := 0
	bestDist := planar.DistanceSquared(p, r.table[0].Point)
	for i := 1; i < len(r.table); i++ {
		// Strict comparison keeps the earliest entry on ties.
		if d := planar.DistanceSquared(p, r.table[i].Point); d < bestDist {
			best, bestDist = i, d
		}
	}
	return r.table[best], nil
}

func (r *NearestResolver) Covers(p orb.Point) bool {
	return len(r.table) > 0 && r.coverage.Contains(p)
}

// IndexedResolver answers nearest queries from a quadtree. Results, including
// tie-breaks, match NearestResolver.
type IndexedResolver struct {
	table    ReferenceTable
	tree     *quadtree.Quadtree
	coverage orb.Bound
}

type indexedPoint struct {
	index int
	point orb.Point
}

func (ip indexedPoint) Point() orb.Point { return ip.point }

// NewIndexedResolver builds the quadtree once for table.
func NewIndexedResolver(table ReferenceTable) *IndexedResolver {
	bound := table.Bound()
	r := &IndexedResolver{
		table:    table,
		coverage: bound.Pad(CoveragePadding),
	}
	if len(table) == 0 {
		return r
	}

	r.tree = quadtree.New(bound.Pad(1e-6))
	for i, ref := range table {
		// Every point is inside the padded table bound, so Add cannot fail.
		_ = r.tree.Add(indexedPoint{index: i, point: ref.Point})
	}
	return r
}

func (r *IndexedResolver) Nearest(p orb.Point) (ReferencePoint, error) {
	if r.tree == nil {
		return ReferencePoint{}, ErrEmptyReferenceSet
	}

	found := r.tree.Find(p)
	if found == nil {
		return ReferencePoint{}, ErrEmptyReferenceSet
	}

	// Collect every point that could tie with the one found and pick the
	// lowest table index among the closest.
	radius := math.Sqrt(planar.DistanceSquared(p, found.Point())) + 1e-9
	window := orb.Bound{
		Min: orb.Point{p.X() - radius, p.Y() - radius},
		Max: orb.Point{p.X() + radius, p.Y() + radius},
	}

	best := found.(indexedPoint).index
	bestDist := planar.DistanceSquared(p, found.Point())
	for _, c := range r.tree.InBound(nil, window) {
		ip := c.(indexedPoint)
		d := planar.DistanceSquared(p, ip.point)
		if d < bestDist || (d == bestDist && ip.index < best) {
			best, bestDist = ip.index, d
		}
	}
	return r.table[best], nil
}

func (r *IndexedResolver) Covers(p orb.Point) bool {
	return len(r.table) > 0 && r.coverage.Contains(p)
}
