package network

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

type nodePoint struct {
	x, y float64
	id   int64
}

func (p nodePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nodePoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (p nodePoint) Dims() int { return 2 }

// Distance returns the squared euclidean distance.
func (p nodePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(nodePoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type nodePoints []nodePoint

func (p nodePoints) Index(i int) kdtree.Comparable { return p[i] }
func (p nodePoints) Len() int                       { return len(p) }
func (p nodePoints) Pivot(d kdtree.Dim) int {
	plane := nodePlane{nodePoints: p, dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfRandoms(plane, 100))
}
func (p nodePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// nodePlane按某一维度排序，供kdtree选取中位数
type nodePlane struct {
	nodePoints
	dim kdtree.Dim
}

func (p nodePlane) Less(i, j int) bool {
	return p.nodePoints[i].Compare(p.nodePoints[j], p.dim) < 0
}
func (p nodePlane) Swap(i, j int) {
	p.nodePoints[i], p.nodePoints[j] = p.nodePoints[j], p.nodePoints[i]
}
func (p nodePlane) Slice(start, end int) kdtree.SortSlicer {
	p.nodePoints = p.nodePoints[start:end]
	return p
}

var _ sort.Interface = nodePlane{}

// Index snaps coordinates to the nearest graph node.
type Index struct {
	tree *kdtree.Tree
	// MaxDistance > 0 rejects points whose nearest node is further away.
	MaxDistance float64
}

// NewIndex builds a 2-d tree over the node coordinates of g. Nodes added to g
// afterwards are not indexed.
func NewIndex(g *Graph) *Index {
	token := g.mu.RLock()
	pts := make(nodePoints, len(g.nodes))
	for i, n := range g.nodes {
		pts[i] = nodePoint{x: n.p.X, y: n.p.Y, id: n.id}
	}
	g.mu.RUnlock(token)
	return &Index{tree: kdtree.New(pts, false)}
}

func (idx *Index) Len() int {
	return idx.tree.Len()
}

// Resolve returns the nearest node for every (xs[i], ys[i]), order preserved.
// Any point that cannot be matched fails the whole call with ErrResolution.
func (idx *Index) Resolve(xs, ys []float64) ([]int64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values but %d y values", ErrResolution, len(xs), len(ys))
	}
	if idx.tree.Len() == 0 && len(xs) > 0 {
		return nil, fmt.Errorf("%w: empty graph", ErrResolution)
	}
	maxDist2 := idx.MaxDistance * idx.MaxDistance
	nodes := make([]int64, len(xs))
	for i := range xs {
		x, y := xs[i], ys[i]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: invalid coordinate (%v, %v)", ErrResolution, x, y)
		}
		c, d2 := idx.tree.Nearest(nodePoint{x: x, y: y, id: -1})
		if c == nil {
			return nil, fmt.Errorf("%w: no node near (%v, %v)", ErrResolution, x, y)
		}
		if idx.MaxDistance > 0 && d2 > maxDist2 {
			return nil, fmt.Errorf("%w: nearest node to (%v, %v) is %.3f away, limit %.3f",
				ErrResolution, x, y, math.Sqrt(d2), idx.MaxDistance)
		}
		nodes[i] = c.(nodePoint).id
	}
	return nodes, nil
}
