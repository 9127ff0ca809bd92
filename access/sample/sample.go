// Package sample draws uniform random points inside polygons.
package sample

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"
)

// 每轮抽样次数上限，float64可精确计数的最大整数
const maxBatch = 1 << 53

var (
	ErrDegenerate          = errors.New("degenerate polygon")
	ErrInvalidCount        = errors.New("sample count must be positive")
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
)

// shape is a polygon set normalised for point-in-polygon tests.
type shape struct {
	layout   geom.Layout
	polygons []*geom.Polygon
	bounds   *geom.Bounds
}

func newShape(g geom.T) (*shape, error) {
	s := &shape{}
	switch g := g.(type) {
	case *geom.Polygon:
		s.polygons = []*geom.Polygon{g}
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			s.polygons = append(s.polygons, g.Polygon(i))
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}
	s.layout = g.Layout()
	s.bounds = g.Bounds()
	return s, nil
}

// area is the sum of outer ring areas minus hole areas, independent of ring
// orientation.
func (s *shape) area() float64 {
	var a float64
	for _, p := range s.polygons {
		for i := 0; i < p.NumLinearRings(); i++ {
			ra := math.Abs(xy.SignedArea(s.layout, p.LinearRing(i).FlatCoords()))
			if i == 0 {
				a += ra
			} else {
				a -= ra
			}
		}
	}
	return a
}

func (s *shape) contains(x, y float64) bool {
	c := make(geom.Coord, s.layout.Stride())
	c[0], c[1] = x, y
	for _, p := range s.polygons {
		if p.NumLinearRings() == 0 {
			continue
		}
		if xy.LocatePointInRing(s.layout, c, p.LinearRing(0).FlatCoords()) == location.Exterior {
			continue
		}
		inHole := false
		for i := 1; i < p.NumLinearRings(); i++ {
			// 洞的边界视为多边形内部
			if xy.LocatePointInRing(s.layout, c, p.LinearRing(i).FlatCoords()) == location.Interior {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// Contains reports whether (x, y) lies inside g or on its boundary. Points in
// the interior of a hole are outside. Unsupported geometries contain nothing.
func Contains(g geom.T, x, y float64) bool {
	s, err := newShape(g)
	if err != nil {
		return false
	}
	return s.contains(x, y)
}

// Points returns exactly n points drawn uniformly inside g by rejection
// sampling over its bounding box. Each attempt draws
// round(n * (1 + 2/ratio)) candidates, ratio being area over bbox area, and
// the whole attempt is repeated until at least n land inside; surplus points
// are dropped. There is no attempt cap, so thin slivers can be slow.
//
// The output depends only on g, n and the state of rng.
func Points(g geom.T, n int, rng *rand.Rand) (xs, ys []float64, err error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	s, err := newShape(g)
	if err != nil {
		return nil, nil, err
	}
	if s.bounds.IsEmpty() {
		return nil, nil, fmt.Errorf("%w: empty geometry", ErrDegenerate)
	}
	minX, minY := s.bounds.Min(0), s.bounds.Min(1)
	w, h := s.bounds.Max(0)-minX, s.bounds.Max(1)-minY
	area := s.area()
	if w <= 0 || h <= 0 || !(area > 0) {
		return nil, nil, fmt.Errorf("%w: area %v, bbox %vx%v", ErrDegenerate, area, w, h)
	}
	ratio := area / (w * h)
	// batch只作为每轮抽样次数，细长多边形下可能极大
	batch := math.Min(math.Round(float64(n)*(1+2/ratio)), maxBatch)

	xs = make([]float64, 0, n)
	ys = make([]float64, 0, n)
	for {
		xs, ys = xs[:0], ys[:0]
		for i := 0.0; i < batch; i++ {
			x := minX + rng.Float64()*w
			y := minY + rng.Float64()*h
			// 多余的点直接丢弃，仍抽满整轮以保持随机数序列
			if len(xs) < n && s.contains(x, y) {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		if len(xs) >= n {
			return xs[:n:n], ys[:n:n], nil
		}
	}
}
