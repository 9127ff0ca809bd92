// Package access computes area accessibility scores and network edge load
// from sampled origins, weighted destinations and a decay function.
package access

import (
	"errors"
	"fmt"
	"math"

	"git.fiblab.net/sim/accessibility/access/sample"
	"git.fiblab.net/sim/accessibility/network"
	"github.com/samber/lo"
)

// Calculator runs accessibility and load computations over one graph.
type Calculator struct {
	g *network.Graph
	r Resolver
}

func NewCalculator(g *network.Graph, r Resolver) *Calculator {
	return &Calculator{g: g, r: r}
}

func (c *Calculator) resolve(xs, ys []float64) ([]int64, error) {
	nodes, err := c.r.Resolve(xs, ys)
	if err != nil {
		if !errors.Is(err, ErrResolution) {
			err = fmt.Errorf("%w: %w", ErrResolution, err)
		}
		return nil, err
	}
	if len(nodes) != len(xs) {
		return nil, fmt.Errorf("%w: resolver returned %d nodes for %d points", ErrResolution, len(nodes), len(xs))
	}
	return nodes, nil
}

// nodeWeights snaps all POIs in one call and sums their weights per node.
// POIs with NaN weight are dropped.
func (c *Calculator) nodeWeights(pois []POI, opts Options) (NodeWeights, error) {
	xs := lo.Map(pois, func(p POI, _ int) float64 { return p.X })
	ys := lo.Map(pois, func(p POI, _ int) float64 { return p.Y })
	nodes, err := c.resolve(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("resolve pois: %w", err)
	}
	w := make(NodeWeights)
	for i, p := range pois {
		v := 1.0
		if opts.UsePOIWeight {
			v = p.Weight
		}
		if math.IsNaN(v) {
			log.Debugf("skip poi %s with NaN weight", p.ID)
			continue
		}
		w[nodes[i]] += v
	}
	return w, nil
}

// sources draws opts.K samples per area and snaps all of them in one call.
// Samples of area i are sources[i*K : (i+1)*K].
func (c *Calculator) sources(areas []Area, opts Options) ([]int64, error) {
	xs := make([]float64, 0, len(areas)*opts.K)
	ys := make([]float64, 0, len(areas)*opts.K)
	seeds := newSeeder(opts.SeedPolicy, opts.Seed)
	for _, a := range areas {
		x, y, err := sample.Points(a.Geometry, opts.K, seeds.next())
		if err != nil {
			return nil, fmt.Errorf("sample area %s: %w", a.ID, err)
		}
		xs = append(xs, x...)
		ys = append(ys, y...)
	}
	nodes, err := c.resolve(xs, ys)
	if err != nil {
		return nil, fmt.Errorf("resolve samples: %w", err)
	}
	return nodes, nil
}
