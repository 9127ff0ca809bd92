package access

import (
	"math"

	"git.fiblab.net/sim/accessibility/network"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Load attributes accessibility flow to edges. For every sample s of every
// area and every node v reachable from it, the contribution
//
//	f(cost(s, v)) * poiWeight(v) * sampleWeight(s)
//
// is added to the LoadAttr of each edge on the shortest path from s to v. The
// sample weight is the area weight (1 unless opts.UseAreaWeight) divided by K;
// samples with zero or NaN weight are skipped. With opts.Normalize every
// contribution is divided by the total non-NaN sample weight.
//
// The result is a tagged deep copy of the graph; the graph of c is not
// modified.
func (c *Calculator) Load(areas []Area, pois []POI, opts Options) (*network.Graph, error) {
	opts, err := opts.validate(areas)
	if err != nil {
		return nil, err
	}
	weights, err := c.nodeWeights(pois, opts)
	if err != nil {
		return nil, err
	}

	g := c.g.Copy()
	g.TagEdges()
	g.InitEdgeAttr(LoadAttr, 0)

	sources, err := c.sources(areas, opts)
	if err != nil {
		return nil, err
	}
	sampleWeights := make([]float64, 0, len(sources))
	for _, a := range areas {
		w := 1.0
		if opts.UseAreaWeight {
			w = a.Weight
		}
		for i := 0; i < opts.K; i++ {
			sampleWeights = append(sampleWeights, w/float64(opts.K))
		}
	}
	mass := lo.SumBy(sampleWeights, func(w float64) float64 {
		if math.IsNaN(w) {
			return 0
		}
		return w
	})
	if opts.Normalize && mass == 0 {
		log.Warn("total sample weight is 0, load is not normalized")
	}
	normalize := opts.Normalize && mass != 0

	// 权重为0或NaN的采样点不计算最短路
	jobs := lo.Filter(lo.Range(len(sources)), func(i int, _ int) bool {
		w := sampleWeights[i]
		return w != 0 && !math.IsNaN(w)
	})
	if len(weights) == 0 {
		log.Warnf("no poi weight on any node, load is 0 everywhere")
		jobs = nil
	}
	log.Infof("load: %d of %d samples to route on %d workers", len(jobs), len(sources), opts.Workers)

	contribution := func(sw float64) func(id int64, cost float64) float64 {
		return func(id int64, cost float64) float64 {
			pw := weights.Get(id)
			if pw == 0 {
				return 0
			}
			v := opts.Decay(cost) * pw * sw
			if normalize {
				v /= mass
			}
			return v
		}
	}

	// 每个worker独占一份边负载缓冲区，结束后由调用方统一合并
	numEdges := g.NumEdges()
	parts := lo.Chunk(jobs, max((len(jobs)+opts.Workers-1)/opts.Workers, 1))
	buffers := make([][]float64, len(parts))
	var eg errgroup.Group
	for w, part := range parts {
		w, part := w, part
		eg.Go(func() error {
			buf := make([]float64, numEdges)
			for n, j := range part {
				tree, err := g.ShortestPathTree(sources[j], opts.Weight)
				if err != nil {
					return err
				}
				tree.Accumulate(contribution(sampleWeights[j]), func(edge int, total float64) {
					buf[edge] += total
				})
				if (n+1)%progressEvery == 0 {
					log.Debugf("load worker %d: %d/%d sources", w, n+1, len(part))
				}
			}
			buffers[w] = buf
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	keys := g.Edges()
	for e, k := range keys {
		var total float64
		for _, buf := range buffers {
			total += buf[e]
		}
		if total == 0 {
			continue
		}
		if err := g.AddEdgeAttr(k, LoadAttr, total); err != nil {
			return nil, err
		}
	}
	log.Infof("load of %d areas over %d edges done", len(areas), len(keys))
	return g, nil
}
