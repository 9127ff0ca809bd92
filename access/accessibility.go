package access

import (
	"git.fiblab.net/sim/accessibility/access/decay"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

// Accessibility scores every area by the mean, over its K samples, of the
// POI-weighted decayed cost to every destination node:
//
//	score = 1/K * sum_s sum_j weight_j * f(cost(s, j))
//
// Areas are processed in batches of at most opts.BatchCap, one cost matrix per
// batch, to bound memory. Any resolution failure aborts the run.
func (c *Calculator) Accessibility(areas []Area, pois []POI, opts Options) (map[string]float64, error) {
	opts, err := opts.validate(areas)
	if err != nil {
		return nil, err
	}
	weights, err := c.nodeWeights(pois, opts)
	if err != nil {
		return nil, err
	}
	// 先采样并匹配节点，无目标时采样失败同样中止
	sources, err := c.sources(areas, opts)
	if err != nil {
		return nil, err
	}
	targets, vals := weights.Targets()
	scores := make(map[string]float64, len(areas))
	if len(targets) == 0 {
		log.Warnf("no destination with positive weight among %d pois, all scores are 0", len(pois))
		for _, a := range areas {
			scores[a.ID] = 0
		}
		return scores, nil
	}

	k := opts.K
	row := make([]float64, len(targets))
	offset := 0
	batches := lo.Chunk(areas, opts.BatchCap)
	for b, batch := range batches {
		costs, err := c.g.CostMatrix(sources[offset*k:(offset+len(batch))*k], targets, opts.Weight)
		if err != nil {
			return nil, err
		}
		for i, a := range batch {
			var total float64
			for _, ds := range costs[i*k : (i+1)*k] {
				decay.ApplyTo(row, opts.Decay, ds)
				total += floats.Dot(row, vals)
			}
			scores[a.ID] = total / float64(k)
		}
		offset += len(batch)
		log.Debugf("accessibility batch %d/%d: %d areas", b+1, len(batches), len(batch))
	}
	log.Infof("accessibility of %d areas to %d destination nodes done", len(areas), len(targets))
	return scores, nil
}
