package access

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"git.fiblab.net/sim/accessibility/access/decay"
	"github.com/samber/lo"
	"github.com/twpayne/go-geom"
)

// Area is an origin zone such as a census tract.
type Area struct {
	ID       string
	Geometry geom.T // *geom.Polygon or *geom.MultiPolygon
	Weight   float64
}

// POI is a weighted destination point.
type POI struct {
	ID     string
	X, Y   float64
	Weight float64
}

// Resolver snaps coordinates to graph nodes. network.Index implements it.
type Resolver interface {
	Resolve(xs, ys []float64) ([]int64, error)
}

// NodeWeights maps a node id to the summed weight of the POIs snapped to it.
// Nodes not in the map weigh 0.
type NodeWeights map[int64]float64

func (w NodeWeights) Get(id int64) float64 {
	return w[id]
}

// Targets returns the nodes with positive weight in ascending id order and
// their weights.
func (w NodeWeights) Targets() ([]int64, []float64) {
	ids := lo.Filter(lo.Keys(w), func(id int64, _ int) bool { return w[id] > 0 })
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, lo.Map(ids, func(id int64, _ int) float64 { return w[id] })
}

// SeedPolicy controls how sample generators are seeded across areas.
type SeedPolicy int

const (
	// 每个区域使用同一种子新建生成器，结果与区域顺序无关
	SeedPerArea SeedPolicy = iota
	// 单个生成器只播种一次，按区域顺序连续消耗
	SeedStream
	// 以当前时间播种，结果不可复现
	SeedEntropy
)

var seedPolicyNames = map[SeedPolicy]string{
	SeedPerArea: "per-area",
	SeedStream:  "stream",
	SeedEntropy: "entropy",
}

func (p SeedPolicy) String() string {
	if s, ok := seedPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("SeedPolicy(%d)", int(p))
}

func ParseSeedPolicy(s string) (SeedPolicy, error) {
	for p, name := range seedPolicyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown seed policy %q", ErrInvalidArgument, s)
}

// Options configures Accessibility and Load.
type Options struct {
	// 每个区域的采样点数，必须为正
	K int
	// 每次代价矩阵计算的最大区域数，0表示DefaultBatchCap
	BatchCap int
	// nil表示默认参数的累积高斯函数
	Decay decay.Func
	// 最短路使用的边属性，空表示DefaultWeight
	Weight string

	Seed       int64
	SeedPolicy SeedPolicy

	// 为false时所有区域（POI）权重视为1
	UseAreaWeight bool
	UsePOIWeight  bool
	// 负载除以全部采样点权重之和
	Normalize bool
	// 负载计算的并发数，<1表示单线程
	Workers int
}

func DefaultOptions() Options {
	return Options{
		K:        DefaultK,
		BatchCap: DefaultBatchCap,
		Decay:    decay.CumulativeGaussian(decay.DefaultT, decay.DefaultV),
		Weight:   DefaultWeight,
		Workers:  1,
	}
}

func (o Options) validate(areas []Area) (Options, error) {
	if o.K <= 0 {
		return o, fmt.Errorf("%w: k must be a positive integer, got %d", ErrInvalidArgument, o.K)
	}
	if o.BatchCap < 0 {
		return o, fmt.Errorf("%w: batch cap must be positive, got %d", ErrInvalidArgument, o.BatchCap)
	}
	if dup := lo.FindDuplicatesBy(areas, func(a Area) string { return a.ID }); len(dup) > 0 {
		return o, fmt.Errorf("%w: duplicate area id %q", ErrInvalidArgument, dup[0].ID)
	}
	if o.BatchCap == 0 {
		o.BatchCap = DefaultBatchCap
	}
	if o.Decay == nil {
		o.Decay = decay.CumulativeGaussian(decay.DefaultT, decay.DefaultV)
	}
	if o.Weight == "" {
		o.Weight = DefaultWeight
	}
	o.Workers = max(o.Workers, 1)
	return o, nil
}

// seeder hands out the generator used for the next area.
type seeder struct {
	policy SeedPolicy
	seed   int64
	shared *rand.Rand
}

func newSeeder(policy SeedPolicy, seed int64) *seeder {
	s := &seeder{policy: policy, seed: seed}
	switch policy {
	case SeedStream:
		s.shared = rand.New(rand.NewSource(seed))
	case SeedEntropy:
		s.shared = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

func (s *seeder) next() *rand.Rand {
	if s.shared != nil {
		return s.shared
	}
	return rand.New(rand.NewSource(s.seed))
}
