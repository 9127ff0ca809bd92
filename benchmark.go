package main

import (
	"fmt"
	"math/rand"
	"time"

	"git.fiblab.net/sim/accessibility/access"
	"git.fiblab.net/sim/accessibility/network"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
)

const benchmarkSpacing = 100.0

// gridGraph builds an n x n grid with spacing benchmarkSpacing. Neighbouring
// nodes are joined by two directed edges carrying "length".
func gridGraph(n int) (*network.Graph, error) {
	g := network.NewGraph()
	id := func(i, j int) int64 { return int64(i*n + j) }
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := network.Point{X: float64(j) * benchmarkSpacing, Y: float64(i) * benchmarkSpacing}
			if err := g.AddNode(id(i, j), p); err != nil {
				return nil, err
			}
		}
	}
	attrs := map[string]float64{access.DefaultWeight: benchmarkSpacing}
	link := func(a, b int64) error {
		if _, err := g.AddEdge(a, b, 0, attrs); err != nil {
			return err
		}
		_, err := g.AddEdge(b, a, 0, attrs)
		return err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j+1 < n {
				if err := link(id(i, j), id(i, j+1)); err != nil {
					return nil, err
				}
			}
			if i+1 < n {
				if err := link(id(i, j), id(i+1, j)); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

// syntheticInputs scatters square tracts and POIs over the grid extent.
func syntheticInputs(cfg BenchmarkConfig) ([]access.Area, []access.POI) {
	// 设置随机种子
	e := rand.New(rand.NewSource(cfg.Seed))
	extent := float64(cfg.GridSize-1) * benchmarkSpacing
	side := 2 * benchmarkSpacing
	areas := make([]access.Area, cfg.Areas)
	for i := range areas {
		x0 := e.Float64() * max(extent-side, 0)
		y0 := e.Float64() * max(extent-side, 0)
		ring := []geom.Coord{{x0, y0}, {x0 + side, y0}, {x0 + side, y0 + side}, {x0, y0 + side}, {x0, y0}}
		areas[i] = access.Area{
			ID:       fmt.Sprintf("tract-%d", i),
			Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{ring}),
			Weight:   float64(1 + e.Intn(1000)),
		}
	}
	pois := make([]access.POI, cfg.POIs)
	for i := range pois {
		pois[i] = access.POI{
			ID:     fmt.Sprintf("poi-%d", i),
			X:      e.Float64() * extent,
			Y:      e.Float64() * extent,
			Weight: float64(1 + e.Intn(10)),
		}
	}
	return areas, pois
}

type benchmarkResult struct {
	Access time.Duration
	Load   time.Duration
	Scores int
	Edges  int
}

func runBenchmark(cfg *Config) (*benchmarkResult, error) {
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.WarnLevel)
	defer logrus.SetLevel(level)

	if cfg.Benchmark.GridSize < 2 {
		return nil, fmt.Errorf("benchmark.grid must be at least 2, got %d", cfg.Benchmark.GridSize)
	}
	g, err := gridGraph(cfg.Benchmark.GridSize)
	if err != nil {
		return nil, err
	}
	g.SetWorkers(cfg.Workers)
	areas, pois := syntheticInputs(cfg.Benchmark)
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts.UseAreaWeight = true
	opts.UsePOIWeight = true
	calc := access.NewCalculator(g, network.NewIndex(g))

	// 开始benchmark
	res := &benchmarkResult{}
	start := time.Now()
	scores, err := calc.Accessibility(areas, pois, opts)
	if err != nil {
		return nil, fmt.Errorf("benchmark accessibility: %w", err)
	}
	res.Access = time.Since(start)
	res.Scores = len(scores)

	start = time.Now()
	loaded, err := calc.Load(areas, pois, opts)
	if err != nil {
		return nil, fmt.Errorf("benchmark load: %w", err)
	}
	res.Load = time.Since(start)
	res.Edges = loaded.NumEdges()

	log.Error(
		"benchmark finished", "\n",
		"grid:", cfg.Benchmark.GridSize, "x", cfg.Benchmark.GridSize, "\n",
		"areas:", len(areas), " pois:", len(pois), " samples:", opts.K, "\n",
		"accessibility:", res.Access, "\n",
		"load:", res.Load, "\n",
	)
	return res, nil
}
