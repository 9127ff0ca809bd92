package main

import (
	"flag"
	"fmt"
	"os"

	"git.fiblab.net/sim/accessibility/access"
	"git.fiblab.net/sim/accessibility/access/decay"
	"git.fiblab.net/sim/accessibility/geodata"
	"gopkg.in/yaml.v3"
)

// Config holds every run setting. Flags and the YAML file share it; flags set
// on the command line take precedence over the file.
type Config struct {
	ConfigFile string `yaml:"-"`

	Mode     string `yaml:"mode"`
	Areas    string `yaml:"areas"`
	POIs     string `yaml:"pois"`
	Graph    string `yaml:"graph"`
	Output   string `yaml:"output"`
	MongoURI string `yaml:"mongo_uri"`

	AreaColumns geodata.Columns `yaml:"area_columns"`
	POIColumns  geodata.Columns `yaml:"poi_columns"`

	Weight     string       `yaml:"weight"`
	Decay      decay.Params `yaml:"decay"`
	Samples    int          `yaml:"samples"`
	BatchCap   int          `yaml:"batch_cap"`
	Seed       int64        `yaml:"seed"`
	SeedPolicy string       `yaml:"seed_policy"`
	Normalize  bool         `yaml:"normalize"`
	Workers    int          `yaml:"workers"`
	MaxSnap    float64      `yaml:"max_snap"`

	LogLevel string `yaml:"log_level"`
	Pprof    string `yaml:"pprof"`

	Benchmark BenchmarkConfig `yaml:"benchmark"`
}

type BenchmarkConfig struct {
	GridSize int   `yaml:"grid_size"`
	Areas    int   `yaml:"areas"`
	POIs     int   `yaml:"pois"`
	Seed     int64 `yaml:"seed"`
}

// bindFlags registers all flags of cfg on fs, using the current field values
// as defaults.
func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ConfigFile, "config", "", "yaml config file, flags set on the command line override it")

	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "run mode [access, load, benchmark]")
	fs.StringVar(&cfg.Areas, "areas", cfg.Areas, "areas (census tracts) [format: {fspath} or {db}.{col}]")
	fs.StringVar(&cfg.POIs, "pois", cfg.POIs, "points of interest [format: {fspath} or {db}.{col}]")
	fs.StringVar(&cfg.Graph, "graph", cfg.Graph, "road graph, nodes and edges [format: {fspath} or {db}.{col} with edges in {col}_edges]")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "output, .csv/.geojson file or {db}.{col}")
	fs.StringVar(&cfg.MongoURI, "mongo_uri", cfg.MongoURI, "mongo db uri")

	fs.StringVar(&cfg.AreaColumns.ID, "area-id", cfg.AreaColumns.ID, "area id property (empty means feature id)")
	fs.StringVar(&cfg.AreaColumns.Weight, "area-weight", cfg.AreaColumns.Weight, "area weight property such as population (empty means 1)")
	fs.StringVar(&cfg.POIColumns.ID, "poi-id", cfg.POIColumns.ID, "poi id property (empty means feature id)")
	fs.StringVar(&cfg.POIColumns.Weight, "poi-weight", cfg.POIColumns.Weight, "poi weight property such as capacity (empty means 1)")

	fs.StringVar(&cfg.Weight, "weight", cfg.Weight, "edge attribute used as shortest path weight")
	fs.StringVar(&cfg.Decay.Name, "func", cfg.Decay.Name, "decay function [cumulative, soft_threshold, cumulative_gaussian]")
	fs.Float64Var(&cfg.Decay.T, "t", cfg.Decay.T, "decay cost threshold")
	fs.Float64Var(&cfg.Decay.K, "k-param", cfg.Decay.K, "soft threshold steepness")
	fs.Float64Var(&cfg.Decay.V, "v", cfg.Decay.V, "cumulative gaussian variance")
	fs.IntVar(&cfg.Samples, "samples", cfg.Samples, "sampled points per area")
	fs.IntVar(&cfg.BatchCap, "batch-cap", cfg.BatchCap, "max areas per cost matrix, lower it to save memory")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for sampling")
	fs.StringVar(&cfg.SeedPolicy, "seed-policy", cfg.SeedPolicy, "seeding across areas [per-area, stream, entropy]")
	fs.BoolVar(&cfg.Normalize, "normalize", cfg.Normalize, "divide edge load by the total sample weight")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "goroutines for shortest path computation")
	fs.Float64Var(&cfg.MaxSnap, "max-snap", cfg.MaxSnap, "max distance from a point to its nearest node (0 means unlimited)")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level [debug, info, warn, error, fatal, panic]")
	fs.StringVar(&cfg.Pprof, "pprof", cfg.Pprof, "pprof listening address (empty means disabled)")

	fs.IntVar(&cfg.Benchmark.GridSize, "benchmark.grid", cfg.Benchmark.GridSize, "side of the synthetic grid graph")
	fs.IntVar(&cfg.Benchmark.Areas, "benchmark.areas", cfg.Benchmark.Areas, "synthetic area count")
	fs.IntVar(&cfg.Benchmark.POIs, "benchmark.pois", cfg.Benchmark.POIs, "synthetic poi count")
	fs.Int64Var(&cfg.Benchmark.Seed, "benchmark.seed", cfg.Benchmark.Seed, "the seed for benchmark")
}

func defaultConfig() *Config {
	return &Config{
		Mode:       "access",
		Weight:     access.DefaultWeight,
		Decay:      decay.DefaultParams(),
		Samples:    access.DefaultK,
		BatchCap:   access.DefaultBatchCap,
		SeedPolicy: access.SeedPerArea.String(),
		Workers:    1,
		LogLevel:   "info",
		Benchmark:  BenchmarkConfig{GridSize: 100, Areas: 500, POIs: 200},
	}
}

// ReadConfig decodes a yaml file into cfg. Keys missing from the file keep
// their current values.
func ReadConfig(file string, cfg *Config) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", file, err)
	}
	return nil
}

// parseConfig parses args; if -config is given the file is applied first and
// the args are parsed again on top of it.
func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := defaultConfig()
	bindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ConfigFile == "" {
		return cfg, nil
	}
	file := cfg.ConfigFile
	if err := ReadConfig(file, cfg); err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.ConfigFile = file
	return cfg, nil
}

// Options converts the run settings to calculator options.
func (c *Config) Options() (access.Options, error) {
	f, err := decay.New(c.Decay)
	if err != nil {
		return access.Options{}, err
	}
	policy, err := access.ParseSeedPolicy(c.SeedPolicy)
	if err != nil {
		return access.Options{}, err
	}
	return access.Options{
		K:             c.Samples,
		BatchCap:      c.BatchCap,
		Decay:         f,
		Weight:        c.Weight,
		Seed:          c.Seed,
		SeedPolicy:    policy,
		UseAreaWeight: c.AreaColumns.Weight != "",
		UsePOIWeight:  c.POIColumns.Weight != "",
		Normalize:     c.Normalize,
		Workers:       c.Workers,
	}, nil
}
