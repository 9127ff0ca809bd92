package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.fiblab.net/sim/accessibility/access"
	"git.fiblab.net/sim/accessibility/network"
	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

var (
	log = logrus.WithField("module", "main")

	LOG_LEVELS = map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"fatal": logrus.FatalLevel,
		"panic": logrus.PanicLevel,
	}
)

func main() {
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}
	if level, ok := LOG_LEVELS[cfg.LogLevel]; ok {
		logrus.SetLevel(level)
	} else {
		logrus.Fatalf("invalid log level: %s", cfg.LogLevel)
	}

	if cfg.Pprof != "" {
		// 启动pprof
		startHTTPDebugger(cfg.Pprof)
	}

	if cfg.Mode == "benchmark" {
		// 性能测试
		if _, err := runBenchmark(cfg); err != nil {
			log.Fatalf("benchmark failed: %v", err)
		}
		return
	}

	service := NewAccessService(cfg.MongoURI)
	ctx, cancel := context.WithCancel(context.Background())

	// 优雅退出
	// 创建监听退出chan
	signalCh := make(chan os.Signal, 1)
	//监听指定信号 ctrl+c kill
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Info("stopping...")
		go func() {
			<-signalCh
			os.Exit(1) // 强制结束
		}()
		cancel()
	}()

	err = run(ctx, cfg, service)
	cancel()
	service.Close()
	if err != nil {
		log.Fatalf("%s failed: %v", cfg.Mode, err)
	}
	log.Info("accessibility closes")
}

// run executes one access or load job end to end.
func run(ctx context.Context, cfg *Config, service *AccessService) error {
	if cfg.Mode != "access" && cfg.Mode != "load" {
		return fmt.Errorf("invalid mode: %s", cfg.Mode)
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	paths := make(map[string]*Path, 4)
	for name, s := range map[string]string{
		"graph": cfg.Graph, "areas": cfg.Areas, "pois": cfg.POIs, "output": cfg.Output,
	} {
		p, err := NewPath(s)
		if err != nil {
			return fmt.Errorf("invalid %s path: %w", name, err)
		}
		paths[name] = p
	}

	g, err := service.LoadGraph(ctx, paths["graph"])
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	g.SetWorkers(cfg.Workers)
	areas, err := service.LoadAreas(ctx, paths["areas"], cfg.AreaColumns)
	if err != nil {
		return fmt.Errorf("load areas: %w", err)
	}
	pois, err := service.LoadPOIs(ctx, paths["pois"], cfg.POIColumns)
	if err != nil {
		return fmt.Errorf("load pois: %w", err)
	}
	idx := network.NewIndex(g)
	idx.MaxDistance = cfg.MaxSnap
	calc := access.NewCalculator(g, idx)
	log.Infof("%s with %s, %d areas, %d pois", cfg.Mode, cfg.Decay, len(areas), len(pois))

	if cfg.Mode == "access" {
		scores, err := calc.Accessibility(areas, pois, opts)
		if err != nil {
			return err
		}
		return service.WriteScores(ctx, paths["output"], scores)
	}
	loaded, err := calc.Load(areas, pois, opts)
	if err != nil {
		return err
	}
	return service.WriteLoad(ctx, paths["output"], loaded)
}
