package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"lintang/transitx/pkg/config"
	"lintang/transitx/pkg/logging"
	"lintang/transitx/pkg/tilestore"
	"lintang/transitx/pkg/transitbuilder"
)

var (
	configFile = flag.String("config", "transitx.yaml", "path to the yaml config")
	transitDir = flag.String("transit", "", "transit record directory, overrides the config value")
)

func main() {
	flag.Parse()
	logger := logging.New(os.Stdout, slog.LevelInfo)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.LogError(logger, "cannot load config", err, slog.String("config", *configFile))
		os.Exit(1)
	}
	if *transitDir != "" {
		cfg.TransitDir = *transitDir
	}

	levels := make([]tilestore.TileLevel, len(cfg.Hierarchy.Levels))
	for i, l := range cfg.Hierarchy.Levels {
		levels[i] = tilestore.TileLevel{Level: l.Level, SizeDeg: l.SizeDeg, Name: l.Name}
	}
	store := tilestore.NewTileStore(cfg.Hierarchy.TileDir, tilestore.NewTileHierarchy(levels))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := transitbuilder.NewBuilder(store, cfg.TransitDir, cfg.Concurrency, logger)
	stats, err := builder.Build(ctx)
	if err != nil {
		logging.LogError(logger, "transit merge failed", err)
		os.Exit(1)
	}
	if stats.FailedTiles > 0 {
		logger.Warn("transit merge finished with failed tiles",
			slog.Int("failed", stats.FailedTiles))
		os.Exit(1)
	}
}
