package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"lintang/transitx/pkg/config"
	"lintang/transitx/pkg/logging"
	"lintang/transitx/pkg/osmparser"
	"lintang/transitx/pkg/tilestore"
)

var (
	configFile = flag.String("config", "transitx.yaml", "path to the yaml config")
	mapFile    = flag.String("f", "solo_jogja.osm.pbf", "openstreetmap pbf extract for the road network")
)

func main() {
	flag.Parse()
	logger := logging.New(os.Stdout, slog.LevelInfo)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.LogError(logger, "cannot load config", err, slog.String("config", *configFile))
		os.Exit(1)
	}

	levels := make([]tilestore.TileLevel, len(cfg.Hierarchy.Levels))
	for i, l := range cfg.Hierarchy.Levels {
		levels[i] = tilestore.TileLevel{Level: l.Level, SizeDeg: l.SizeDeg, Name: l.Name}
	}
	hierarchy := tilestore.NewTileHierarchy(levels)

	parser := osmparser.NewParser(hierarchy, cfg.Hierarchy.TileDir, logger)
	tiles, err := parser.Parse(context.Background(), *mapFile)
	if err != nil {
		logging.LogError(logger, "road tile build failed", err, slog.String("file", *mapFile))
		os.Exit(1)
	}

	logger.Info("road tile set ready",
		slog.Int("tiles", tiles),
		slog.String("tile_dir", cfg.Hierarchy.TileDir))
}
