package transitbuilder

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"lintang/transitx/pkg/concurrent"
	"lintang/transitx/pkg/datastructure"
	"lintang/transitx/pkg/tilestore"
	"lintang/transitx/pkg/transitfeed"
	"lintang/transitx/pkg/util"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
)

type Stats struct {
	Tiles           int
	SkippedTiles    int
	FailedTiles     int
	Stops           int
	OrphanStops     int
	Departures      int
	RejectedPairs   int
	ConnectionEdges int
}

func (s *Stats) add(o Stats) {
	s.Tiles += o.Tiles
	s.SkippedTiles += o.SkippedTiles
	s.FailedTiles += o.FailedTiles
	s.Stops += o.Stops
	s.OrphanStops += o.OrphanStops
	s.Departures += o.Departures
	s.RejectedPairs += o.RejectedPairs
	s.ConnectionEdges += o.ConnectionEdges
}

// Builder merges per-tile transit records into the road tile store.
type Builder struct {
	store       *tilestore.TileStore
	transitDir  string
	concurrency int
	logger      *slog.Logger

	// guards tile reads + builder opens and commits, the rewrite between
	// them runs unsynchronized
	mu sync.Mutex
}

func NewBuilder(store *tilestore.TileStore, transitDir string, concurrency int, logger *slog.Logger) *Builder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Builder{
		store:       store,
		transitDir:  transitDir,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Build runs the whole batch: enumerate eligible tiles, shard them across
// workers, merge, commit. Individual tile failures degrade the output, only
// setup failures abort.
func (b *Builder) Build(ctx context.Context) (Stats, error) {
	start := time.Now()
	var total Stats

	if b.transitDir == "" {
		b.logger.Info("no transit directory configured, nothing to do")
		return total, nil
	}
	if _, err := os.Stat(b.transitDir); err != nil {
		b.logger.Info("transit directory missing, nothing to do",
			slog.String("transit_dir", b.transitDir))
		return total, nil
	}

	tiles, tileNodeCounts, err := b.enumerateTiles()
	if err != nil {
		return total, err
	}
	if len(tiles) == 0 {
		b.logger.Info("no transit tiles matched the road tile set")
		return total, nil
	}

	b.logger.Info("merging transit into graph tiles",
		slog.Int("tiles", len(tiles)),
		slog.Int("workers", b.concurrency))

	bar := progressbar.NewOptions(len(tiles),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan][1/1][reset] merging transit into graph tiles..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	nWorkers := b.concurrency
	if nWorkers > len(tiles) {
		nWorkers = len(tiles)
	}

	shardStats := concurrent.RunShards(len(tiles), nWorkers, func(shard concurrent.TileShard) Stats {
		var st Stats
		for i := shard.Start; i < shard.End; i++ {
			tileStats, err := b.buildTile(ctx, tiles[i], tileNodeCounts)
			if err != nil {
				b.logger.Error("tile build failed",
					slog.String("tile", tiles[i].String()),
					slog.String("error", err.Error()))
				st.FailedTiles++
			} else {
				st.add(tileStats)
			}
			bar.Add(1)
		}
		return st
	})
	for _, st := range shardStats {
		total.add(st)
	}

	b.logger.Info("transit merge finished",
		slog.Int("tiles", total.Tiles),
		slog.Int("skipped", total.SkippedTiles),
		slog.Int("failed", total.FailedTiles),
		slog.Int("stops", total.Stops),
		slog.Int("orphan_stops", total.OrphanStops),
		slog.Int("departures", total.Departures),
		slog.Int("rejected_pairs", total.RejectedPairs),
		slog.Int("connection_edges", total.ConnectionEdges),
		slog.Duration("took", time.Since(start)))

	return total, nil
}

// enumerateTiles walks the transit record tree at the local level, keeps the
// records whose road tile exists, and snapshots every eligible tile's road
// node count so workers can translate source ids without locks.
func (b *Builder) enumerateTiles() ([]datastructure.GraphId, map[datastructure.GraphId]uint32, error) {
	local := b.store.Hierarchy().LocalLevel()
	root := filepath.Join(b.transitDir, strconv.Itoa(int(local.Level)))

	var tiles []datastructure.GraphId
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".pbf") {
			return nil
		}
		base, err := tilestore.GraphIDFromPath(path)
		if err != nil {
			b.logger.Error("unrecognized transit record path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if b.store.DoesTileExist(base) {
			tiles = append(tiles, base)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	tileNodeCounts := make(map[datastructure.GraphId]uint32, len(tiles))
	for _, base := range tiles {
		tile, err := b.store.GetGraphTile(base)
		if err != nil {
			return nil, nil, err
		}
		tileNodeCounts[base] = uint32(len(tile.Nodes()))
	}
	b.store.Clear()

	return tiles, tileNodeCounts, nil
}

func (b *Builder) buildTile(ctx context.Context, base datastructure.GraphId, tileNodeCounts map[datastructure.GraphId]uint32) (Stats, error) {
	var st Stats
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return st, err
	}

	if b.store.OverCommitted() {
		b.store.Clear()
	}

	rec, err := transitfeed.ReadRecord(transitfeed.RecordPath(b.transitDir, base))
	if err != nil {
		return st, err
	}

	// nothing to merge, the tile stays byte identical
	if len(rec.Stops) == 0 {
		st.SkippedTiles++
		return st, nil
	}

	b.mu.Lock()
	tile, err := b.store.GetGraphTile(base)
	if err != nil {
		b.mu.Unlock()
		return st, err
	}
	builder, err := b.store.OpenBuilder(base)
	b.mu.Unlock()
	if err != nil {
		return st, err
	}

	refDate := util.DateFromPivotDays(builder.Header().DateCreated)
	departures, stopAccess, rejected, err := ProcessStopPairs(b.logger, rec, refDate)
	if err != nil {
		return st, err
	}
	st.RejectedPairs = rejected

	vehicleTypes := AddRoutes(rec, builder)

	origNodeCount := uint32(len(builder.Nodes()))
	conns := make([]ConnectionEdge, 0, 2*len(rec.Stops))
	for k := range rec.Stops {
		stop := &rec.Stops[k]
		if !AddOSMConnection(b.logger, stop, tile, &conns) {
			st.OrphanStops++
		}
		builder.AddTransitStop(datastructure.TransitStop{
			NodeIndex: uint32(k) + origNodeCount,
			OnestopID: stop.OnestopID,
			Name:      stop.Name,
			Lat:       stop.Lat,
			Lon:       stop.Lon,
		})
	}
	st.Stops = len(rec.Stops)
	st.ConnectionEdges = len(conns)

	stopEdges, written := BuildStopEdges(departures, builder)
	st.Departures = written

	SortConnectionEdges(conns)

	AddToGraph(b.logger, builder, &rewriteInput{
		tileBase:       base.TileBase(),
		stops:          rec.Stops,
		stopEdges:      stopEdges,
		conns:          conns,
		stopAccess:     stopAccess,
		vehicleTypes:   vehicleTypes,
		tileNodeCounts: tileNodeCounts,
		transitDir:     b.transitDir,
	})

	b.mu.Lock()
	err = builder.StoreTileData()
	b.store.Evict(base)
	b.mu.Unlock()
	if err != nil {
		return st, err
	}

	st.Tiles++
	b.logger.Info("tile merged",
		slog.String("tile", base.String()),
		slog.Int("stops", st.Stops),
		slog.Int("departures", st.Departures),
		slog.Int("connection_edges", st.ConnectionEdges),
		slog.Duration("took", time.Since(start)))

	return st, nil
}
