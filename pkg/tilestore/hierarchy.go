package tilestore

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"lintang/transitx/domain"
	"lintang/transitx/pkg/datastructure"
)

type TileLevel struct {
	Level   uint8
	SizeDeg float64
	Name    string
}

// TileHierarchy is the fixed world grid per level: tiles are SizeDeg squares
// laid out row-major from (-90, -180), tile id = row*ncols + col.
type TileHierarchy struct {
	levels []TileLevel
}

func NewTileHierarchy(levels []TileLevel) *TileHierarchy {
	return &TileHierarchy{levels: levels}
}

func (h *TileHierarchy) Levels() []TileLevel {
	return h.levels
}

func (h *TileHierarchy) HasLevel(level uint8) bool {
	for _, l := range h.levels {
		if l.Level == level {
			return true
		}
	}
	return false
}

// LocalLevel is the finest level of the hierarchy. Transit data merges into
// tiles at this level.
func (h *TileHierarchy) LocalLevel() TileLevel {
	return h.levels[len(h.levels)-1]
}

func (h *TileHierarchy) sizeOf(level uint8) float64 {
	for _, l := range h.levels {
		if l.Level == level {
			return l.SizeDeg
		}
	}
	return h.LocalLevel().SizeDeg
}

func (h *TileHierarchy) ncols(level uint8) uint32 {
	return uint32(math.Round(360.0 / h.sizeOf(level)))
}

// GetTileID returns the tile id containing (lat, lon) at level.
func (h *TileHierarchy) GetTileID(lat, lon float64, level uint8) uint32 {
	size := h.sizeOf(level)
	row := uint32(math.Floor((lat + 90.0) / size))
	col := uint32(math.Floor((lon + 180.0) / size))
	return row*h.ncols(level) + col
}

// TileBaseLatLng returns the south-west corner of the tile.
func (h *TileHierarchy) TileBaseLatLng(id datastructure.GraphId) datastructure.LatLng {
	size := h.sizeOf(id.Level())
	ncols := h.ncols(id.Level())
	row := id.TileID() / ncols
	col := id.TileID() % ncols
	return datastructure.LatLng{
		Lat: float64(row)*size - 90.0,
		Lon: float64(col)*size - 180.0,
	}
}

// FileSuffix renders the tile path below a level root, three digits per
// directory: 2/000/756/425.gph for tile 756425 at level 2.
func FileSuffix(id datastructure.GraphId, ext string) string {
	t := id.TileID()
	return fmt.Sprintf("%d/%03d/%03d/%03d%s", id.Level(), t/1000000, (t/1000)%1000, t%1000, ext)
}

// GraphIDFromPath parses a tile path back into its base graph id. The last
// four path components carry the level and the three tile id digit groups,
// any leading directories are ignored.
func GraphIDFromPath(path string) (datastructure.GraphId, error) {
	ext := filepath.Ext(path)
	trimmed := strings.TrimSuffix(filepath.ToSlash(path), ext)
	parts := strings.Split(trimmed, "/")
	if len(parts) < 4 {
		return datastructure.InvalidGraphId(), domain.WrapErrorf(nil, domain.ErrBadParamInput, "tilestore.GraphIDFromPath %s", path)
	}
	parts = parts[len(parts)-4:]

	level, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return datastructure.InvalidGraphId(), domain.WrapErrorf(err, domain.ErrBadParamInput, "tilestore.GraphIDFromPath level %s", path)
	}
	tileID := uint32(0)
	for _, p := range parts[1:] {
		group, err := strconv.ParseUint(p, 10, 32)
		if err != nil || len(p) != 3 {
			return datastructure.InvalidGraphId(), domain.WrapErrorf(err, domain.ErrBadParamInput, "tilestore.GraphIDFromPath tile id %s", path)
		}
		tileID = tileID*1000 + uint32(group)
	}
	return datastructure.NewGraphId(tileID, uint8(level), 0), nil
}
