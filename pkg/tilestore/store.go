package tilestore

import (
	"os"
	"path/filepath"
	"sync"

	"lintang/transitx/domain"
	"lintang/transitx/pkg/datastructure"
)

const defaultMaxCacheBytes = int64(1) << 30

// TileStore reads and writes graph tiles below one directory root. Reads go
// through an in-memory cache with a byte budget (maxBytes); the cache does
// not evict on its own, callers check OverCommitted and Clear it. Callers
// coordinate writes with their own lock.
type TileStore struct {
	tileDir   string
	hierarchy *TileHierarchy

	mu         sync.Mutex
	cache      map[datastructure.GraphId]*GraphTile
	cacheBytes int64
	maxBytes   int64
}

func NewTileStore(tileDir string, hierarchy *TileHierarchy) *TileStore {
	return &TileStore{
		tileDir:   tileDir,
		hierarchy: hierarchy,
		cache:     map[datastructure.GraphId]*GraphTile{},
		maxBytes:  defaultMaxCacheBytes,
	}
}

func (ts *TileStore) Hierarchy() *TileHierarchy {
	return ts.hierarchy
}

func (ts *TileStore) TileDir() string {
	return ts.tileDir
}

func (ts *TileStore) TilePath(base datastructure.GraphId) string {
	return filepath.Join(ts.tileDir, FileSuffix(base.TileBase(), ".gph"))
}

func (ts *TileStore) DoesTileExist(base datastructure.GraphId) bool {
	info, err := os.Stat(ts.TilePath(base))
	return err == nil && !info.IsDir()
}

// GetGraphTile loads a tile through the cache.
func (ts *TileStore) GetGraphTile(base datastructure.GraphId) (*GraphTile, error) {
	base = base.TileBase()

	ts.mu.Lock()
	if tile, ok := ts.cache[base]; ok {
		ts.mu.Unlock()
		return tile, nil
	}
	ts.mu.Unlock()

	tile, err := ts.readTile(base)
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	ts.cache[base] = tile
	ts.cacheBytes += tile.SizeBytes()
	ts.mu.Unlock()
	return tile, nil
}

func (ts *TileStore) readTile(base datastructure.GraphId) (*GraphTile, error) {
	path := ts.TilePath(base)
	bb, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrNotFound, "tilestore.GetGraphTile %s", path)
	}
	td, err := decodeTile(bb)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrDeserialize, "tilestore.GetGraphTile decode %s", path)
	}
	return &GraphTile{data: td, sizeBytes: int64(len(bb))}, nil
}

// OverCommitted reports whether the cache outgrew its budget. Workers call
// Clear before reading the next tile when it does.
func (ts *TileStore) OverCommitted() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.cacheBytes > ts.maxBytes
}

func (ts *TileStore) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.cache = map[datastructure.GraphId]*GraphTile{}
	ts.cacheBytes = 0
}

// Evict drops one tile from the cache, committed tiles must not be served
// from the stale cached copy.
func (ts *TileStore) Evict(base datastructure.GraphId) {
	base = base.TileBase()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if tile, ok := ts.cache[base]; ok {
		ts.cacheBytes -= tile.SizeBytes()
		delete(ts.cache, base)
	}
}

// OpenBuilder decodes a fresh, cache-independent copy of the tile for
// mutation.
func (ts *TileStore) OpenBuilder(base datastructure.GraphId) (*GraphTileBuilder, error) {
	base = base.TileBase()
	path := ts.TilePath(base)
	bb, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrNotFound, "tilestore.OpenBuilder %s", path)
	}
	td, err := decodeTile(bb)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrDeserialize, "tilestore.OpenBuilder decode %s", path)
	}
	return newBuilderFromData(path, td), nil
}
