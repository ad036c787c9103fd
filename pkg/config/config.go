package config

import (
	"os"
	"runtime"

	"lintang/transitx/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type HierarchyConfig struct {
	TileDir string  `yaml:"tile_dir" validate:"required"`
	Levels  []Level `yaml:"levels"`
}

type Level struct {
	Level   uint8   `yaml:"level"`
	SizeDeg float64 `yaml:"size_deg" validate:"gt=0"`
	Name    string  `yaml:"name"`
}

type Config struct {
	TransitDir  string          `yaml:"transit_dir"`
	Hierarchy   HierarchyConfig `yaml:"hierarchy" validate:"required"`
	Concurrency int             `yaml:"concurrency"`
}

// DefaultLevels mirrors the level layout the road-tile bootstrap writes:
// coarse highway tiles, arterial tiles, and local tiles. Transit data is
// merged into the local level in place.
func DefaultLevels() []Level {
	return []Level{
		{Level: 0, SizeDeg: 4.0, Name: "highway"},
		{Level: 1, SizeDeg: 1.0, Name: "arterial"},
		{Level: 2, SizeDeg: 0.25, Name: "local"},
	}
}

// Load reads and validates the YAML config at path. Empty hierarchy levels
// and a non-positive concurrency are defaulted here; transit_dir is left as
// given and may be empty.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrNotFound, "config.Load %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "config.Load unmarshal %s", path)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrBadParamInput, "config.Load validate %s", path)
	}

	if len(cfg.Hierarchy.Levels) == 0 {
		cfg.Hierarchy.Levels = DefaultLevels()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}

	return &cfg, nil
}
