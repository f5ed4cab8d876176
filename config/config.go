package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"

	"github.com/meigma/assetpack"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "assetpack.toml"

// Content locates packages and loose files.
type Content struct {
	Root             string `toml:"root"`
	ArchiveExtension string `toml:"archive_extension"`
	StrictMagic      bool   `toml:"strict_magic"`
	MaxAssetSize     string `toml:"max_asset_size"`
}

// Cache sizes the asset cache.
type Cache struct {
	Budget string `toml:"budget"`
}

// Image controls still-image decoding.
type Image struct {
	PremultiplyAlpha bool `toml:"premultiply_alpha"`
}

// Log controls the CLI's log output.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full configuration.
type Config struct {
	Content Content `toml:"content"`
	Cache   Cache   `toml:"cache"`
	Image   Image   `toml:"image"`
	Log     Log     `toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Content: Content{
			Root:             "GameData",
			ArchiveExtension: ".pkg",
			MaxAssetSize:     "256 MiB",
		},
		Cache: Cache{Budget: "256 MiB"},
		Image: Image{PremultiplyAlpha: true},
		Log:   Log{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path over the defaults and validates the
// result. An empty path means DefaultPath. A missing file is not an error;
// exists reports whether one was read.
func Load(path string) (cfg *Config, exists bool, err error) {
	c := Default()
	if path == "" {
		path = DefaultPath
	}

	file, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, false, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		dec := toml.NewDecoder(file)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", path, err)
		}
		exists = true
	}

	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, false, err
	}
	return &c, exists, nil
}

func (c *Config) normalize() {
	c.Content.Root = strings.TrimSpace(c.Content.Root)
	c.Content.ArchiveExtension = strings.TrimSpace(c.Content.ArchiveExtension)
	if ext := c.Content.ArchiveExtension; ext != "" && !strings.HasPrefix(ext, ".") {
		c.Content.ArchiveExtension = "." + ext
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// CacheBudget returns the parsed cache budget in bytes.
func (c *Config) CacheBudget() (uint64, error) {
	n, err := humanize.ParseBytes(c.Cache.Budget)
	if err != nil {
		return 0, fmt.Errorf("cache.budget: %w", err)
	}
	return n, nil
}

// MaxAssetSize returns the parsed asset size limit in bytes.
func (c *Config) MaxAssetSize() (uint32, error) {
	n, err := humanize.ParseBytes(c.Content.MaxAssetSize)
	if err != nil {
		return 0, fmt.Errorf("content.max_asset_size: %w", err)
	}
	if n > 1<<32-1 {
		return 0, fmt.Errorf("content.max_asset_size: %s exceeds 4 GiB", c.Content.MaxAssetSize)
	}
	return uint32(n), nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// LoaderOptions converts the configuration to loader options.
func (c *Config) LoaderOptions(logger *slog.Logger) ([]assetpack.Option, error) {
	budget, err := c.CacheBudget()
	if err != nil {
		return nil, err
	}
	maxSize, err := c.MaxAssetSize()
	if err != nil {
		return nil, err
	}
	return []assetpack.Option{
		assetpack.WithLogger(logger),
		assetpack.WithArchiveExtension(c.Content.ArchiveExtension),
		assetpack.WithStrictMagic(c.Content.StrictMagic),
		assetpack.WithMaxAssetSize(maxSize),
		assetpack.WithCacheBudget(budget),
		assetpack.WithPremultiply(c.Image.PremultiplyAlpha),
	}, nil
}

// CreateSample writes a commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
