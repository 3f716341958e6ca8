// Package config loads the engine configuration (imdrift.yaml) and the
// style theme (TOML).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	engerrors "github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

// FileName is the configuration file LoadOptional looks for.
const FileName = "imdrift.yaml"

// Config represents the optional imdrift.yaml configuration. Zero fields
// take their defaults in Resolve.
type Config struct {
	App    AppConfig    `yaml:"app"`
	Engine EngineConfig `yaml:"engine"`
	Theme  string       `yaml:"theme,omitempty"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// EngineConfig contains engine settings.
type EngineConfig struct {
	Version  string         `yaml:"version,omitempty"`
	Cache    CacheConfig    `yaml:"cache"`
	Frame    FrameConfig    `yaml:"frame"`
	Viewport ViewportConfig `yaml:"viewport"`
}

// CacheConfig bounds the widget cache.
type CacheConfig struct {
	Buckets  int `yaml:"buckets,omitempty"`
	Capacity int `yaml:"capacity,omitempty"`
	// TTL is the number of frames an undeclared widget survives. A
	// negative value disables eviction.
	TTL int `yaml:"ttl,omitempty"`
}

// FrameConfig bounds the per-frame arena.
type FrameConfig struct {
	StyleDepth int `yaml:"style_depth,omitempty"`
	Boxes      int `yaml:"boxes,omitempty"`
	GlyphRuns  int `yaml:"glyph_runs,omitempty"`
	Glyphs     int `yaml:"glyphs,omitempty"`
}

// ViewportConfig is the layout viewport.
type ViewportConfig struct {
	X      float32 `yaml:"x,omitempty"`
	Y      float32 `yaml:"y,omitempty"`
	Width  float32 `yaml:"width,omitempty"`
	Height float32 `yaml:"height,omitempty"`
}

// Resolved contains validated configuration values with defaults applied.
type Resolved struct {
	Root          string
	AppName       string
	EngineVersion string
	Buckets       int
	CacheCapacity int
	TTL           uint64
	StyleDepth    int
	Boxes         int
	GlyphRuns     int
	Glyphs        int
	Viewport      ViewportConfig
	ThemePath     string
}

// Default returns the built-in configuration.
func Default() *Resolved {
	return &Resolved{
		AppName:       "imdrift",
		EngineVersion: "latest",
		Buckets:       4096,
		CacheCapacity: 1 << 16,
		TTL:           1,
		StyleDepth:    64,
		Boxes:         4096,
		GlyphRuns:     2048,
		Glyphs:        65536,
		Viewport:      ViewportConfig{Width: 1280, Height: 720},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes configuration YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// LoadOptional reads imdrift.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// ResolveDir loads imdrift.yaml from dir (if present) and resolves it.
func ResolveDir(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return Resolve(cfg, dir)
}

// Resolve validates cfg and fills unset fields from Default. Relative
// theme paths are taken relative to dir.
func Resolve(cfg *Config, dir string) (*Resolved, error) {
	r := Default()
	r.Root = dir

	r.AppName = strings.TrimSpace(cfg.App.Name)
	if r.AppName == "" {
		r.AppName = defaultAppName(dir)
	}

	if v := strings.TrimSpace(cfg.Engine.Version); v != "" {
		if v != "latest" && !semver.IsValid(v) {
			return nil, invalid("engine.version must be \"latest\" or a semantic version like v1.2.3 (got %q)", v)
		}
		r.EngineVersion = v
	}

	c := cfg.Engine.Cache
	if err := setPositive(&r.Buckets, c.Buckets, "engine.cache.buckets"); err != nil {
		return nil, err
	}
	if err := setPositive(&r.CacheCapacity, c.Capacity, "engine.cache.capacity"); err != nil {
		return nil, err
	}
	switch {
	case c.TTL < 0:
		r.TTL = 0
	case c.TTL > 0:
		r.TTL = uint64(c.TTL)
	}

	f := cfg.Engine.Frame
	for _, field := range []struct {
		dst  *int
		v    int
		name string
	}{
		{&r.StyleDepth, f.StyleDepth, "engine.frame.style_depth"},
		{&r.Boxes, f.Boxes, "engine.frame.boxes"},
		{&r.GlyphRuns, f.GlyphRuns, "engine.frame.glyph_runs"},
		{&r.Glyphs, f.Glyphs, "engine.frame.glyphs"},
	} {
		if err := setPositive(field.dst, field.v, field.name); err != nil {
			return nil, err
		}
	}

	v := cfg.Engine.Viewport
	if v.Width < 0 || v.Height < 0 {
		return nil, invalid("engine.viewport must not be negative (got %gx%g)", v.Width, v.Height)
	}
	r.Viewport.X, r.Viewport.Y = v.X, v.Y
	if v.Width > 0 {
		r.Viewport.Width = v.Width
	}
	if v.Height > 0 {
		r.Viewport.Height = v.Height
	}

	if theme := strings.TrimSpace(cfg.Theme); theme != "" {
		if !filepath.IsAbs(theme) && dir != "" {
			theme = filepath.Join(dir, theme)
		}
		r.ThemePath = theme
	}
	return r, nil
}

func setPositive(dst *int, v int, name string) error {
	if v < 0 {
		return invalid("%s must be positive (got %d)", name, v)
	}
	if v > 0 {
		*dst = v
	}
	return nil
}

func invalid(format string, args ...any) error {
	return engerrors.New("config.Resolve", engerrors.KindConfig, fmt.Errorf(format, args...))
}

// defaultAppName takes the last element of the module path in dir's
// go.mod, falling back to the directory name.
func defaultAppName(dir string) string {
	base := filepath.Base(dir)
	if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
		if path := modfile.ModulePath(data); path != "" {
			prefix, _, ok := module.SplitPathVersion(path)
			if ok {
				parts := strings.Split(prefix, "/")
				base = parts[len(parts)-1]
			}
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "imdrift"
	}
	return base
}

// Capacity returns the draw list bounds.
func (r *Resolved) Capacity() graphics.Capacity {
	return graphics.Capacity{Boxes: r.Boxes, GlyphRuns: r.GlyphRuns, Glyphs: r.Glyphs}
}

// ViewportRect returns the layout viewport.
func (r *Resolved) ViewportRect() graphics.Rect {
	v := r.Viewport
	return graphics.RectFromLTWH(v.X, v.Y, v.Width, v.Height)
}
