package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/immediate/pkg/graphics"
)

func init() {
	RegisterCommand(&Command{
		Name:  "config",
		Short: "Validate and print the resolved configuration",
		Long: `Load imdrift.yaml and its theme, validate them, and print the values
the engine will use after defaults are applied.`,
		Usage: "imdrift config",
		Run:   runConfig,
	})
}

// resolvedView is the printed form of the configuration.
type resolvedView struct {
	App    string `yaml:"app"`
	Engine string `yaml:"engine"`
	Cache  struct {
		Buckets  int    `yaml:"buckets"`
		Capacity int    `yaml:"capacity"`
		TTL      uint64 `yaml:"ttl"`
	} `yaml:"cache"`
	Frame struct {
		StyleDepth int `yaml:"style_depth"`
		Boxes      int `yaml:"boxes"`
		GlyphRuns  int `yaml:"glyph_runs"`
		Glyphs     int `yaml:"glyphs"`
	} `yaml:"frame"`
	Viewport [4]float32 `yaml:"viewport,flow"`
	Theme    struct {
		Path       string  `yaml:"path,omitempty"`
		Background string  `yaml:"background"`
		Text       string  `yaml:"text"`
		Border     string  `yaml:"border"`
		FontSize   float32 `yaml:"font_size"`
	} `yaml:"theme"`
}

func runConfig(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("config takes no arguments")
	}
	p, err := loadProject()
	if err != nil {
		return err
	}

	var v resolvedView
	v.App = p.cfg.AppName
	v.Engine = p.cfg.EngineVersion
	v.Cache.Buckets = p.cfg.Buckets
	v.Cache.Capacity = p.cfg.CacheCapacity
	v.Cache.TTL = p.cfg.TTL
	v.Frame.StyleDepth = p.cfg.StyleDepth
	v.Frame.Boxes = p.cfg.Boxes
	v.Frame.GlyphRuns = p.cfg.GlyphRuns
	v.Frame.Glyphs = p.cfg.Glyphs
	vp := p.cfg.Viewport
	v.Viewport = [4]float32{vp.X, vp.Y, vp.Width, vp.Height}
	v.Theme.Path = p.cfg.ThemePath
	v.Theme.Background = colorString(p.theme.Background)
	v.Theme.Text = colorString(p.theme.TextColor)
	v.Theme.Border = colorString(p.theme.BorderColor)
	v.Theme.FontSize = p.theme.FontSize

	data, err := yaml.Marshal(&v)
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	fmt.Fprintln(stdout, heading("# "+p.cfg.Root))
	_, err = stdout.Write(data)
	return err
}

func colorString(c graphics.Color) string {
	return fmt.Sprintf("#%06x%02x", uint32(c)&0xFFFFFF, uint32(c)>>24)
}
