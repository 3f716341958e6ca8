package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-drift/immediate/pkg/config"
	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/engine"
	"github.com/go-drift/immediate/pkg/errors"
)

func init() {
	RegisterCommand(&Command{
		Name:  "inspect",
		Short: "Run the demo UI and serve the frame inspector",
		Long: `Run the demo UI in a frame loop and serve JSON views of each finished
frame over HTTP until interrupted.

Endpoints: /health, /widget-tree, /draw-list, /frames, /resources, /stats.
/stream is a WebSocket that receives one frame sample per frame.

Flags:
  --addr ADDR        Listen address (default: 127.0.0.1:9222)
  --interval DUR     Time between frames (default: 100ms)
  --frames N         Stop after N frames (default: run until interrupted)
  --watch            Reload the theme file when it changes
  --verbose          Log frame diagnostics`,
		Usage: "imdrift inspect [--addr ADDR] [--interval DUR] [--frames N] [--watch] [--verbose]",
		Run:   runInspect,
	})
}

type inspectOptions struct {
	addr     string
	interval time.Duration
	frames   int
	watch    bool
	verbose  bool
}

func parseInspectArgs(args []string) (inspectOptions, error) {
	opts := inspectOptions{addr: "127.0.0.1:9222", interval: 100 * time.Millisecond}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--verbose":
			opts.verbose = true
			continue
		case "--watch":
			opts.watch = true
			continue
		}
		if !strings.HasPrefix(arg, "--") {
			return opts, fmt.Errorf("unexpected argument %q", arg)
		}
		if i+1 >= len(args) {
			return opts, fmt.Errorf("%s requires a value", arg)
		}
		value := args[i+1]
		i++
		switch arg {
		case "--addr":
			opts.addr = value
		case "--interval":
			d, err := time.ParseDuration(value)
			if err != nil || d <= 0 {
				return opts, fmt.Errorf("--interval: invalid duration %q", value)
			}
			opts.interval = d
		case "--frames":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return opts, fmt.Errorf("--frames: invalid count %q", value)
			}
			opts.frames = n
		default:
			return opts, fmt.Errorf("unknown flag %s", arg)
		}
	}
	return opts, nil
}

func runInspect(args []string) error {
	opts, err := parseInspectArgs(args)
	if err != nil {
		return err
	}
	p, err := loadProject()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: opts.verbose})

	inspector := engine.NewInspector()
	ctx, err := engine.NewContext(p.cfg,
		engine.WithTheme(p.theme),
		engine.WithLogger(logger),
		engine.WithInspector(inspector),
	)
	if err != nil {
		return err
	}

	addr, err := inspector.Start(opts.addr)
	if err != nil {
		return err
	}
	defer inspector.Close()
	fmt.Fprintf(stdout, "%s http://%s\n", heading("inspector:"), addr)

	var watcher *config.ThemeWatcher
	if opts.watch {
		if p.cfg.ThemePath == "" {
			return fmt.Errorf("--watch: no theme configured in %s", config.FileName)
		}
		if watcher, err = config.WatchTheme(p.cfg.ThemePath); err != nil {
			return err
		}
		defer watcher.Close()
		logger.Info("watching theme", "path", p.cfg.ThemePath)
	}

	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return loop(sig, ctx, newDemo(p.cfg.AppName, nil), opts, logger, watcher)
}

// loop runs frames every interval until ctx is done or the frame budget
// is spent. A theme reload from watcher is applied before the next frame,
// which runs without waiting for the ticker.
func loop(done context.Context, ctx *engine.Context, d *demo, opts inspectOptions, logger *slog.Logger, watcher *config.ThemeWatcher) error {
	var (
		reloads    <-chan core.Defaults
		reloadErrs <-chan error
	)
	if watcher != nil {
		reloads, reloadErrs = watcher.Updates(), watcher.Errors()
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for n := 1; ; n++ {
		if err := frame(ctx, d); err != nil {
			return err
		}
		if opts.frames > 0 && n >= opts.frames {
			break
		}
		for waiting := true; waiting; {
			select {
			case <-done.Done():
				logger.Info("inspector stopped", "frames", ctx.Frame())
				return nil
			case theme, ok := <-reloads:
				if !ok {
					reloads = nil
					continue
				}
				ctx.SetTheme(theme)
				logger.Info("theme reloaded", "frame", ctx.Frame())
				waiting = false
			case err, ok := <-reloadErrs:
				if !ok {
					reloadErrs = nil
					continue
				}
				logger.Warn("theme reload failed", "error", err)
			case <-ticker.C:
				waiting = false
			}
		}
	}
	logger.Info("frame budget spent", "frames", ctx.Frame())
	return nil
}
