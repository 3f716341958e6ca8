package cmd

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"

	"github.com/go-drift/immediate/pkg/engine"
	"github.com/go-drift/immediate/pkg/graphics"
	"github.com/go-drift/immediate/pkg/terminal"
)

// cellAspect is the width of a terminal cell relative to its height.
const cellAspect = 0.5

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Render a demo frame to the terminal",
		Long: `Render the demo UI (a title and a row of buttons) to the terminal.

The project's imdrift.yaml sets the viewport and cache limits, and its theme
sets colors and the font size. Each terminal cell is half as wide as the
font size and as tall as it.

Flags:
  --plain            Disable colors
  --press LABEL      Press the named button in a second frame
  --title TEXT       Window title (default: the app name)`,
		Usage: "imdrift render [--plain] [--press LABEL] [--title TEXT] [BUTTON...]",
		Run:   runRender,
	})
}

type renderOptions struct {
	plain  bool
	press  string
	title  string
	labels []string
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--plain":
			opts.plain = true
		case arg == "--press" || arg == "--title":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a value", arg)
			}
			if arg == "--press" {
				opts.press = args[i+1]
			} else {
				opts.title = args[i+1]
			}
			i++
		case strings.HasPrefix(arg, "--"):
			return opts, fmt.Errorf("unknown flag %s", arg)
		default:
			opts.labels = append(opts.labels, arg)
		}
	}
	return opts, nil
}

func runRender(args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	p, err := loadProject()
	if err != nil {
		return err
	}
	if opts.title == "" {
		opts.title = p.cfg.AppName
	}

	cell := graphics.Size{Width: cellAspect * p.theme.FontSize, Height: p.theme.FontSize}
	cols, rows := terminal.GridFor(p.cfg.ViewportRect(), cell)
	var termOpts []termenv.OutputOption
	if opts.plain {
		termOpts = append(termOpts, termenv.WithProfile(termenv.Ascii))
	}
	screen := terminal.NewRenderer(stdout, cols, rows, cell, termOpts...)

	d := newDemo(opts.title, opts.labels)
	pointer := &graphics.StaticPointer{}
	ctx, err := engine.NewContext(p.cfg,
		engine.WithMetrics(graphics.CellMetrics{Aspect: cellAspect}),
		engine.WithTheme(p.theme),
		engine.WithPointer(pointer),
	)
	if err != nil {
		return err
	}

	if opts.press != "" {
		// Lay out once off screen so the button has a rectangle to press.
		if err := frame(ctx, d); err != nil {
			return err
		}
		target, ok := findButton(ctx, d, opts.press)
		if !ok {
			return fmt.Errorf("no button labeled %q", opts.press)
		}
		*pointer = graphics.StaticPointer{Position: target.Center(), Down: true}
	}

	ctx.SetRenderer(screen)
	if err := frame(ctx, d); err != nil {
		return err
	}
	if opts.press != "" {
		fmt.Fprintf(stdout, "%s %s pressed %d time(s)\n", heading("clicked:"), opts.press, d.clicks[opts.press])
	}
	return nil
}

func frame(ctx *engine.Context, d *demo) error {
	ctx.BeginFrame()
	d.build(ctx)
	return ctx.EndFrame()
}

func findButton(ctx *engine.Context, d *demo, label string) (graphics.Rect, bool) {
	toolbar, ok := ctx.Tree().Lookup(toolbarName)
	if !ok {
		return graphics.Rect{}, false
	}
	for i, l := range d.buttons {
		if l != label {
			continue
		}
		if w, ok := ctx.LookupIn(toolbar, buttonName(label, i)); ok {
			return w.Rect, true
		}
	}
	return graphics.Rect{}, false
}
