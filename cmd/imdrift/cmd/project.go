package cmd

import (
	"strconv"

	"github.com/go-drift/immediate/pkg/config"
	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/engine"
)

// project is the resolved configuration and theme of projectDir.
type project struct {
	cfg   *config.Resolved
	theme core.Defaults
}

func loadProject() (*project, error) {
	cfg, err := config.ResolveDir(projectDir)
	if err != nil {
		return nil, err
	}
	p := &project{cfg: cfg, theme: core.BuiltinDefaults}
	if cfg.ThemePath != "" {
		if p.theme, err = config.LoadTheme(cfg.ThemePath); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// toolbarName is the parent that scopes button names.
const toolbarName = "toolbar##window"

// buttonName is unique within the toolbar even when labels repeat.
func buttonName(label string, i int) string {
	return label + "##" + strconv.Itoa(i)
}

// demo is the sample UI the CLI renders: a title and a row of buttons.
type demo struct {
	title   string
	buttons []string
	clicks  map[string]int
}

func newDemo(title string, buttons []string) *demo {
	if len(buttons) == 0 {
		buttons = []string{"Open", "Save", "Quit"}
	}
	return &demo{title: title, buttons: buttons, clicks: make(map[string]int)}
}

func (d *demo) build(ctx *engine.Context) {
	window := core.Sized(core.Percent(1), core.ChildrenSum()).WithFlags(core.FlagDrawBackground | core.FlagClip)
	ctx.Parent("window", window, func() {
		ctx.Declare("title##window", core.Sized(core.Percent(1), core.TextContent()).
			WithText(d.title).WithFlags(core.FlagDrawText))
		ctx.Parent(toolbarName, core.Sized(core.ChildrenSum(), core.SizeSpec{}), func() {
			for i, label := range d.buttons {
				id := ctx.DeclareScoped(buttonName(label, i), core.Sized(core.TextContent(), core.TextContent()).
					WithFlags(core.FlagClickable|core.FlagDrawText|core.FlagDrawBorder))
				if ctx.Clicked(id) {
					d.clicks[label]++
				}
			}
		})
	})
}
