// Package terminal renders draw lists as styled text on a cell grid. Each
// cell covers one CellMetrics cell; boxes fill cell backgrounds and glyph
// runs place runes, colored through termenv for the terminal's profile.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/go-drift/immediate/pkg/graphics"
)

type cell struct {
	r  rune
	fg graphics.Color
	bg graphics.Color
	// wide marks the second column of a double-width rune.
	wide bool
}

// Renderer is a graphics.Renderer that writes each frame to w.
type Renderer struct {
	w     io.Writer
	out   *termenv.Output
	cell  graphics.Size
	cols  int
	rows  int
	cells []cell
}

// NewRenderer returns a renderer for a cols×rows grid whose cells are
// cellSize pixels. Options select the termenv color profile; the default
// is detected from w.
func NewRenderer(w io.Writer, cols, rows int, cellSize graphics.Size, opts ...termenv.OutputOption) *Renderer {
	return &Renderer{
		w:     w,
		out:   termenv.NewOutput(w, opts...),
		cell:  cellSize,
		cols:  cols,
		rows:  rows,
		cells: make([]cell, cols*rows),
	}
}

// GridFor returns the grid that covers viewport with cells of cellSize.
func GridFor(viewport graphics.Rect, cellSize graphics.Size) (cols, rows int) {
	if cellSize.Width <= 0 || cellSize.Height <= 0 {
		return 0, 0
	}
	return int(viewport.Width() / cellSize.Width), int(viewport.Height() / cellSize.Height)
}

// Submit rasterizes list and writes it.
func (r *Renderer) Submit(list *graphics.DrawList) error {
	clear(r.cells)
	for _, b := range list.Boxes() {
		r.fill(b)
	}
	for _, run := range list.Runs() {
		for _, g := range list.Glyphs(run) {
			r.place(run, g)
		}
	}
	return r.flush()
}

// span returns the cells whose centers lie inside rect.
func (r *Renderer) span(rect graphics.Rect) (c0, r0, c1, r1 int) {
	c0 = max(0, int(rect.Left/r.cell.Width+0.5))
	r0 = max(0, int(rect.Top/r.cell.Height+0.5))
	c1 = min(r.cols, int(rect.Right/r.cell.Width+0.5))
	r1 = min(r.rows, int(rect.Bottom/r.cell.Height+0.5))
	return c0, r0, c1, r1
}

func (r *Renderer) fill(b graphics.Box) {
	rect := b.Rect
	if !b.Clip.IsEmpty() {
		rect = rect.Intersect(b.Clip)
	}
	c0, r0, c1, r1 := r.span(rect)
	border := b.BorderThickness > 0 && b.BorderColor.Alpha() > 0
	for y := r0; y < r1; y++ {
		for x := c0; x < c1; x++ {
			edge := y == r0 || y == r1-1 || x == c0 || x == c1-1
			switch {
			case border && edge:
				r.cells[y*r.cols+x].bg = b.BorderColor
			case b.Color.Alpha() > 0:
				r.cells[y*r.cols+x].bg = b.Color
			}
		}
	}
}

func (r *Renderer) place(run graphics.GlyphRun, g graphics.Glyph) {
	if !run.Clip.IsEmpty() && run.Clip.Intersect(g.Rect).IsEmpty() {
		return
	}
	x := int(g.Rect.Left/r.cell.Width + 0.5)
	y := int(g.Rect.Top/r.cell.Height + 0.5)
	if x < 0 || y < 0 || x >= r.cols || y >= r.rows {
		return
	}
	c := &r.cells[y*r.cols+x]
	c.r = g.Rune
	c.fg = run.Color
	c.wide = false
	if runewidth.RuneWidth(g.Rune) == 2 && x+1 < r.cols {
		next := &r.cells[y*r.cols+x+1]
		next.r = 0
		next.wide = true
	}
}

func (r *Renderer) flush() error {
	var line strings.Builder
	for y := range r.rows {
		line.Reset()
		row := r.cells[y*r.cols : (y+1)*r.cols]
		end := len(row)
		for end > 0 && row[end-1] == (cell{}) {
			end--
		}
		for x := 0; x < end; {
			// Runs of cells with equal colors share one escape sequence.
			start := x
			var text strings.Builder
			for x < end && row[x].fg == row[start].fg && row[x].bg == row[start].bg {
				switch {
				case row[x].wide:
				case row[x].r == 0:
					text.WriteByte(' ')
				default:
					text.WriteRune(row[x].r)
				}
				x++
			}
			line.WriteString(r.style(text.String(), row[start]).String())
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(r.w, line.String()); err != nil {
			return fmt.Errorf("terminal: write row %d: %w", y, err)
		}
	}
	return nil
}

func (r *Renderer) style(text string, c cell) termenv.Style {
	s := r.out.String(text)
	if c.fg.Alpha() > 0 {
		s = s.Foreground(r.out.Color(hex(c.fg)))
	}
	if c.bg.Alpha() > 0 {
		s = s.Background(r.out.Color(hex(c.bg)))
	}
	return s
}

func hex(c graphics.Color) string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}
