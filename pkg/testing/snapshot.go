package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/graphics"
)

// UpdateSnapshotsEnv names the environment variable that makes
// MatchesFile rewrite golden files instead of comparing.
const UpdateSnapshotsEnv = "IMDRIFT_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the widget tree and draw list of the last frame.
type Snapshot struct {
	Tree  *WidgetNode `json:"tree"`
	Boxes []BoxOp     `json:"boxes,omitempty"`
	Runs  []RunOp     `json:"runs,omitempty"`
}

// WidgetNode represents a widget in the serialized tree.
type WidgetNode struct {
	Name     string        `json:"name"`
	Size     [2]string     `json:"size"`
	Rect     [4]float64    `json:"rect"`
	Text     string        `json:"text,omitempty"`
	Flags    []string      `json:"flags,omitempty"`
	Children []*WidgetNode `json:"children,omitempty"`
}

// BoxOp is one serialized draw-list box. Rect is [left, top, width, height].
type BoxOp struct {
	Rect         [4]float64 `json:"rect"`
	Color        string     `json:"color"`
	Border       string     `json:"border,omitempty"`
	BorderWidth  float64    `json:"borderWidth,omitempty"`
	CornerRadius float64    `json:"cornerRadius,omitempty"`
	Hot          bool       `json:"hot,omitempty"`
	Active       bool       `json:"active,omitempty"`
}

// RunOp is one serialized glyph run.
type RunOp struct {
	Text     string     `json:"text"`
	Origin   [2]float64 `json:"origin"`
	Color    string     `json:"color"`
	FontSize float64    `json:"fontSize"`
}

// CaptureSnapshot captures the tree and draw list of the last finished
// frame.
func (t *Tester) CaptureSnapshot() *Snapshot {
	snap := &Snapshot{}
	tree := t.ctx.Tree()
	if root := tree.Root(); root.Valid() {
		snap.Tree = captureWidgetNode(tree, root)
	}

	frame := t.Last()
	for _, b := range frame.Boxes {
		op := BoxOp{
			Rect:         serializeRect(b.Rect),
			Color:        serializeColor(b.Color),
			BorderWidth:  round2(b.BorderThickness),
			CornerRadius: round2(b.CornerRadius),
			Hot:          b.Interaction&graphics.InteractionHot != 0,
			Active:       b.Interaction&graphics.InteractionActive != 0,
		}
		if b.BorderThickness > 0 {
			op.Border = serializeColor(b.BorderColor)
		}
		snap.Boxes = append(snap.Boxes, op)
	}
	for _, r := range frame.Runs {
		snap.Runs = append(snap.Runs, RunOp{
			Text:     frame.Text(r),
			Origin:   [2]float64{round2(r.Origin.X), round2(r.Origin.Y)},
			Color:    serializeColor(r.Color),
			FontSize: round2(r.FontSize),
		})
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When
// IMDRIFT_UPDATE_SNAPSHOTS=1 is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

var flagNames = []struct {
	flag core.Flags
	name string
}{
	{core.FlagClickable, "clickable"},
	{core.FlagDrawBackground, "background"},
	{core.FlagDrawText, "text"},
	{core.FlagDrawBorder, "border"},
	{core.FlagClip, "clip"},
	{core.FlagScroll, "scroll"},
}

func captureWidgetNode(tree *core.Tree, id core.WidgetID) *WidgetNode {
	w := tree.Widget(id)
	node := &WidgetNode{
		Name: w.Name,
		Size: [2]string{w.Size[graphics.AxisX].String(), w.Size[graphics.AxisY].String()},
		Rect: serializeRect(w.Rect),
	}
	if w.Flags.Has(core.FlagDrawText) {
		node.Text = w.Text
	}
	for _, f := range flagNames {
		if w.Flags.Has(f.flag) {
			node.Flags = append(node.Flags, f.name)
		}
	}
	for c := range tree.Children(id) {
		node.Children = append(node.Children, captureWidgetNode(tree, c))
	}
	return node
}

func serializeRect(r graphics.Rect) [4]float64 {
	return [4]float64{round2(r.Left), round2(r.Top), round2(r.Width()), round2(r.Height())}
}

func serializeColor(c graphics.Color) string {
	return fmt.Sprintf("#%08x", uint32(c))
}

func round2(f float32) float64 {
	return math.Round(float64(f)*100) / 100
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	for i := range max(len(expectedLines), len(actualLines)) {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
