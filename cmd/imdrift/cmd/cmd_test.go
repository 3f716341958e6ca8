package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/immediate/pkg/config"
	"github.com/go-drift/immediate/pkg/engine"
	"github.com/go-drift/immediate/pkg/errors"
	"github.com/go-drift/immediate/pkg/graphics"
)

// project writes an imdrift.yaml with a 200x32 viewport (25x2 cells).
func testProject(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	yaml := "app:\n  name: demo\nengine:\n  viewport:\n    width: 200\n    height: 32\n" + extra
	require.NoError(t, os.WriteFile(filepath.Join(dir, "imdrift.yaml"), []byte(yaml), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	prevOut, prevDir := stdout, projectDir
	stdout = &out
	t.Cleanup(func() {
		stdout, projectDir = prevOut, prevDir
		errors.SetHandler(nil)
	})
	err := run(args)
	return out.String(), err
}

func TestHelpAndVersion(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "render")
	assert.Contains(t, out, "inspect")

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "imdrift version "+Version)

	out, err = execute(t, "render", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "imdrift render")
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "paint")
	assert.EqualError(t, err, "unknown command: paint")

	_, err = execute(t, "--dir")
	assert.Error(t, err)
}

func TestRenderPlain(t *testing.T) {
	dir := testProject(t, "")
	out, err := execute(t, "--dir", dir, "render", "--plain", "--title", "Demo")
	require.NoError(t, err)

	assert.Contains(t, out, "Demo")
	assert.Contains(t, out, "OpenSaveQuit")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderCustomButtons(t *testing.T) {
	dir := testProject(t, "")
	out, err := execute(t, "--dir="+dir, "render", "--plain", "Yes", "No")
	require.NoError(t, err)
	assert.Contains(t, out, "YesNo")
	assert.Contains(t, out, "demo", "title defaults to the app name")
}

func TestRenderPress(t *testing.T) {
	dir := testProject(t, "")
	out, err := execute(t, "--dir", dir, "render", "--plain", "--press", "Save")
	require.NoError(t, err)
	assert.Contains(t, out, "Save pressed 1 time(s)")

	_, err = execute(t, "--dir", dir, "render", "--press", "Nope")
	assert.EqualError(t, err, `no button labeled "Nope"`)

	_, err = execute(t, "--dir", dir, "render", "--bogus")
	assert.Error(t, err)
}

func TestRenderRejectsBadConfig(t *testing.T) {
	dir := testProject(t, "  cache:\n    buckets: -1\n")
	_, err := execute(t, "--dir", dir, "render")
	require.Error(t, err)
	assert.Equal(t, errors.KindConfig, errors.KindOf(err))
}

func TestConfigPrintsResolvedValues(t *testing.T) {
	dir := testProject(t, "theme: theme.toml\n")
	theme := "[colors]\nbackground = \"#102030\"\n\n[metrics]\nfont_size = 20\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.toml"), []byte(theme), 0o644))

	out, err := execute(t, "--dir", dir, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "app: demo")
	assert.Contains(t, out, "buckets: 4096")
	assert.Contains(t, out, "viewport: [0, 0, 200, 32]")
	assert.Contains(t, out, "background: '#102030ff'")
	assert.Contains(t, out, "font_size: 20")

	_, err = execute(t, "--dir", dir, "config", "extra")
	assert.Error(t, err)
}

func TestParseInspectArgs(t *testing.T) {
	opts, err := parseInspectArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9222", opts.addr)
	assert.Equal(t, 100*time.Millisecond, opts.interval)

	opts, err = parseInspectArgs([]string{"--addr", ":0", "--interval", "5ms", "--frames", "3", "--watch", "--verbose"})
	require.NoError(t, err)
	assert.Equal(t, inspectOptions{addr: ":0", interval: 5 * time.Millisecond, frames: 3, watch: true, verbose: true}, opts)

	for _, args := range [][]string{
		{"--interval", "soon"},
		{"--interval", "-1s"},
		{"--frames", "-2"},
		{"--frames"},
		{"--port", "1"},
		{"stray"},
	} {
		_, err := parseInspectArgs(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestLoopRunsFrameBudget(t *testing.T) {
	ctx, err := engine.NewContext(nil, engine.WithMetrics(graphics.CellMetrics{Aspect: cellAspect}))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := inspectOptions{interval: time.Millisecond, frames: 3}
	require.NoError(t, loop(context.Background(), ctx, newDemo("t", nil), opts, logger, nil))
	assert.Equal(t, uint64(3), ctx.Frame())

	done, cancel := context.WithCancel(context.Background())
	cancel()
	opts = inspectOptions{interval: time.Hour}
	require.NoError(t, loop(done, ctx, newDemo("t", nil), opts, logger, nil))
	assert.Equal(t, uint64(4), ctx.Frame(), "a cancelled loop finishes the frame in flight")
}

func TestInspectServes(t *testing.T) {
	dir := testProject(t, "")
	out, err := execute(t, "--dir", dir, "inspect", "--addr", "127.0.0.1:0", "--frames", "2", "--interval", "1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "http://127.0.0.1:")
}

func TestInspectWatchNeedsTheme(t *testing.T) {
	dir := testProject(t, "")
	_, err := execute(t, "--dir", dir, "inspect", "--addr", "127.0.0.1:0", "--frames", "1", "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no theme configured")
}

func TestLoopAppliesThemeReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	watcher, err := config.WatchTheme(path)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, err := engine.NewContext(nil, engine.WithMetrics(graphics.CellMetrics{Aspect: cellAspect}))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("[colors]\nbackground = \"#102030\"\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	done, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	opts := inspectOptions{interval: time.Hour, frames: 2}
	require.NoError(t, loop(done, ctx, newDemo("t", nil), opts, logger, watcher))

	require.Equal(t, uint64(2), ctx.Frame(), "the reload triggers the second frame")
	assert.Equal(t, graphics.RGB(0x10, 0x20, 0x30), ctx.DrawList().Boxes()[0].Color)
}

func TestDemoCountsClicks(t *testing.T) {
	pointer := &graphics.StaticPointer{}
	ctx, err := engine.NewContext(nil, engine.WithMetrics(graphics.CellMetrics{Aspect: cellAspect}), engine.WithPointer(pointer))
	require.NoError(t, err)
	d := newDemo("t", []string{"Go", "Go"})

	require.NoError(t, frame(ctx, d))
	rect, ok := findButton(ctx, d, "Go")
	require.True(t, ok)
	assert.Equal(t, graphics.RectFromLTWH(0, 16, 16, 16), rect)

	*pointer = graphics.StaticPointer{Position: rect.Center(), Down: true}
	require.NoError(t, frame(ctx, d))
	assert.Equal(t, 1, d.clicks["Go"], "only the button under the pointer is pressed")
}
