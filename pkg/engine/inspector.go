package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/go-drift/immediate/pkg/core"
	"github.com/go-drift/immediate/pkg/graphics"
)

// maxTreeDepth limits recursion depth when serializing malformed trees.
const maxTreeDepth = 500

const (
	// streamBuffer is the number of frame samples queued per stream client.
	// Samples are dropped for clients that fall further behind.
	streamBuffer    = 16
	streamWriteWait = 2 * time.Second
)

var upgrader = websocket.Upgrader{ReadBufferSize: 512, WriteBufferSize: 4096}

// SafeFloat wraps a float to handle Inf/NaN in JSON encoding.
type SafeFloat float64

func (f SafeFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(v, -1) {
		return []byte(`"-Infinity"`), nil
	}
	if math.IsNaN(v) {
		return []byte(`"NaN"`), nil
	}
	return json.Marshal(v)
}

// SafeRect is a JSON-safe version of graphics.Rect.
type SafeRect struct {
	Left   SafeFloat `json:"left"`
	Top    SafeFloat `json:"top"`
	Width  SafeFloat `json:"width"`
	Height SafeFloat `json:"height"`
}

func safeRect(r graphics.Rect) SafeRect {
	return SafeRect{
		Left:   SafeFloat(r.Left),
		Top:    SafeFloat(r.Top),
		Width:  SafeFloat(r.Width()),
		Height: SafeFloat(r.Height()),
	}
}

// WidgetTreeNode is one widget in the serialized frame tree.
type WidgetTreeNode struct {
	Name       string           `json:"name"`
	Key        string           `json:"key"`
	Size       [2]string        `json:"size"`
	Rect       SafeRect         `json:"rect"`
	Text       string           `json:"text,omitempty"`
	Hot        bool             `json:"hot,omitempty"`
	Active     bool             `json:"active,omitempty"`
	FirstFrame uint64           `json:"firstFrame"`
	Depth      int              `json:"depth"`
	Children   []WidgetTreeNode `json:"children,omitempty"`
}

// DrawListSummary describes the last submitted draw list.
type DrawListSummary struct {
	Frame uint64     `json:"frame"`
	Boxes []SafeRect `json:"boxes"`
	Runs  []string   `json:"runs"`
}

// Inspector serves JSON views of the last finished frame over HTTP:
// /widget-tree, /draw-list, /frames, /stats, /resources and /health.
// /stream upgrades to a WebSocket that receives one FrameSample per
// published frame. Frames are published by a Context configured
// WithInspector; handlers only read the published copies, so they may run
// concurrently with the frame loop.
type Inspector struct {
	mu    sync.RWMutex
	frame uint64
	tree  *WidgetTreeNode
	draw  DrawListSummary
	trace *FrameTraceBuffer
	stats Stats

	resources *ResourceLog

	subs map[chan FrameSample]struct{}

	server   *http.Server
	listener net.Listener
}

// NewInspector returns an inspector with nothing published.
func NewInspector() *Inspector {
	return &Inspector{
		subs: make(map[chan FrameSample]struct{}),
	}
}

func (in *Inspector) publish(c *Context, sample FrameSample) {
	var tree *WidgetTreeNode
	if root := c.tree.Root(); root.Valid() {
		node := serializeWidgetTree(c.tree, root, 0)
		tree = &node
	}

	list := c.list
	draw := DrawListSummary{Frame: c.frame, Boxes: make([]SafeRect, 0, len(list.Boxes())), Runs: make([]string, 0, len(list.Runs()))}
	for _, b := range list.Boxes() {
		draw.Boxes = append(draw.Boxes, safeRect(b.Rect))
	}
	for _, r := range list.Runs() {
		glyphs := list.Glyphs(r)
		text := make([]rune, len(glyphs))
		for i, g := range glyphs {
			text[i] = g.Rune
		}
		draw.Runs = append(draw.Runs, string(text))
	}

	in.mu.Lock()
	in.frame = c.frame
	in.tree = tree
	in.draw = draw
	in.trace = c.trace
	in.resources = c.resources
	in.stats = c.Stats()
	for ch := range in.subs {
		select {
		case ch <- sample:
		default:
		}
	}
	in.mu.Unlock()
}

func (in *Inspector) subscribe() chan FrameSample {
	ch := make(chan FrameSample, streamBuffer)
	in.mu.Lock()
	in.subs[ch] = struct{}{}
	in.mu.Unlock()
	return ch
}

// unsubscribe closes ch once; later calls are no-ops.
func (in *Inspector) unsubscribe(ch chan FrameSample) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.subs[ch]; ok {
		delete(in.subs, ch)
		close(ch)
	}
}

// handleStream subscribes before upgrading, so a client that has finished
// the handshake sees every later frame.
func (in *Inspector) handleStream(w http.ResponseWriter, r *http.Request) {
	ch := in.subscribe()
	defer in.unsubscribe(ch)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Reads only detect the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				in.unsubscribe(ch)
				return
			}
		}
	}()

	for sample := range ch {
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(sample); err != nil {
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(streamWriteWait))
}

func serializeWidgetTree(tree *core.Tree, id core.WidgetID, depth int) WidgetTreeNode {
	w := tree.Widget(id)
	node := WidgetTreeNode{
		Name:       w.Name,
		Key:        fmt.Sprintf("%016x", uint64(w.Key)),
		Size:       [2]string{w.Size[graphics.AxisX].String(), w.Size[graphics.AxisY].String()},
		Rect:       safeRect(w.Rect),
		Text:       w.Text,
		Hot:        w.Hot,
		Active:     w.Active,
		FirstFrame: w.FirstFrame,
		Depth:      depth,
	}
	if depth >= maxTreeDepth {
		return node
	}
	for c := range tree.Children(id) {
		node.Children = append(node.Children, serializeWidgetTree(tree, c, depth+1))
	}
	return node
}

// ServeHTTP routes inspector requests.
func (in *Inspector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/health":
		in.mu.RLock()
		frame := in.frame
		in.mu.RUnlock()
		writeJSON(w, struct {
			Status string `json:"status"`
			Frame  uint64 `json:"frame"`
		}{"ok", frame})
	case "/widget-tree":
		in.handleWidgetTree(w)
	case "/draw-list":
		in.mu.RLock()
		draw := in.draw
		in.mu.RUnlock()
		writeJSON(w, draw)
	case "/frames":
		in.handleFrameTimeline(w, r)
	case "/resources":
		in.handleResources(w, r)
	case "/stream":
		in.handleStream(w, r)
	case "/stats":
		in.mu.RLock()
		stats := in.stats
		in.mu.RUnlock()
		writeJSON(w, stats)
	default:
		http.NotFound(w, r)
	}
}

func (in *Inspector) handleWidgetTree(w http.ResponseWriter) {
	in.mu.RLock()
	tree := in.tree
	in.mu.RUnlock()
	if tree == nil {
		http.Error(w, "no widget tree", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, tree)
}

func (in *Inspector) handleFrameTimeline(w http.ResponseWriter, r *http.Request) {
	in.mu.RLock()
	trace := in.trace
	in.mu.RUnlock()
	if trace == nil {
		http.Error(w, "no frames published", http.StatusServiceUnavailable)
		return
	}

	resp := trace.Snapshot()
	applyFrameFilters(r, &resp)
	writeJSON(w, resp)
}

func applyFrameFilters(r *http.Request, resp *FrameTimeline) {
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var filters []func(FrameSample) bool
	if v := parseFloatQuery(r, "min_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.FrameMs >= v })
	}
	if v := parseFloatQuery(r, "layout_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.LayoutMs >= v })
	}
	if v := parseFloatQuery(r, "paint_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.Phases.PaintMs >= v })
	}
	if value := r.URL.Query().Get("evicted"); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil && parsed {
			filters = append(filters, func(s FrameSample) bool { return s.Counts.Evicted > 0 })
		}
	}

	if len(filters) > 0 {
		filtered := make([]FrameSample, 0, len(resp.Samples))
	outer:
		for _, sample := range resp.Samples {
			for _, f := range filters {
				if !f(sample) {
					continue outer
				}
			}
			filtered = append(filtered, sample)
		}
		resp.Samples = filtered
	}

	if limit > 0 && len(resp.Samples) > limit {
		resp.Samples = resp.Samples[len(resp.Samples)-limit:]
	}
}

func (in *Inspector) handleResources(w http.ResponseWriter, r *http.Request) {
	in.mu.RLock()
	res := in.resources
	in.mu.RUnlock()
	if res == nil {
		http.Error(w, "no frames published", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, struct {
		IntervalMs float64          `json:"intervalMs"`
		Samples    []ResourceSample `json:"samples"`
	}{durationToMillis(res.Interval()), applyResourceWindow(r, res.Snapshot())})
}

// applyResourceWindow keeps the samples taken within window seconds of the
// newest one. Frame time may come from a fake clock, so the wall clock is
// not consulted.
func applyResourceWindow(r *http.Request, samples []ResourceSample) []ResourceSample {
	windowSeconds := parseFloatQuery(r, "window")
	if windowSeconds <= 0 || len(samples) == 0 {
		return samples
	}
	cutoff := samples[len(samples)-1].Timestamp - int64(windowSeconds*1000)
	filtered := make([]ResourceSample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp >= cutoff {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func parseFloatQuery(r *http.Request, key string) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, v any) {
	// Encode to buffer first so we can catch errors
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Start serves the inspector on addr and returns the bound address.
// Starting a running inspector returns its current address.
func (in *Inspector) Start(addr string) (string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.server != nil {
		return in.listener.Addr().String(), nil
	}

	// Bind listener first to fail fast on port conflicts
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("inspector listen: %w", err)
	}
	server := &http.Server{Handler: in, ReadHeaderTimeout: 5 * time.Second}
	in.server = server
	in.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			in.mu.Lock()
			in.server = nil
			in.listener = nil
			in.mu.Unlock()
		}
	}()
	return listener.Addr().String(), nil
}

// Close gracefully shuts down a started inspector.
func (in *Inspector) Close() error {
	in.mu.Lock()
	server := in.server
	in.server = nil
	in.listener = nil
	for ch := range in.subs {
		delete(in.subs, ch)
		close(ch)
	}
	in.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
