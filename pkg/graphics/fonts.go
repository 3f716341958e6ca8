package graphics

import (
	stderrors "errors"
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrUnknownFont is returned when a FontID has no registered face.
var ErrUnknownFont = stderrors.New("unknown font")

// FaceLoader produces a face for a pixel size.
type FaceLoader func(size float32) (font.Face, error)

// OpenTypeLoader parses an OpenType/TrueType font once and returns a loader
// that instantiates faces at any size.
func OpenTypeLoader(data []byte) (FaceLoader, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return func(size float32) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}, nil
}

// BasicLoader returns the fixed 7x13 bitmap face regardless of size.
func BasicLoader() FaceLoader {
	return func(float32) (font.Face, error) {
		return basicfont.Face7x13, nil
	}
}

type faceKey struct {
	font FontID
	size float32
}

// FaceMetrics implements FontMetrics over golang.org/x/image/font faces.
// Faces are created lazily per (font, size) and kept for the lifetime of
// the FaceMetrics.
type FaceMetrics struct {
	loaders map[FontID]FaceLoader
	faces   map[faceKey]font.Face
}

// NewFaceMetrics returns metrics with no fonts registered.
func NewFaceMetrics() *FaceMetrics {
	return &FaceMetrics{
		loaders: make(map[FontID]FaceLoader),
		faces:   make(map[faceKey]font.Face),
	}
}

// Register installs the loader for id, dropping faces cached for it.
func (m *FaceMetrics) Register(id FontID, loader FaceLoader) {
	m.loaders[id] = loader
	for k := range m.faces {
		if k.font == id {
			delete(m.faces, k)
		}
	}
}

var (
	goRegular    FaceLoader
	goRegularErr error
	goRegularOne sync.Once
)

// NewDefaultFaceMetrics returns metrics with Go Regular registered as font
// 0. The font is parsed once per process; faces are not shared between the
// returned values, so each may be used from its own goroutine.
func NewDefaultFaceMetrics() (*FaceMetrics, error) {
	goRegularOne.Do(func() {
		goRegular, goRegularErr = OpenTypeLoader(goregular.TTF)
	})
	if goRegularErr != nil {
		return nil, goRegularErr
	}
	m := NewFaceMetrics()
	m.Register(0, goRegular)
	return m, nil
}

func (m *FaceMetrics) face(id FontID, size float32) (font.Face, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	key := faceKey{font: id, size: size}
	if f, ok := m.faces[key]; ok {
		return f, nil
	}
	loader, ok := m.loaders[id]
	if !ok {
		return nil, fmt.Errorf("font %d: %w", id, ErrUnknownFont)
	}
	f, err := loader(size)
	if err != nil {
		return nil, fmt.Errorf("font %d at %gpx: %w", id, size, err)
	}
	m.faces[key] = f
	return f, nil
}

// MeasureText returns the advance width and line height of text.
func (m *FaceMetrics) MeasureText(id FontID, size float32, text string) (Size, error) {
	f, err := m.face(id, size)
	if err != nil {
		return Size{}, err
	}
	return Size{
		Width:  fromFixed(font.MeasureString(f, text)),
		Height: fromFixed(f.Metrics().Height),
	}, nil
}

// Glyph returns the bounds and advance of r. Bearing.Y is negative for
// glyph parts above the baseline.
func (m *FaceMetrics) Glyph(id FontID, size float32, r rune) (GlyphMetrics, bool) {
	f, err := m.face(id, size)
	if err != nil {
		return GlyphMetrics{}, false
	}
	bounds, advance, ok := f.GlyphBounds(r)
	if !ok {
		return GlyphMetrics{}, false
	}
	return GlyphMetrics{
		Bearing: Offset{X: fromFixed(bounds.Min.X), Y: fromFixed(bounds.Min.Y)},
		Size: Size{
			Width:  fromFixed(bounds.Max.X - bounds.Min.X),
			Height: fromFixed(bounds.Max.Y - bounds.Min.Y),
		},
		Advance: fromFixed(advance),
	}, true
}

// Ascent returns the face ascent, or 0 when the font is unknown.
func (m *FaceMetrics) Ascent(id FontID, size float32) float32 {
	f, err := m.face(id, size)
	if err != nil {
		return 0
	}
	return fromFixed(f.Metrics().Ascent)
}

func fromFixed(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
