// Package raster draws label plans into RGBA bitmaps with golang.org/x/image fonts.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/fonts"
	"github.com/ByLCY/qrlabel/layout"
	"github.com/ByLCY/qrlabel/qr"
	"github.com/ByLCY/qrlabel/renderer"
)

// referenceGlyph is measured to find the top of a line of capitals.
const referenceGlyph = "A"

// Renderer rasterizes labels and measures text for the layout stage.
// A Renderer is safe for concurrent use; faces are created per call.
type Renderer struct {
	font     *fonts.Font
	warnings []string
	strategy layout.FontStrategy
	shadow   bool

	mu      sync.Mutex
	measure map[int]font.Face // measuring faces by pixel size, guarded by mu
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the raster renderer.
type Options struct {
	// FontPaths are tried in order before the embedded font.
	FontPaths []string
	// Strategy defaults to layout.Proportional.
	Strategy layout.FontStrategy
	// NoShadow disables the dark copy drawn behind captions.
	NoShadow bool
}

// New creates a renderer. Font loading never fails: unusable sources are
// reported through Warnings and the next source is tried.
func New(opts Options) *Renderer {
	f, warnings := fonts.Load(opts.FontPaths...)
	return NewWithFont(f, warnings, opts)
}

// NewWithFont creates a renderer around an already loaded font.
func NewWithFont(f *fonts.Font, warnings []string, opts Options) *Renderer {
	strategy := opts.Strategy
	if strategy == nil {
		strategy = layout.Proportional{}
	}
	return &Renderer{
		font:     f,
		warnings: warnings,
		strategy: strategy,
		shadow:   !opts.NoShadow,
		measure:  map[int]font.Face{},
	}
}

// FontName reports which font source was selected.
func (r *Renderer) FontName() string { return r.font.Name }

// Warnings implements layout.Typesetter.
func (r *Renderer) Warnings() []string { return r.warnings }

// MeasureLine implements layout.Typesetter.
func (r *Renderer) MeasureLine(text string, size int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.measureFace(size)
	if err != nil {
		return 0
	}
	return font.MeasureString(face, text).Ceil()
}

// LineHeight implements layout.Typesetter: reference glyph height plus descent.
func (r *Renderer) LineHeight(size int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.measureFace(size)
	if err != nil {
		return size
	}
	ascent, descent := lineMetrics(face)
	return max(ascent+descent, 1)
}

func (r *Renderer) measureFace(size int) (font.Face, error) {
	if !r.font.Scalable() {
		size = 0
	}
	if face, ok := r.measure[size]; ok {
		return face, nil
	}
	face, err := r.font.Face(size)
	if err != nil {
		return nil, err
	}
	r.measure[size] = face
	return face, nil
}

func lineMetrics(face font.Face) (ascent, descent int) {
	bounds, _ := font.BoundString(face, referenceGlyph)
	ascent = (-bounds.Min.Y).Ceil()
	if ascent <= 0 {
		ascent = face.Metrics().Ascent.Ceil()
	}
	return ascent, face.Metrics().Descent.Ceil()
}

// BuildOptions returns the layout options this renderer measures for.
func (r *Renderer) BuildOptions() layout.BuildOptions {
	opts := layout.DefaultBuildOptions(r)
	opts.Strategy = r.strategy
	opts.Shadow = r.shadow
	return opts
}

// RenderRecord computes the layout for rec and draws it.
func (r *Renderer) RenderRecord(rec layout.Record, canvas layout.CanvasSpec, overrides layout.Overrides) (*image.RGBA, *layout.Label, error) {
	label, sym, err := layout.Build(rec, canvas, overrides, r.BuildOptions())
	if err != nil {
		return nil, nil, err
	}
	img, err := r.Render(label, sym)
	if err != nil {
		return nil, nil, err
	}
	return img, label, nil
}

// Render draws background, QR symbol and caption, in that order.
func (r *Renderer) Render(label *layout.Label, sym *qr.Symbol) (*image.RGBA, error) {
	if label == nil || sym == nil {
		return nil, errors.New(errors.ErrCodeInternal, "render: missing label or QR symbol")
	}
	if err := label.Canvas.Validate(); err != nil {
		return nil, err
	}
	if sym.Modules(label.QR.Border) != label.QR.Modules {
		return nil, errors.New(errors.ErrCodeInternal, "render: QR symbol has %d modules, plan expects %d", sym.Modules(label.QR.Border), label.QR.Modules)
	}

	c := label.Canvas
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgba(label.Background)), image.Point{}, draw.Src)

	q := label.QR
	sym.Draw(img, image.Pt(q.X, q.Y), q.Module, q.Border)

	if err := r.drawText(img, label.Text); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *Renderer) drawText(dst draw.Image, box layout.TextBox) error {
	if len(box.Lines) == 0 {
		return nil
	}
	face, err := r.font.Face(box.FontSize)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "caption font")
	}
	defer face.Close()

	ascent, _ := lineMetrics(face)
	d := &font.Drawer{Dst: dst, Face: face}
	for _, ln := range box.Lines {
		baseline := ln.Y + ascent
		if box.Shadow != nil {
			d.Src = image.NewUniform(rgba(box.Shadow.Color))
			d.Dot = fixed.P(ln.X+box.Shadow.Offset, baseline+box.Shadow.Offset)
			d.DrawString(ln.Content)
		}
		d.Src = image.NewUniform(rgba(box.Color))
		d.Dot = fixed.P(ln.X, baseline)
		d.DrawString(ln.Content)
	}
	return nil
}

func rgba(c layout.Color) color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff} }
