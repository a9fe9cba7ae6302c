package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/qrlabel/errors"
)

// This file converts physical label dimensions into pixel canvases.

// Unit is the physical unit a label dimension is expressed in.
type Unit int

const (
	UnitPX Unit = iota // pixels, passed through unchanged
	UnitMM             // millimeters
	UnitCM             // centimeters
	UnitM              // meters
)

// Defaults taken from the large-format label the tool was built for.
const (
	DefaultWidthPX  = 6614
	DefaultHeightPX = 6850
	DefaultDPI      = 600

	// MaxCanvasPixels bounds a single label buffer (4 bytes per pixel).
	MaxCanvasPixels = 120_000_000
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitM:
		return "m"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

func (u Unit) String() string { return UnitToString(u) }

// ParseUnit accepts mm, cm, m and px (case-insensitive). An empty string means px.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "px", "pixel", "pixels":
		return UnitPX, nil
	case "mm":
		return UnitMM, nil
	case "cm":
		return UnitCM, nil
	case "m":
		return UnitM, nil
	default:
		return UnitPX, errors.New(errors.ErrCodeInvalidConfig, "unknown unit %q (want mm, cm, m or px)", s)
	}
}

// ToPixels converts value in unit to pixels at dpi, truncating toward zero.
// The division happens before the multiplication so that 25.4mm is exactly dpi pixels.
func ToPixels(value float64, unit Unit, dpi int) (int, error) {
	if dpi <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "dpi must be positive, got %d", dpi)
	}
	if value <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "dimension must be positive, got %g%s", value, unit)
	}
	var px float64
	switch unit {
	case UnitMM:
		px = (value / 25.4) * float64(dpi)
	case UnitCM:
		px = (value / 2.54) * float64(dpi)
	case UnitM:
		px = (value * 100 / 2.54) * float64(dpi)
	case UnitPX:
		px = value
	default:
		return 0, errors.New(errors.ErrCodeInvalidConfig, "unsupported unit %d", unit)
	}
	n := int(px)
	if n < 1 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "%g%s is smaller than one pixel at %d dpi", value, unit, dpi)
	}
	return n, nil
}

// PixelsToMM converts a pixel count back to millimeters at dpi.
func PixelsToMM(px, dpi int) float64 {
	if dpi <= 0 {
		return 0
	}
	return float64(px) * 25.4 / float64(dpi)
}

// DimensionSpec is a label size as the user enters it.
type DimensionSpec struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   Unit    `json:"unit"`
	DPI    int     `json:"dpi"`
}

// Canvas resolves the spec into a pixel canvas.
func (d DimensionSpec) Canvas() (CanvasSpec, error) {
	w, err := ToPixels(d.Width, d.Unit, d.DPI)
	if err != nil {
		return CanvasSpec{}, fmt.Errorf("width: %w", err)
	}
	h, err := ToPixels(d.Height, d.Unit, d.DPI)
	if err != nil {
		return CanvasSpec{}, fmt.Errorf("height: %w", err)
	}
	c := CanvasSpec{Width: w, Height: h, DPI: d.DPI}
	if err := c.Validate(); err != nil {
		return CanvasSpec{}, err
	}
	return c, nil
}

// CanvasSpec is the pixel size and print resolution shared by every label of a batch.
type CanvasSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	DPI    int `json:"dpi"`
}

// DefaultCanvas returns the 6614x6850 px, 600 dpi label.
func DefaultCanvas() CanvasSpec {
	return CanvasSpec{Width: DefaultWidthPX, Height: DefaultHeightPX, DPI: DefaultDPI}
}

// Validate reports a configuration error for non-positive or oversized canvases.
func (c CanvasSpec) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.DPI <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "dpi must be positive, got %d", c.DPI)
	}
	if int64(c.Width)*int64(c.Height) > MaxCanvasPixels {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas %dx%d exceeds %d pixels", c.Width, c.Height, MaxCanvasPixels)
	}
	return nil
}

// WidthMM returns the physical page width.
func (c CanvasSpec) WidthMM() float64 { return PixelsToMM(c.Width, c.DPI) }

// HeightMM returns the physical page height.
func (c CanvasSpec) HeightMM() float64 { return PixelsToMM(c.Height, c.DPI) }
