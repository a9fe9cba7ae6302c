package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"

	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/fonts"
	"github.com/ByLCY/qrlabel/layout"
)

var smallCanvas = layout.CanvasSpec{Width: 300, Height: 320, DPI: 72}

func render(t *testing.T, r *Renderer, rec layout.Record) (*image.RGBA, *layout.Label) {
	t.Helper()
	img, label, err := r.RenderRecord(rec, smallCanvas, nil)
	if err != nil {
		t.Fatalf("RenderRecord(%+v): %v", rec, err)
	}
	if b := img.Bounds(); b.Dx() != smallCanvas.Width || b.Dy() != smallCanvas.Height {
		t.Fatalf("image is %v, want %dx%d", b, smallCanvas.Width, smallCanvas.Height)
	}
	return img, label
}

func TestRenderIsDeterministic(t *testing.T) {
	rec := layout.Record{Payload: "A02-01-01-01", Caption: "Almacén Central", Category: "A"}
	a, _ := render(t, New(Options{}), rec)
	b, _ := render(t, New(Options{}), rec)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("identical input produced different pixels")
	}
}

func TestRenderDrawsBackgroundTextAndQR(t *testing.T) {
	img, label := render(t, New(Options{}), layout.Record{Payload: "A02-01-01-01", Caption: "A02-01", Category: "A"})

	red := color.RGBA{213, 43, 30, 255}
	if got := img.RGBAAt(0, smallCanvas.Height-1); got != red {
		t.Fatalf("background pixel = %v, want %v", got, red)
	}

	q := label.QR
	if got := img.RGBAAt(q.X, q.Y); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("QR border pixel = %v", got)
	}
	if got := img.RGBAAt(q.X+q.Module, q.Y+q.Module); got != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("QR finder pixel = %v", got)
	}

	var white, dark int
	for y := label.Text.Y; y < label.Text.Y+label.Text.Height(); y++ {
		for x := 0; x < smallCanvas.Width; x++ {
			p := img.RGBAAt(x, y)
			switch {
			case p.R == 255 && p.G == 255 && p.B == 255:
				white++
			case p.R < 100 && p.G < 100 && p.B < 100:
				dark++
			}
		}
	}
	if white == 0 {
		t.Fatal("caption pixels missing")
	}
	if dark == 0 {
		t.Fatal("shadow pixels missing")
	}
}

func TestRenderWithoutShadow(t *testing.T) {
	img, label := render(t, New(Options{NoShadow: true}), layout.Record{Payload: "B03-02-01-02", Caption: "Oficina", Category: "A"})
	if label.Text.Shadow != nil {
		t.Fatal("shadow should be disabled")
	}
	for y := label.Text.Y; y < label.Text.Y+label.Text.Height(); y++ {
		for x := 0; x < smallCanvas.Width; x++ {
			if p := img.RGBAAt(x, y); p.R < 100 {
				t.Fatalf("unexpected dark pixel %v at %d,%d", p, x, y)
			}
		}
	}
}

// decodeQR 裁出标签上的二维码并补足静区后解码。
func decodeQR(t *testing.T, img *image.RGBA, label *layout.Label) string {
	t.Helper()
	q := label.QR
	pad := 4 * q.Module
	out := image.NewGray(image.Rect(0, 0, q.Size()+2*pad, q.Size()+2*pad))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(pad, pad, pad+q.Size(), pad+q.Size()), img, image.Pt(q.X, q.Y), draw.Src)

	bmp, err := gozxing.NewBinaryBitmapFromImage(out)
	if err != nil {
		t.Fatal(err)
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.GetText()
}

func TestRenderedQRDecodes(t *testing.T) {
	img, label := render(t, New(Options{}), layout.Record{Payload: "A02-01-01-01", Caption: "A02-01", Category: "C"})
	if got := decodeQR(t, img, label); got != "A02-01-01-01" {
		t.Fatalf("decoded %q", got)
	}
}

func TestRenderLongPayloadKeepsCaptionClear(t *testing.T) {
	const payload = "https://example.com/loc/a02-01"
	img, label := render(t, New(Options{}), layout.Record{Payload: payload, Caption: "Almacén Central", Category: "C"})
	if label.QR.Version < 4 {
		t.Fatalf("expected version >= 4, got %d", label.QR.Version)
	}
	if bottom := label.Text.Y + label.Text.Height(); bottom > label.QR.Y {
		t.Fatalf("caption bottom %d overlaps QR top %d", bottom, label.QR.Y)
	}
	if len(label.Warnings) == 0 {
		t.Fatal("expected a warning about the reduced QR module")
	}
	if got := decodeQR(t, img, label); got != payload {
		t.Fatalf("decoded %q", got)
	}
}

func TestRenderRejectsInvalidRecord(t *testing.T) {
	_, _, err := New(Options{}).RenderRecord(layout.Record{Payload: "x", Caption: " "}, smallCanvas, nil)
	if !errors.Is(err, errors.ErrCodeInvalidRecord) {
		t.Fatalf("got %v, want INVALID_RECORD", err)
	}
}

func TestTypesetterMetrics(t *testing.T) {
	r := New(Options{})
	if r.FontName() == "" || len(r.Warnings()) != 0 {
		t.Fatalf("font %q warnings %q", r.FontName(), r.Warnings())
	}
	if r.MeasureLine("WWWW", 100) <= r.MeasureLine("iiii", 100) {
		t.Fatal("proportional font expected")
	}
	if r.MeasureLine("A02-01", 200) <= r.MeasureLine("A02-01", 100) {
		t.Fatal("width should grow with size")
	}
	if h := r.LineHeight(100); h < 80 || h > 130 {
		t.Fatalf("line height for 100px = %d", h)
	}
}

func TestMissingFontFallsBack(t *testing.T) {
	r := New(Options{FontPaths: []string{filepath.Join(t.TempDir(), "nope.ttf")}})
	if len(r.Warnings()) == 0 {
		t.Fatal("expected a font warning")
	}
	_, label := render(t, r, layout.Record{Payload: "p", Caption: "x", Category: "B"})
	if len(label.Warnings) == 0 {
		t.Fatal("font warnings should reach the label plan")
	}
}

func TestWritePNG(t *testing.T) {
	img, _ := render(t, New(Options{}), layout.Record{Payload: "p", Caption: "x", Category: "B"})
	path := filepath.Join(t.TempDir(), "out", "first.png")
	if err := WritePNG(img, path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != smallCanvas.Width || cfg.Height != smallCanvas.Height {
		t.Fatalf("png is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestBasicFontFallback(t *testing.T) {
	r := NewWithFont(fonts.Basic(), []string{"font fallback: " + fonts.BasicName}, Options{})
	img, label := render(t, r, layout.Record{Payload: "A02-01-01-01", Caption: "Almacén Central", Category: "S"})
	if label.Text.FontSize < 1 || len(label.Text.Lines) != 2 {
		t.Fatalf("text box = %+v", label.Text)
	}
	if len(label.Warnings) == 0 || r.FontName() != fonts.BasicName {
		t.Fatalf("fallback not reported: %q", label.Warnings)
	}
	if img.RGBAAt(0, smallCanvas.Height-1) != (color.RGBA{0, 161, 222, 255}) {
		t.Fatal("background not drawn")
	}
}
