// Package qr encodes label payloads as QR symbols at the highest
// error-correction level and rasterizes them at a given module size.
package qr

import (
	"image"
	"image/color"
	"image/draw"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ByLCY/qrlabel/errors"
)

// Border is the quiet zone, in modules, drawn around every symbol.
const Border = 1

// Symbol is an encoded QR matrix without quiet zone.
type Symbol struct {
	Payload string
	Version int
	bits    [][]bool // bits[y][x], true is dark
}

// Encode builds the smallest QR version that holds payload at level H (~30% recovery).
// The payload is encoded as-is.
func Encode(payload string) (*Symbol, error) {
	if payload == "" {
		return nil, errors.New(errors.ErrCodeInvalidRecord, "empty QR payload")
	}
	q, err := qrcode.New(payload, qrcode.Highest)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "payload of %d bytes does not fit a QR code at level H", len(payload))
	}
	bm := q.Bitmap()
	side := 17 + 4*q.VersionNumber
	quiet := (len(bm) - side) / 2
	if quiet < 0 {
		return nil, errors.New(errors.ErrCodeInternal, "unexpected QR bitmap size %d for version %d", len(bm), q.VersionNumber)
	}
	bits := make([][]bool, side)
	for y := range side {
		bits[y] = bm[quiet+y][quiet : quiet+side]
	}
	return &Symbol{Payload: payload, Version: q.VersionNumber, bits: bits}, nil
}

// Side returns the number of modules per side, without quiet zone.
func (s *Symbol) Side() int { return len(s.bits) }

// Modules returns the number of modules per side including border modules on each side.
func (s *Symbol) Modules(border int) int { return s.Side() + 2*border }

// Dark reports whether the module at (x, y) is dark.
func (s *Symbol) Dark(x, y int) bool {
	if y < 0 || y >= len(s.bits) || x < 0 || x >= len(s.bits) {
		return false
	}
	return s.bits[y][x]
}

// Image renders the symbol black on white with the given module size in pixels.
func (s *Symbol) Image(module, border int) *image.Gray {
	n := s.Modules(border) * module
	img := image.NewGray(image.Rect(0, 0, n, n))
	s.Draw(img, image.Point{}, module, border)
	return img
}

// Draw paints the symbol onto dst with its top-left corner at at.
func (s *Symbol) Draw(dst draw.Image, at image.Point, module, border int) {
	n := s.Modules(border) * module
	draw.Draw(dst, image.Rect(at.X, at.Y, at.X+n, at.Y+n), image.White, image.Point{}, draw.Src)
	black := image.NewUniform(color.Black)
	for y, row := range s.bits {
		for x, dark := range row {
			if !dark {
				continue
			}
			px := at.X + (x+border)*module
			py := at.Y + (y+border)*module
			draw.Draw(dst, image.Rect(px, py, px+module, py+module), black, image.Point{}, draw.Src)
		}
	}
}
