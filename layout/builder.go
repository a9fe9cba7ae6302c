package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/qr"
)

const shadowOffset = 2

var (
	white       = Color{R: 255, G: 255, B: 255}
	shadowColor = Color{R: 0, G: 0, B: 0}
)

// Validate 检查记录是否可渲染：二维码内容不能为空串（内容原样编码，
// 纯空白也是合法内容），文字去掉空白后不能为空。
func (r Record) Validate() error {
	if r.Payload == "" {
		return errors.New(errors.ErrCodeInvalidRecord, "empty payload")
	}
	if strings.TrimSpace(r.Caption) == "" {
		return errors.New(errors.ErrCodeInvalidRecord, "empty caption")
	}
	return nil
}

// Build 根据记录与画布计算标签布局：背景色、折行文字、二维码位置。
// 结果只取决于 (record, canvas, overrides, opts)，相同输入得到相同布局。
func Build(rec Record, canvas CanvasSpec, overrides Overrides, opts BuildOptions) (*Label, *qr.Symbol, error) {
	if opts.Typesetter == nil {
		return nil, nil, errors.New(errors.ErrCodeInternal, "layout: missing Typesetter")
	}
	if err := canvas.Validate(); err != nil {
		return nil, nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, nil, err
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = Proportional{}
	}

	sym, err := qr.Encode(rec.Payload)
	if err != nil {
		return nil, nil, err
	}

	label := &Label{
		Canvas:     canvas,
		Background: Resolve(rec.Category, overrides),
		Strategy:   strategy.Name(),
		Warnings:   append([]string(nil), opts.Typesetter.Warnings()...),
	}

	// 模块尺寸不能让二维码超出画布
	modules := sym.Modules(qr.Border)
	module := strategy.QRModule(canvas)
	if limit := min(canvas.Width, canvas.Height) / modules; module > limit {
		if limit < 1 {
			return nil, nil, errors.New(errors.ErrCodeRender, "QR version %d needs %d modules, canvas %dx%d is too small", sym.Version, modules, canvas.Width, canvas.Height)
		}
		label.Warnings = append(label.Warnings, fmt.Sprintf("QR module reduced from %dpx to %dpx to fit the canvas", module, limit))
		module = limit
	}
	qrSize := module * modules

	lines := WrapCaption(rec.Caption)
	in := FontInput{
		Caption:    rec.Caption,
		Category:   rec.Category,
		Lines:      lines,
		Canvas:     canvas,
		QRSize:     qrSize,
		Typesetter: opts.Typesetter,
	}
	// 文字必须在二维码上方时，为最小文字块让出高度
	if r, ok := strategy.(TextReserver); ok {
		if need := r.ReservedHeight(in); qrSize+need > canvas.Height {
			limit := (canvas.Height - need) / modules
			if limit < 1 {
				return nil, nil, errors.New(errors.ErrCodeRender, "canvas %dx%d leaves no room for the caption above a version %d QR code", canvas.Width, canvas.Height, sym.Version)
			}
			label.Warnings = append(label.Warnings, fmt.Sprintf("QR module reduced from %dpx to %dpx to leave room for the caption", module, limit))
			module = limit
			qrSize = module * modules
			in.QRSize = qrSize
		}
	}
	place := strategy.ChooseFont(in)
	if place.FontSize < 1 {
		place.FontSize = 1
	}
	if place.QRY+qrSize > canvas.Height {
		label.Warnings = append(label.Warnings, fmt.Sprintf("QR moved up %dpx to stay on the canvas", place.QRY+qrSize-canvas.Height))
		place.QRY = canvas.Height - qrSize
	}

	label.QR = QRBox{
		Payload: rec.Payload,
		X:       place.QRX,
		Y:       place.QRY,
		Module:  module,
		Modules: modules,
		Version: sym.Version,
		Border:  qr.Border,
	}
	label.Text = composeText(lines, place, canvas, opts)
	return label, sym, nil
}

// composeText 为每一行单独测量宽度并水平居中；行高只计算一次。
func composeText(lines []string, place Placement, canvas CanvasSpec, opts BuildOptions) TextBox {
	ts := opts.Typesetter
	lineHeight := ts.LineHeight(place.FontSize)
	box := TextBox{
		Y:          place.TextY,
		FontSize:   place.FontSize,
		LineHeight: lineHeight,
		Color:      white,
		Lines:      make([]TextLine, 0, len(lines)),
	}
	if opts.TextColor != nil {
		box.Color = *opts.TextColor
	}
	if opts.Shadow {
		box.Shadow = &Shadow{Color: shadowColor, Offset: shadowOffset}
	}
	for i, ln := range lines {
		w := ts.MeasureLine(ln, place.FontSize)
		box.Lines = append(box.Lines, TextLine{
			Content: ln,
			X:       (canvas.Width - w) / 2,
			Y:       place.TextY + i*lineHeight,
			Width:   w,
		})
	}
	return box
}
