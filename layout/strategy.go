package layout

import (
	"fmt"
	"strings"
)

// FontInput 汇总字号策略所需的全部输入。
type FontInput struct {
	Caption    string
	Category   string
	Lines      []string
	Canvas     CanvasSpec
	QRSize     int // 二维码边长（像素，含白边）
	Typesetter Typesetter
}

// Placement 是策略的输出：字号、文字块顶部与二维码左上角。
// 文字锚点依赖二维码位置，因此两者由同一个策略给出。
type Placement struct {
	FontSize int `json:"fontSize"`
	TextY    int `json:"textY"`
	QRX      int `json:"qrX"`
	QRY      int `json:"qrY"`
}

// FontStrategy 决定字号与文字/二维码的纵向位置。
type FontStrategy interface {
	Name() string
	// QRModule 返回二维码单个模块的边长（像素）。
	QRModule(c CanvasSpec) int
	ChooseFont(in FontInput) Placement
}

// TextReserver 由要求文字位于二维码上方的策略实现。
// Build 据此缩小二维码模块，保证最小字号的文字块仍能放在二维码之上。
type TextReserver interface {
	// ReservedHeight 返回二维码上方至少需要的像素高度（含上边距与间距）。
	ReservedHeight(in FontInput) int
}

// StrategyByName 按名称返回内置策略：proportional（默认）或 fixed。
func StrategyByName(name string) (FontStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "proportional":
		return Proportional{}, nil
	case "fixed", "preset", "fixed-preset":
		return FixedPreset{}, nil
	default:
		return nil, fmt.Errorf("unknown font strategy %q", name)
	}
}

// Proportional 按画布宽度与文字长度选择字号，文字块位于二维码正上方。
type Proportional struct {
	MaxSize int // >0 时限制最大字号
}

const (
	proportionalTopMargin = 0.05 // 文字块距顶部至少为画布高度的 5%
	proportionalGap       = 0.03 // 文字块与二维码的间距为画布高度的 3%
	proportionalFitWidth  = 0.9
	proportionalModules   = 35
	proportionalMinScale  = 0.5 // 二维码过大时文字最小可缩到 BaseSize 的一半
)

func (Proportional) Name() string { return "proportional" }

func (Proportional) QRModule(c CanvasSpec) int {
	m := min(c.Width, c.Height) / proportionalModules
	return max(m, 1)
}

// lengthScale 是按非空白字符数递减的五档系数。
func lengthScale(n int) float64 {
	switch {
	case n <= 6:
		return 1.0
	case n <= 10:
		return 0.85
	case n <= 15:
		return 0.7
	case n <= 20:
		return 0.55
	default:
		return 0.45
	}
}

// BaseSize 返回未做宽度适配的字号：floor(width/6) × 长度系数，再按 MaxSize 截断。
func (p Proportional) BaseSize(caption string, canvasWidth int) int {
	size := int(float64(canvasWidth/6) * lengthScale(NonSpaceLen(caption)))
	if p.MaxSize > 0 && size > p.MaxSize {
		size = p.MaxSize
	}
	return max(size, 1)
}

// ReservedHeight 按 BaseSize 的一半计算最小文字块，加上顶部边距与间距。
func (p Proportional) ReservedHeight(in FontInput) int {
	w, h := in.Canvas.Width, in.Canvas.Height
	size := max(int(float64(p.BaseSize(in.Caption, w))*proportionalMinScale), 1)
	size = fitWidth(in.Typesetter, in.Lines, size, int(float64(w)*proportionalFitWidth))
	block := in.Typesetter.LineHeight(size) * len(in.Lines)
	return int(float64(h)*proportionalTopMargin) + int(float64(h)*proportionalGap) + block
}

func (p Proportional) ChooseFont(in FontInput) Placement {
	w, h := in.Canvas.Width, in.Canvas.Height
	size := fitWidth(in.Typesetter, in.Lines, p.BaseSize(in.Caption, w), int(float64(w)*proportionalFitWidth))

	minTop := int(float64(h) * proportionalTopMargin)
	gap := int(float64(h) * proportionalGap)

	// 文字块放不下时按比例缩小字号
	avail := h - in.QRSize - gap - minTop
	for size > 1 {
		block := in.Typesetter.LineHeight(size) * len(in.Lines)
		if block <= avail || avail <= 0 {
			break
		}
		next := size * avail / block
		if next >= size {
			next = size - 1
		}
		size = max(next, 1)
	}
	block := in.Typesetter.LineHeight(size) * len(in.Lines)

	qrX := (w - in.QRSize) / 2
	qrY := (h - in.QRSize) / 2
	if qrY-gap-block < minTop {
		qrY = minTop + block + gap
	}
	qrY = min(qrY, h-in.QRSize)
	qrY = max(qrY, 0)

	textY := max(qrY-gap-block, minTop)
	return Placement{FontSize: size, TextY: textY, QRX: qrX, QRY: qrY}
}

// fitWidth 缩小字号直到最宽的一行不超过 limit。
func fitWidth(ts Typesetter, lines []string, size, limit int) int {
	for size > 1 {
		widest := 0
		for _, ln := range lines {
			widest = max(widest, ts.MeasureLine(ln, size))
		}
		if widest <= limit || widest == 0 {
			break
		}
		next := size * limit / widest
		if next >= size {
			next = size - 1
		}
		size = max(next, 1)
	}
	return size
}

// FixedPreset 复刻大幅面标签的固定字号规则：
// R、R1~R4 使用逐级减小的预设字号并下移文字；以 RETPLA 开头的文字加大上边距。
type FixedPreset struct {
	// ScaleToCanvas 为 true 时按画布宽度相对 6614px 等比缩放所有预设值。
	ScaleToCanvas bool
}

// FixedSizes 是六档预设字号（像素），从大到小。
var FixedSizes = [6]int{1500, 1250, 1000, 850, 650, 450}

// FixedMarker 是需要加大上边距的文字前缀。
const FixedMarker = "RETPLA"

const (
	fixedModule      = 180
	fixedQROffset    = 600
	fixedSizedAnchor = 500
	fixedMarkerTop   = 100
	fixedDefaultTop  = 10
)

var fixedSizedCodes = map[string]int{"R": 1, "R1": 2, "R2": 3, "R3": 4, "R4": 5}

func (FixedPreset) Name() string { return "fixed" }

func (f FixedPreset) scale(v int, c CanvasSpec) int {
	if !f.ScaleToCanvas || c.Width == DefaultWidthPX {
		return v
	}
	return max(v*c.Width/DefaultWidthPX, 1)
}

func (f FixedPreset) QRModule(c CanvasSpec) int { return f.scale(fixedModule, c) }

func (f FixedPreset) ChooseFont(in FontInput) Placement {
	size, top := FixedSizes[0], fixedDefaultTop
	if idx, ok := fixedSizedCodes[normalizeCode(in.Category)]; ok {
		size, top = FixedSizes[idx], fixedSizedAnchor
	} else if strings.HasPrefix(strings.TrimSpace(in.Caption), FixedMarker) {
		top = fixedMarkerTop
	}
	c := in.Canvas
	return Placement{
		FontSize: f.scale(size, c),
		TextY:    f.scale(top, c),
		QRX:      (c.Width - in.QRSize) / 2,
		QRY:      (c.Height-in.QRSize)/2 + f.scale(fixedQROffset, c),
	}
}

var (
	_ FontStrategy = Proportional{}
	_ FontStrategy = FixedPreset{}
	_ TextReserver = Proportional{}
)
