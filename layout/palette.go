package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/qrlabel/errors"
)

// DefaultColor 是未定义分类码使用的中灰色。
var DefaultColor = Color{R: 128, G: 128, B: 128}

// Overrides 是调用方维护的自定义颜色表，优先于内置色板。
// 批处理开始前由调用方冻结；Resolve 只读不写。
type Overrides map[string]Color

// Clone 返回按大写键复制的快照。
func (o Overrides) Clone() Overrides {
	if o == nil {
		return nil
	}
	out := make(Overrides, len(o))
	for k, v := range o {
		out[normalizeCode(k)] = v
	}
	return out
}

// PaletteEntry 是内置色板中的一项。
type PaletteEntry struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

var builtinPalette = []PaletteEntry{
	{"Z", "gray", Color{135, 135, 135}},
	{"A", "red", Color{213, 43, 30}},
	{"B", "green", Color{0, 133, 66}},
	{"C", "blue", Color{0, 101, 189}},
	{"D", "yellow", Color{240, 171, 0}},
	{"F", "pink", Color{215, 31, 133}},
	{"G", "purple", Color{117, 48, 119}},
	{"H", "orange", Color{255, 88, 0}},
	{"I", "light yellow", Color{249, 227, 0}},
	{"J", "black", Color{0, 0, 0}},
	{"P", "navy", Color{0, 38, 100}},
	{"Q", "brown", Color{104, 69, 13}},
	{"M", "beige", Color{198, 191, 110}},
	{"L", "dark gray", Color{78, 84, 87}},
	{"N", "light gray", Color{178, 175, 175}},
	{"S", "sky blue", Color{0, 161, 222}},
	{"T", "gray", Color{127, 127, 126}},
	{"R", "dark green", Color{56, 142, 60}},
	{"R1", "dark green", Color{56, 142, 60}},
	{"R2", "dark green", Color{56, 142, 60}},
	{"R3", "dark green", Color{56, 142, 60}},
	{"R4", "dark green", Color{56, 142, 60}},
	{"V", "cream", Color{255, 234, 200}},
}

var builtinIndex = func() map[string]Color {
	m := make(map[string]Color, len(builtinPalette))
	for _, e := range builtinPalette {
		m[e.Code] = e.Color
	}
	return m
}()

// BuiltinPalette 返回内置色板的副本（保持定义顺序）。
func BuiltinPalette() []PaletteEntry {
	out := make([]PaletteEntry, len(builtinPalette))
	copy(out, builtinPalette)
	return out
}

// Resolve 将分类码映射为背景色：自定义表 → 内置色板 → DefaultColor。
// 对任意输入都返回确定的颜色，不会失败。
func Resolve(code string, overrides Overrides) Color {
	c, _ := Lookup(code, overrides)
	return c
}

// Source 说明颜色来自哪一层。
type Source int

const (
	SourceDefault Source = iota
	SourceBuiltin
	SourceOverride
)

func (s Source) String() string {
	switch s {
	case SourceOverride:
		return "custom"
	case SourceBuiltin:
		return "builtin"
	default:
		return "default"
	}
}

// Lookup 与 Resolve 相同，但同时返回颜色来源。
func Lookup(code string, overrides Overrides) (Color, Source) {
	key := normalizeCode(code)
	if c, ok := overrides[key]; ok {
		return c, SourceOverride
	}
	// 调用方可能直接写入了小写键；多个键归一后相同时取字典序最小者
	var (
		found   bool
		bestKey string
		best    Color
	)
	for k, c := range overrides {
		if normalizeCode(k) != key {
			continue
		}
		if !found || k < bestKey {
			found, bestKey, best = true, k, c
		}
	}
	if found {
		return best, SourceOverride
	}
	if c, ok := builtinIndex[key]; ok {
		return c, SourceBuiltin
	}
	return DefaultColor, SourceDefault
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseHex 解析 #rgb 或 #rrggbb 形式的颜色。
func ParseHex(s string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return Color{}, errors.New(errors.ErrCodeInvalidConfig, "invalid color %q", s)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid color %q", s)
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// Hex 返回 #rrggbb 形式。
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Brightness 按 (299R+587G+114B)/1000 计算感知亮度。
func (c Color) Brightness() float64 {
	return (float64(c.R)*299 + float64(c.G)*587 + float64(c.B)*114) / 1000
}

// IsLight 表示在该底色上应使用深色文字。
func (c Color) IsLight() bool { return c.Brightness() >= 128 }
