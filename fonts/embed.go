// Package fonts 负责按顺序尝试字体来源：配置的字体文件、内置 Go Bold、basicfont 位图字体。
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// EmbeddedName 是内置字体在提示信息中的名称。
const EmbeddedName = "embed:gobold"

// BasicName 是最终兜底的位图字体名称。
const BasicName = "basic:7x13"

// Font 是已解析的字体，可在多个 goroutine 间只读共享。
// 字体面（font.Face）不是并发安全的，需要由调用方按需创建。
type Font struct {
	Name string
	otf  *opentype.Font // nil 表示 basicfont 兜底
}

var (
	embeddedOnce sync.Once
	embeddedFont *opentype.Font
	embeddedErr  error

	parsedMu sync.Mutex
	parsed   = map[string]*opentype.Font{}
)

// Embedded 返回内置 Go Bold 字体，只解析一次。
func Embedded() (*Font, error) {
	embeddedOnce.Do(func() {
		embeddedFont, embeddedErr = opentype.Parse(gobold.TTF)
	})
	if embeddedErr != nil {
		return nil, fmt.Errorf("解析内置字体失败: %w", embeddedErr)
	}
	return &Font{Name: EmbeddedName, otf: embeddedFont}, nil
}

// Basic 返回固定 13px 的位图字体，字号参数对其无效。
func Basic() *Font { return &Font{Name: BasicName} }

// LoadFile 读取并解析一个 TTF/OTF 文件，同一路径只解析一次。
func LoadFile(path string) (*Font, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	parsedMu.Lock()
	defer parsedMu.Unlock()
	if f, ok := parsed[abs]; ok {
		return &Font{Name: path, otf: f}, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", path, err)
	}
	parsed[abs] = f
	return &Font{Name: path, otf: f}, nil
}

// Load 依次尝试 paths、内置字体与位图字体，返回第一个成功的来源。
// 任何一次失败都记为提示信息而不是错误；最终总能得到一个可用字体。
func Load(paths ...string) (*Font, []string) {
	var warnings []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		f, err := LoadFile(p)
		if err == nil {
			return f, warnings
		}
		warnings = append(warnings, err.Error())
	}
	f, err := Embedded()
	if err == nil {
		if len(warnings) > 0 {
			warnings = append(warnings, "font fallback: "+EmbeddedName)
		}
		return f, warnings
	}
	warnings = append(warnings, err.Error(), "font fallback: "+BasicName)
	return Basic(), warnings
}

// Scalable 报告字体是否支持任意字号。
func (f *Font) Scalable() bool { return f != nil && f.otf != nil }

// Face 创建一个 size 像素（em）大小的字体面，调用方负责 Close。
func (f *Font) Face(size int) (font.Face, error) {
	if !f.Scalable() {
		return basicfont.Face7x13, nil
	}
	if size < 1 {
		size = 1
	}
	face, err := opentype.NewFace(f.otf, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 %dpx 字体面失败: %w", size, err)
	}
	return face, nil
}
