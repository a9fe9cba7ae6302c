package renderer

import (
	"image"

	"github.com/ByLCY/qrlabel/layout"
	"github.com/ByLCY/qrlabel/qr"
)

// Renderer 将标签布局绘制为与画布同尺寸的位图。
// 相同的 label 与 symbol 必须得到逐字节相同的像素。
type Renderer interface {
	Render(label *layout.Label, sym *qr.Symbol) (*image.RGBA, error)
}

// Paginator 将位图封装为单页文档（例如 PDF），页面物理尺寸由 canvas 的 DPI 决定。
type Paginator interface {
	Paginate(img image.Image, canvas layout.CanvasSpec, meta DocumentMeta) ([]byte, error)
}

// DocumentMeta 是写入文档信息字典的元数据。
type DocumentMeta struct {
	Title    string
	Subject  string
	Author   string
	Creator  string
	Keywords []string
}
