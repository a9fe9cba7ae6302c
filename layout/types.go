package layout

// 该文件定义标签记录与布局结果，供布局计算、渲染与调试 JSON 共用。

// Record 是一条待渲染的标签数据：二维码内容、标签文字与颜色分类码。
type Record struct {
	Payload  string `json:"payload"`
	Caption  string `json:"caption"`
	Category string `json:"category"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// TextLayout 是文字排版的结果：1~2 行、字号（像素）与文字块顶部位置。
type TextLayout struct {
	Lines    []string `json:"lines"`
	FontSize int      `json:"fontSize"`
	AnchorY  int      `json:"anchorY"`
}

// Label 记录一张标签最终可以直接绘制的全部元素（单位：像素）。
type Label struct {
	Canvas     CanvasSpec `json:"canvas"`
	Background Color      `json:"background"`
	Text       TextBox    `json:"text"`
	QR         QRBox      `json:"qr"`
	Strategy   string     `json:"strategy"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// Layout 返回文字排版摘要。
func (l *Label) Layout() TextLayout {
	lines := make([]string, len(l.Text.Lines))
	for i, ln := range l.Text.Lines {
		lines[i] = ln.Content
	}
	return TextLayout{Lines: lines, FontSize: l.Text.FontSize, AnchorY: l.Text.Y}
}

// TextBox 表示已经排好坐标的文字块，每行单独居中。
type TextBox struct {
	Y          int        `json:"y"`
	FontSize   int        `json:"fontSize"`
	LineHeight int        `json:"lineHeight"`
	Color      Color      `json:"color"`
	Shadow     *Shadow    `json:"shadow,omitempty"`
	Lines      []TextLine `json:"lines"`
}

// Height 返回文字块总高度。
func (t TextBox) Height() int { return t.LineHeight * len(t.Lines) }

// TextLine 表示排版后的一行文字及其左上角坐标与宽度。
type TextLine struct {
	Content string `json:"content"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
}

// Shadow 是文字阴影：偏移后的深色副本，先于正文绘制。
type Shadow struct {
	Color  Color `json:"color"`
	Offset int   `json:"offset"`
}

// QRBox 描述二维码在画布上的位置与尺寸。Modules 含 1 个模块的白边。
type QRBox struct {
	Payload string `json:"payload"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Module  int    `json:"module"`
	Modules int    `json:"modules"`
	Version int    `json:"version"`
	Border  int    `json:"border"`
}

// Size 返回二维码图像边长（像素）。
func (q QRBox) Size() int { return q.Module * q.Modules }
