package layout

// BuildOptions 配置布局阶段所需的依赖，例如排版后端与字号策略。
type BuildOptions struct {
	Typesetter Typesetter
	Strategy   FontStrategy // 为空时使用 Proportional
	// Shadow 为 true 时在文字右下方 2px 处先绘制一份深色副本。
	Shadow bool
	// TextColor 为空时使用白色。
	TextColor *Color
}

// DefaultBuildOptions 返回默认配置：比例字号策略并开启文字阴影。
func DefaultBuildOptions(ts Typesetter) BuildOptions {
	return BuildOptions{Typesetter: ts, Strategy: Proportional{}, Shadow: true}
}

// Typesetter 负责按像素字号测量文字。
type Typesetter interface {
	// MeasureLine 返回单行文字的像素宽度。
	MeasureLine(text string, size int) int
	// LineHeight 返回相邻两行的间距（像素），对同一字号恒定。
	LineHeight(size int) int
	// Warnings 返回字体降级等非致命提示。
	Warnings() []string
}
