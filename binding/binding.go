// Package binding 负责归档条目名模板的变量替换。
package binding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ByLCY/qrlabel/layout"
)

// DefaultNameTemplate 生成 "<payload>_<序号>.pdf"。
const DefaultNameTemplate = "${payload}_${ordinal}.pdf"

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${name} 或 ${name:%格式} 替换为 data 中的值。
// 名称不存在时保留原占位符。
func Interpolate(text string, data map[string]any) string {
	if len(data) == 0 {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name, format, hasFormat := strings.Cut(strings.TrimSpace(groups[1]), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return match
		}
		val, ok := data[name]
		if !ok {
			return match
		}
		if hasFormat && strings.HasPrefix(format, "%") {
			return fmt.Sprintf(format, val)
		}
		return fmt.Sprint(val)
	})
}

// RecordData 返回模板可用的变量：payload、caption、category 与从 1 开始的 ordinal。
func RecordData(rec layout.Record, ordinal int) map[string]any {
	return map[string]any{
		"payload":  rec.Payload,
		"caption":  rec.Caption,
		"category": rec.Category,
		"ordinal":  ordinal,
	}
}

// EntryName 按模板生成归档条目名，并清理路径分隔符。
func EntryName(tmpl string, rec layout.Record, ordinal int) string {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultNameTemplate
	}
	return SanitizeName(Interpolate(tmpl, RecordData(rec, ordinal)))
}

var nameReplacer = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

// SanitizeName 将 / 与 \ 替换为 -，防止条目名逃出归档根目录。
func SanitizeName(name string) string {
	name = nameReplacer.Replace(strings.TrimSpace(name))
	for strings.HasPrefix(name, ".") {
		name = strings.TrimPrefix(name, ".")
	}
	if name == "" {
		return "label"
	}
	return name
}
