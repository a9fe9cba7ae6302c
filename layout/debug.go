package layout

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// debugDump 是调试 JSON 的顶层结构：先给摘要，再附完整布局。
type debugDump struct {
	Summary debugSummary `json:"summary"`
	Label   *Label       `json:"label"`
}

type debugSummary struct {
	Strategy  string   `json:"strategy"`
	Lines     []string `json:"lines"`
	FontSize  int      `json:"fontSize"`
	QRVersion int      `json:"qrVersion"`
	QRModule  int      `json:"qrModule"`
	// Clearance 是文字块底部到二维码顶部的距离，负数表示文字压在二维码上。
	Clearance int      `json:"clearance"`
	Warnings  []string `json:"warnings,omitempty"`
}

func summarize(label *Label) debugSummary {
	return debugSummary{
		Strategy:  label.Strategy,
		Lines:     label.Layout().Lines,
		FontSize:  label.Text.FontSize,
		QRVersion: label.QR.Version,
		QRModule:  label.QR.Module,
		Clearance: label.QR.Y - (label.Text.Y + label.Text.Height()),
		Warnings:  label.Warnings,
	}
}

// WriteDebugJSON 将标签布局连同摘要输出为 JSON，便于与预览图对照。
func WriteDebugJSON(label *Label, path string) error {
	if label == nil {
		return nil
	}
	data, err := json.MarshalIndent(debugDump{Summary: summarize(label), Label: label}, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
