package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/qrlabel/layout"
)

// paletteFile is the on-disk form of color overrides:
//
//	[colors]
//	R1 = "#388E3C"
//	X  = "#112233"
type paletteFile struct {
	Colors map[string]string `toml:"colors"`
}

// LoadPalette reads color overrides from a TOML file. An empty path yields no overrides.
func LoadPalette(path string) (layout.Overrides, error) {
	if path == "" {
		return nil, nil
	}
	var pf paletteFile
	md, err := toml.DecodeFile(path, &pf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse palette %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("palette %s: unknown keys %v", path, undecoded)
	}
	out := make(layout.Overrides, len(pf.Colors))
	for code, hex := range pf.Colors {
		c, err := layout.ParseHex(hex)
		if err != nil {
			return nil, fmt.Errorf("palette %s: color %s: %w", path, code, err)
		}
		out[strings.ToUpper(strings.TrimSpace(code))] = c
	}
	return out, nil
}

// WritePalette encodes overrides as TOML, keys sorted.
func WritePalette(w io.Writer, overrides layout.Overrides) error {
	pf := paletteFile{Colors: make(map[string]string, len(overrides))}
	for code, c := range overrides {
		pf.Colors[code] = c.Hex()
	}
	return toml.NewEncoder(w).Encode(pf)
}

// MergeOverrides returns base with extra layered on top; neither input is modified.
func MergeOverrides(base, extra layout.Overrides) layout.Overrides {
	out := base.Clone()
	if out == nil {
		out = layout.Overrides{}
	}
	for k, v := range extra.Clone() {
		out[k] = v
	}
	return out
}
