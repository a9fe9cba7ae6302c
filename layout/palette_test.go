package layout

import "testing"

func TestResolvePrecedence(t *testing.T) {
	overrides := Overrides{
		"Ñ": {255, 0, 255},
		"@": {0, 255, 127},
		"A": {1, 2, 3}, // custom codes win over built-ins
	}
	tests := []struct {
		code string
		want Color
		src  Source
	}{
		{"Ñ", Color{255, 0, 255}, SourceOverride},
		{"ñ", Color{255, 0, 255}, SourceOverride},
		{"@", Color{0, 255, 127}, SourceOverride},
		{"a", Color{1, 2, 3}, SourceOverride},
		{"B", Color{0, 133, 66}, SourceBuiltin},
		{"r2", Color{56, 142, 60}, SourceBuiltin},
		{" v ", Color{255, 234, 200}, SourceBuiltin},
		{"X", DefaultColor, SourceDefault},
		{"", DefaultColor, SourceDefault},
	}
	for _, tt := range tests {
		got, src := Lookup(tt.code, overrides)
		if got != tt.want || src != tt.src {
			t.Errorf("Lookup(%q) = %v/%v, want %v/%v", tt.code, got, src, tt.want, tt.src)
		}
		if r := Resolve(tt.code, overrides); r != tt.want {
			t.Errorf("Resolve(%q) = %v, want %v", tt.code, r, tt.want)
		}
	}
}

// TestResolveTotal 任意字符串都必须解析出颜色，且不修改任何映射。
func TestResolveTotal(t *testing.T) {
	overrides := Overrides{"k": {9, 9, 9}}
	inputs := []string{"", " ", "\x00", "ZZZZZZZZ", "r5", "日本", "k", "K", "\n"}
	for _, in := range inputs {
		_ = Resolve(in, overrides)
		_ = Resolve(in, nil)
	}
	if len(overrides) != 1 || overrides["k"] != (Color{9, 9, 9}) {
		t.Fatalf("overrides mutated: %v", overrides)
	}
	if got := Resolve("a", nil); got != (Color{213, 43, 30}) {
		t.Fatalf("builtin palette changed: %v", got)
	}
}

func TestOverridesCloneNormalizesKeys(t *testing.T) {
	src := Overrides{"x": {1, 1, 1}}
	snap := src.Clone()
	src["x"] = Color{2, 2, 2}
	if snap["X"] != (Color{1, 1, 1}) {
		t.Fatalf("snapshot not independent: %v", snap)
	}
	if Overrides(nil).Clone() != nil {
		t.Fatal("nil clone should stay nil")
	}
}

func TestBuiltinPaletteIsCopy(t *testing.T) {
	p := BuiltinPalette()
	p[0].Color = Color{}
	if Resolve("Z", nil) != (Color{135, 135, 135}) {
		t.Fatal("BuiltinPalette leaked internal slice")
	}
}

func TestParseHex(t *testing.T) {
	tests := map[string]Color{
		"#808080": {128, 128, 128},
		"ff00ff":  {255, 0, 255},
		"#0f0":    {0, 255, 0},
	}
	for in, want := range tests {
		got, err := ParseHex(in)
		if err != nil || got != want {
			t.Fatalf("ParseHex(%q) = %v, %v; want %v", in, got, err, want)
		}
		if back, _ := ParseHex(got.Hex()); back != got {
			t.Fatalf("Hex round trip failed for %v", got)
		}
	}
	for _, bad := range []string{"", "#12", "#gggggg", "#1234567"} {
		if _, err := ParseHex(bad); err == nil {
			t.Fatalf("ParseHex(%q) should fail", bad)
		}
	}
}

func TestIsLight(t *testing.T) {
	if !(Color{255, 234, 200}).IsLight() {
		t.Fatal("cream should be light")
	}
	if (Color{0, 38, 100}).IsLight() {
		t.Fatal("navy should be dark")
	}
}
