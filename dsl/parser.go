// Package dsl parses label sheets: a canvas declaration, palette overrides
// and the records to render, in one small text file.
//
//	sheet "Almacenes" {
//	  canvas 110 x 114 mm @ 600 dpi
//	  strategy proportional
//	  color R = #388E3C
//	  label "A02-01-01-01" "Almacén Central" C
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[=@;:,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	sheetParser = participle.MustBuild[Sheet](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Sheet is the root AST node for a label sheet file.
type Sheet struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Name       StringLiteral  `parser:"Newline* 'sheet' @String"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Statement is one line inside the sheet block.
type Statement struct {
	Canvas  *CanvasDecl `parser:"  @@"`
	Color   *ColorDecl  `parser:"| @@"`
	Label   *LabelDecl  `parser:"| @@"`
	Setting *Setting    `parser:"| @@"`
}

// CanvasDecl declares the label size: `canvas 110 x 114 mm @ 600 dpi`.
// Unit defaults to px and DPI to the default label DPI.
type CanvasDecl struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Width  string         `parser:"'canvas' @Number"`
	Height string         `parser:"'x' @Number"`
	Unit   string         `parser:"@Ident?"`
	DPI    string         `parser:"( '@' @Number 'dpi'? )?"`
}

// ColorDecl overrides a palette entry: `color R1 = #388E3C`.
type ColorDecl struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Code string         `parser:"'color' @Ident"`
	Hex  string         `parser:"'=' @Color"`
}

// LabelDecl is one record: payload, caption and optional category code.
type LabelDecl struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Payload  StringLiteral  `parser:"'label' @String"`
	Caption  StringLiteral  `parser:"@String"`
	Category *Word          `parser:"@@?"`
}

// Setting is a generic `key value` line such as `strategy fixed`.
type Setting struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@('strategy' | 'shadow' | 'names' | 'font' | 'workers')"`
	Value *Word          `parser:"@@"`
}

// Word is a bare identifier, number or quoted string.
type Word struct {
	Ident  *string        `parser:"  @Ident"`
	Number *string        `parser:"| @Number"`
	String *StringLiteral `parser:"| @String"`
}

// Text returns the word as written, without quotes.
func (w *Word) Text() string {
	switch {
	case w == nil:
		return ""
	case w.Ident != nil:
		return *w.Ident
	case w.Number != nil:
		return *w.Number
	case w.String != nil:
		return string(*w.String)
	default:
		return ""
	}
}

// Kind returns the human-readable statement type.
func (s *Statement) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Canvas != nil:
		return "canvas"
	case s.Color != nil:
		return "color"
	case s.Label != nil:
		return "label"
	case s.Setting != nil:
		return "setting"
	default:
		return "unknown"
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a sheet from an io.Reader. name is used in error positions.
func Parse(name string, r io.Reader) (*Sheet, error) {
	return sheetParser.Parse(name, r)
}

// ParseString parses a sheet from a string.
func ParseString(input string) (*Sheet, error) {
	return sheetParser.ParseString("", input)
}
