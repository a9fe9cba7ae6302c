package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ByLCY/qrlabel/internal/config"
	"github.com/ByLCY/qrlabel/layout"
)

func newPaletteCmd() *cobra.Command {
	var (
		overridesPath string
		export        string
	)

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "List category colors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			base, err := config.LoadPalette(cfg.Palette)
			if err != nil {
				return err
			}
			extra, err := config.LoadPalette(overridesPath)
			if err != nil {
				return err
			}
			overrides := config.MergeOverrides(base, extra)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render("Category colors"))
			for _, row := range paletteRows(overrides) {
				fmt.Fprintf(out, "%s %s %s %s\n",
					swatch(row.Color.Hex(), row.Code, row.Color.IsLight()),
					StyleValue.Render(fmt.Sprintf("%-7s", row.Color.Hex())),
					StyleDim.Render(fmt.Sprintf("%-8s", row.Source)),
					row.Name)
			}
			fmt.Fprintf(out, "%s %s %s\n", swatch(layout.DefaultColor.Hex(), "*", layout.DefaultColor.IsLight()), StyleValue.Render(layout.DefaultColor.Hex()), StyleDim.Render("unknown codes"))

			if export != "" {
				f, err := os.Create(export)
				if err != nil {
					return err
				}
				if err := config.WritePalette(f, overrides); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				printFile(out, export)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&overridesPath, "overrides", "", "TOML file with color overrides")
	cmd.Flags().StringVar(&export, "export", "", "write the merged overrides to a TOML file")
	return cmd
}

type paletteRow struct {
	Code   string
	Name   string
	Color  layout.Color
	Source layout.Source
}

// paletteRows lists built-in codes in table order, then custom-only codes sorted.
func paletteRows(overrides layout.Overrides) []paletteRow {
	var rows []paletteRow
	builtin := map[string]bool{}
	for _, e := range layout.BuiltinPalette() {
		builtin[e.Code] = true
		c, src := layout.Lookup(e.Code, overrides)
		rows = append(rows, paletteRow{Code: e.Code, Name: e.Name, Color: c, Source: src})
	}
	var custom []string
	for code := range overrides {
		if !builtin[code] {
			custom = append(custom, code)
		}
	}
	sort.Strings(custom)
	for _, code := range custom {
		rows = append(rows, paletteRow{Code: code, Color: overrides[code], Source: layout.SourceOverride})
	}
	return rows
}
