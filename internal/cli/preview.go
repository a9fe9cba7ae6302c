package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/layout"
	"github.com/ByLCY/qrlabel/renderer/raster"
)

func newPreviewCmd() *cobra.Command {
	var (
		flags  jobFlags
		output string
		debug  string
		index  int
	)

	cmd := &cobra.Command{
		Use:   "preview <sheet>",
		Short: "Render one label of a sheet to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			p, err := loadPlan(ctx, args[0], &flags)
			if err != nil {
				return err
			}
			if index < 1 || index > len(p.records) {
				return errors.New(errors.ErrCodeInvalidConfig, "sheet has %d labels, cannot preview #%d", len(p.records), index)
			}
			rec := p.records[index-1]

			img, label, err := p.renderer.RenderRecord(rec, p.canvas, p.overrides)
			if err != nil {
				return err
			}
			if err := raster.WritePNG(img, output); err != nil {
				return err
			}
			if debug != "" {
				if err := layout.WriteDebugJSON(label, debug); err != nil {
					return fmt.Errorf("写入调试 JSON 失败: %w", err)
				}
			}

			for _, w := range label.Warnings {
				printWarning(out, "%s", w)
			}
			printKeyValue(out, "payload", rec.Payload)
			printKeyValue(out, "lines", strings.Join(label.Layout().Lines, " / "))
			printKeyValue(out, "font", fmt.Sprintf("%dpx (%s)", label.Text.FontSize, label.Strategy))
			printKeyValue(out, "qr", fmt.Sprintf("v%d, %dpx modules", label.QR.Version, label.QR.Module))
			printKeyValue(out, "canvas", p.describe())
			printSuccess(out, "preview written")
			printFile(out, output)
			if debug != "" {
				printFile(out, debug)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "preview.png", "PNG output path")
	cmd.Flags().StringVar(&debug, "debug", "", "also write the layout plan as JSON")
	cmd.Flags().IntVar(&index, "index", 1, "1-based label to preview")
	return cmd
}
