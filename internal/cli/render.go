package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ByLCY/qrlabel/batch"
	"github.com/ByLCY/qrlabel/errors"
	canvasrenderer "github.com/ByLCY/qrlabel/renderer/canvas"
)

func newRenderCmd() *cobra.Command {
	var (
		flags  jobFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <sheet>",
		Short: "Render every label of a sheet into a ZIP of PDFs",
		Long: `Render every label of a sheet into a ZIP archive holding one single-page PDF per label.

Labels that cannot be rendered (empty caption, payload too long for a QR code)
are listed and skipped; the archive holds the rest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			out := cmd.OutOrStdout()

			p, err := loadPlan(ctx, args[0], &flags)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultArchiveName(time.Now())
			}
			logger.Debug("loaded sheet", "name", p.name, "records", len(p.records), "canvas", p.describe(), "font", p.renderer.FontName())

			prog := newProgress(logger)
			exp := batch.New(batch.Options{
				Workers:      p.workers,
				NameTemplate: p.names,
				Renderer:     p.renderer,
				Paginator:    canvasrenderer.NewPaginator(p.verify),
				Logger:       logger,
				OnProgress: func(done, total int) {
					logger.Debug("progress", "done", done, "total", total)
				},
			})
			res, err := exp.Export(ctx, p.records, p.canvas, p.overrides)
			if res != nil {
				for _, o := range res.Failures() {
					printError(out, "#%d %s: %s", o.Index, o.Payload, errors.UserMessage(o.Err))
				}
			}
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("创建输出目录失败: %w", err)
				}
			}
			if err := os.WriteFile(output, res.Archive, 0o644); err != nil {
				return fmt.Errorf("写入归档失败: %w", err)
			}
			prog.done(fmt.Sprintf("Rendered %d labels", res.Succeeded))

			printSuccess(out, "%s labels, %s skipped", StyleNumber.Render(fmt.Sprint(res.Succeeded)), StyleNumber.Render(fmt.Sprint(res.Failed)))
			printFile(out, output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default etiquetas_qr_<timestamp>.zip)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, fmt.Sprintf("concurrent renders (default %d)", batch.DefaultWorkers()))
	cmd.Flags().StringVar(&flags.names, "names", "", "entry name template, e.g. ${payload}_${ordinal}.pdf")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "re-read every PDF with pdfcpu")
	return cmd
}

func defaultArchiveName(t time.Time) string {
	return "etiquetas_qr_" + t.Format("20060102_150405") + ".zip"
}
