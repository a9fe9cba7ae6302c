package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ByLCY/qrlabel/dsl"
	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/internal/config"
	"github.com/ByLCY/qrlabel/layout"
	"github.com/ByLCY/qrlabel/renderer/raster"
)

// jobFlags are the per-run overrides shared by render and preview.
type jobFlags struct {
	strategy string
	noShadow bool
	workers  int
	names    string
	fonts    []string
	palette  string
	verify   bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "font strategy: proportional or fixed")
	cmd.Flags().BoolVar(&f.noShadow, "no-shadow", false, "draw captions without the dark shadow")
	cmd.Flags().StringSliceVar(&f.fonts, "font", nil, "TTF/OTF font files to try before the embedded font")
	cmd.Flags().StringVar(&f.palette, "palette", "", "TOML file with color overrides")
}

// plan is a sheet with every setting resolved: flags win over the sheet,
// the sheet wins over the config file.
type plan struct {
	name      string
	canvas    layout.CanvasSpec
	overrides layout.Overrides
	records   []layout.Record
	renderer  *raster.Renderer
	workers   int
	names     string
	verify    bool
}

func loadPlan(ctx context.Context, path string, f *jobFlags) (*plan, error) {
	cfg := configFromContext(ctx)
	logger := loggerFromContext(ctx)

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "无法打开标签文件 %s", path)
	}
	defer file.Close()

	sheet, err := dsl.Parse(filepath.Base(path), file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "解析标签文件失败")
	}
	job, err := dsl.Compile(sheet)
	if err != nil {
		return nil, err
	}
	return resolvePlan(job, cfg, f, filepath.Dir(path), func(msg string) { logger.Warn(msg) })
}

func resolvePlan(job *dsl.Job, cfg *config.Config, f *jobFlags, baseDir string, warn func(string)) (*plan, error) {
	p := &plan{name: job.Name, records: job.Records, canvas: job.Canvas}

	if !job.CanvasDeclared {
		dim, err := cfg.Dimension()
		if err != nil {
			return nil, err
		}
		if p.canvas, err = dim.Canvas(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config canvas")
		}
	}

	base, err := config.LoadPalette(cfg.Palette)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config palette")
	}
	extra, err := config.LoadPalette(f.palette)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "--palette")
	}
	p.overrides = config.MergeOverrides(config.MergeOverrides(base, job.Overrides), extra)

	strategyName := firstNonEmpty(f.strategy, job.Strategy, cfg.Strategy)
	strategy, err := layout.StrategyByName(strategyName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "strategy")
	}

	shadow := cfg.Shadow
	if job.Shadow != nil {
		shadow = *job.Shadow
	}
	if f.noShadow {
		shadow = false
	}

	var fonts []string
	fonts = append(fonts, f.fonts...)
	if job.FontPath != "" {
		fp := job.FontPath
		if !filepath.IsAbs(fp) {
			fp = filepath.Join(baseDir, fp)
		}
		fonts = append(fonts, fp)
	}
	fonts = append(fonts, cfg.Fonts...)

	p.renderer = raster.New(raster.Options{FontPaths: fonts, Strategy: strategy, NoShadow: !shadow})
	for _, w := range p.renderer.Warnings() {
		warn(w)
	}

	p.workers = firstPositive(f.workers, job.Workers, cfg.Workers)
	p.names = firstNonEmpty(f.names, job.NameTemplate, cfg.NameTemplate)
	p.verify = f.verify || cfg.Verify
	return p, nil
}

func (p *plan) describe() string {
	return fmt.Sprintf("%dx%d px @ %d dpi (%.1f x %.1f mm)", p.canvas.Width, p.canvas.Height, p.canvas.DPI, p.canvas.WidthMM(), p.canvas.HeightMM())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
