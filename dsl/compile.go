package dsl

import (
	"strconv"
	"strings"

	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/layout"
)

// Job is a compiled sheet, ready for the batch exporter.
type Job struct {
	Name string
	// CanvasDeclared is false when the sheet relies on the default canvas.
	CanvasDeclared bool
	Dimension      layout.DimensionSpec
	Canvas         layout.CanvasSpec
	Overrides      layout.Overrides
	Records        []layout.Record

	// Optional settings; empty when the sheet does not set them.
	Strategy     string
	Shadow       *bool
	NameTemplate string
	FontPath     string
	Workers      int
}

// Compile checks a parsed sheet and converts it into a Job.
// Records are kept as written, including invalid ones: those are reported
// per record by the exporter. Canvas and palette mistakes are configuration
// errors.
func Compile(sheet *Sheet) (*Job, error) {
	if sheet == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "empty sheet")
	}
	job := &Job{
		Name:      string(sheet.Name),
		Dimension: layout.DimensionSpec{Width: layout.DefaultWidthPX, Height: layout.DefaultHeightPX, Unit: layout.UnitPX, DPI: layout.DefaultDPI},
		Overrides: layout.Overrides{},
	}
	for _, st := range sheet.Statements {
		switch {
		case st.Canvas != nil:
			if job.CanvasDeclared {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: canvas declared twice", st.Canvas.Pos)
			}
			job.CanvasDeclared = true
			dim, err := st.Canvas.dimension()
			if err != nil {
				return nil, err
			}
			job.Dimension = dim
		case st.Color != nil:
			c, err := layout.ParseHex(st.Color.Hex)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: color %s", st.Color.Pos, st.Color.Code)
			}
			job.Overrides[strings.ToUpper(st.Color.Code)] = c
		case st.Label != nil:
			job.Records = append(job.Records, layout.Record{
				Payload:  string(st.Label.Payload),
				Caption:  string(st.Label.Caption),
				Category: st.Label.Category.Text(),
			})
		case st.Setting != nil:
			if err := job.apply(st.Setting); err != nil {
				return nil, err
			}
		}
	}
	canvas, err := job.Dimension.Canvas()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "canvas")
	}
	job.Canvas = canvas
	return job, nil
}

func (c *CanvasDecl) dimension() (layout.DimensionSpec, error) {
	w, err := strconv.ParseFloat(c.Width, 64)
	if err != nil {
		return layout.DimensionSpec{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: canvas width", c.Pos)
	}
	h, err := strconv.ParseFloat(c.Height, 64)
	if err != nil {
		return layout.DimensionSpec{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: canvas height", c.Pos)
	}
	unit, err := layout.ParseUnit(c.Unit)
	if err != nil {
		return layout.DimensionSpec{}, err
	}
	dpi := layout.DefaultDPI
	if c.DPI != "" {
		dpi, err = strconv.Atoi(c.DPI)
		if err != nil {
			return layout.DimensionSpec{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: dpi must be a whole number", c.Pos)
		}
	}
	return layout.DimensionSpec{Width: w, Height: h, Unit: unit, DPI: dpi}, nil
}

func (j *Job) apply(s *Setting) error {
	val := s.Value.Text()
	switch s.Key {
	case "strategy":
		if _, err := layout.StrategyByName(val); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", s.Pos)
		}
		j.Strategy = val
	case "shadow":
		on, err := parseSwitch(val)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: shadow", s.Pos)
		}
		j.Shadow = &on
	case "names":
		j.NameTemplate = val
	case "font":
		j.FontPath = val
	case "workers":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: workers must be a positive number, got %q", s.Pos, val)
		}
		j.Workers = n
	}
	return nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes", "true":
		return true, nil
	case "off", "no", "false":
		return false, nil
	}
	return strconv.ParseBool(v)
}
