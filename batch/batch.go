// Package batch renders many labels concurrently and packs one single-page PDF
// per successful record into a ZIP archive.
//
// Records are rendered by a bounded pool of workers; the archive lists
// entries in input order no matter which worker finished first. A record
// that fails (empty caption, payload too long for a QR code, ...) is
// reported in Result.Outcomes and never aborts the rest of the batch.
// Configuration problems (invalid canvas, no records) fail before any
// rendering starts; internal errors stop scheduling further records.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/qrlabel/binding"
	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/layout"
	"github.com/ByLCY/qrlabel/renderer"
	canvasrenderer "github.com/ByLCY/qrlabel/renderer/canvas"
	"github.com/ByLCY/qrlabel/renderer/raster"
)

// MaxDefaultWorkers caps the default pool size; every worker holds a full
// canvas bitmap in memory.
const MaxDefaultWorkers = 4

// LabelRenderer turns one record into a bitmap and its layout plan.
type LabelRenderer interface {
	RenderRecord(rec layout.Record, canvas layout.CanvasSpec, overrides layout.Overrides) (*image.RGBA, *layout.Label, error)
}

// Options configures an Exporter. Zero values select the defaults.
type Options struct {
	// Workers bounds concurrent renders. Defaults to min(NumCPU, 4).
	Workers int
	// NameTemplate names archive entries, see binding.EntryName.
	NameTemplate string
	Renderer     LabelRenderer
	Paginator    renderer.Paginator
	Logger       *log.Logger
	// OnProgress is called after each record with the number of finished
	// records. Calls may come from several goroutines.
	OnProgress func(done, total int)
}

// Outcome is the result of one record. Index is 1-based, in input order.
type Outcome struct {
	Index    int
	Payload  string
	Entry    string
	Warnings []string
	Err      error
}

// OK reports whether the record produced an archive entry.
func (o Outcome) OK() bool { return o.Err == nil }

// Result is a finished batch.
type Result struct {
	ID        string
	Archive   []byte
	Outcomes  []Outcome
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Failures returns the outcomes of records that were skipped.
func (r *Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Exporter runs label batches. It is safe to reuse across batches.
type Exporter struct {
	opts Options
}

// New creates an exporter, filling in default collaborators.
func New(opts Options) *Exporter {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.Renderer == nil {
		opts.Renderer = raster.New(raster.Options{})
	}
	if opts.Paginator == nil {
		opts.Paginator = canvasrenderer.NewPaginator(false)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Exporter{opts: opts}
}

// DefaultWorkers returns min(NumCPU, MaxDefaultWorkers).
func DefaultWorkers() int { return max(min(runtime.NumCPU(), MaxDefaultWorkers), 1) }

type rendered struct {
	doc      []byte
	warnings []string
	err      error
}

// Export renders records and returns the archive with one outcome per record.
// If no record succeeds the result is still returned together with an
// EMPTY_BATCH error. overrides is copied before the first render, so the
// caller may reuse the map once Export has started.
func (e *Exporter) Export(ctx context.Context, records []layout.Record, canvas layout.CanvasSpec, overrides layout.Overrides) (*Result, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no records to export")
	}
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	palette := overrides.Clone()
	start := time.Now()
	res := &Result{ID: uuid.NewString()}
	logger := e.opts.Logger.With("batch", res.ID[:8])
	logger.Info("starting batch",
		"records", len(records),
		"canvas", fmt.Sprintf("%dx%d@%ddpi", canvas.Width, canvas.Height, canvas.DPI),
		"workers", e.opts.Workers)

	out := make([]rendered, len(records))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.renderOne(rec, canvas, palette, res.ID)
			if out[i].err != nil {
				logger.Debug("record failed", "index", i+1, "payload", rec.Payload, "err", out[i].err)
			} else {
				logger.Debug("record rendered", "index", i+1, "payload", rec.Payload, "bytes", len(out[i].doc))
			}
			if e.opts.OnProgress != nil {
				e.opts.OnProgress(int(done.Add(1)), len(records))
			}
			if errors.IsFatal(out[i].err) {
				return out[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "batch interrupted")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "batch interrupted")
	}

	archive, err := e.pack(records, out, res, start)
	if err != nil {
		return nil, err
	}
	res.Archive = archive
	res.Duration = time.Since(start)

	logger.Info("batch finished",
		"succeeded", res.Succeeded,
		"failed", res.Failed,
		"bytes", len(archive),
		"duration", res.Duration.Round(time.Millisecond))

	if res.Succeeded == 0 {
		return res, errors.New(errors.ErrCodeEmptyBatch, "none of the %d records could be rendered", len(records))
	}
	return res, nil
}

func (e *Exporter) renderOne(rec layout.Record, canvas layout.CanvasSpec, palette layout.Overrides, batchID string) rendered {
	img, label, err := e.opts.Renderer.RenderRecord(rec, canvas, palette)
	if err != nil {
		return rendered{err: err}
	}
	doc, err := e.opts.Paginator.Paginate(img, canvas, canvasrenderer.DocumentMetaFor(rec, batchID))
	if err != nil {
		return rendered{err: err}
	}
	return rendered{doc: doc, warnings: label.Warnings}
}

// pack writes successful documents in input order.
func (e *Exporter) pack(records []layout.Record, out []rendered, res *Result, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := map[string]bool{}
	res.Outcomes = make([]Outcome, len(records))
	for i, r := range out {
		o := Outcome{Index: i + 1, Payload: records[i].Payload, Warnings: r.warnings, Err: r.err}
		if r.err == nil {
			name := uniqueName(binding.EntryName(e.opts.NameTemplate, records[i], i+1), i+1, seen)
			w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "create archive entry %s", name)
			}
			if _, err := w.Write(r.doc); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "write archive entry %s", name)
			}
			o.Entry = name
			res.Succeeded++
		} else {
			res.Failed++
		}
		res.Outcomes[i] = o
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "close archive")
	}
	return buf.Bytes(), nil
}

// uniqueName appends the ordinal when a template yields a name already in
// the archive, then a counter if that name is taken as well.
func uniqueName(name string, ordinal int, seen map[string]bool) string {
	if seen[name] {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		candidate := fmt.Sprintf("%s_%d%s", stem, ordinal, ext)
		for n := 2; seen[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d_%d%s", stem, ordinal, n, ext)
		}
		name = candidate
	}
	seen[name] = true
	return name
}
