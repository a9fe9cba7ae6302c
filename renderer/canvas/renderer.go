package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/layout"
	"github.com/ByLCY/qrlabel/renderer"
)

// Paginator wraps rendered labels into single-page PDFs via github.com/tdewolff/canvas.
// The page size is the bitmap size at the canvas DPI, so a 600 dpi label
// prints at its physical dimensions.
type Paginator struct {
	// Verify re-reads every produced document with pdfcpu.
	Verify bool
}

var _ renderer.Paginator = (*Paginator)(nil)

// NewPaginator creates a PDF paginator.
func NewPaginator(verify bool) *Paginator { return &Paginator{Verify: verify} }

// Paginate renders img as the only page of a PDF document.
func (p *Paginator) Paginate(img image.Image, spec layout.CanvasSpec, meta renderer.DocumentMeta) ([]byte, error) {
	if img == nil {
		return nil, errors.New(errors.ErrCodeInternal, "paginate: 位图为空")
	}
	if spec.DPI <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "paginate: dpi must be positive, got %d", spec.DPI)
	}
	b := img.Bounds()
	if b.Dx() != spec.Width || b.Dy() != spec.Height {
		return nil, errors.New(errors.ErrCodeInternal, "paginate: bitmap %dx%d does not match canvas %dx%d", b.Dx(), b.Dy(), spec.Width, spec.Height)
	}

	wmm, hmm := spec.WidthMM(), spec.HeightMM()
	var buf bytes.Buffer
	writer := pdf.New(&buf, wmm, hmm, nil)
	applyMeta(writer, meta)

	c := canvas.New(wmm, hmm)
	ctx := canvas.NewContext(c)
	ctx.DrawImage(0, 0, img, canvas.DPI(float64(spec.DPI)))
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "写入 PDF 失败")
	}
	out := buf.Bytes()
	if p.Verify {
		if err := Verify(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func applyMeta(writer *pdf.PDF, meta renderer.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

var pdfcpuOnce sync.Once

// Verify parses doc with pdfcpu and checks that it holds exactly one page.
func Verify(doc []byte) error {
	pdfcpuOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(doc), conf)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "生成的 PDF 无法解析")
	}
	if n != 1 {
		return errors.New(errors.ErrCodeRender, "生成的 PDF 有 %d 页，应为 1 页", n)
	}
	return nil
}

// DocumentMetaFor builds the document info for one label.
func DocumentMetaFor(rec layout.Record, batchID string) renderer.DocumentMeta {
	meta := renderer.DocumentMeta{
		Title:   rec.Payload,
		Subject: rec.Caption,
		Creator: "qrlabel",
	}
	if rec.Category != "" {
		meta.Keywords = append(meta.Keywords, "category:"+rec.Category)
	}
	if batchID != "" {
		meta.Keywords = append(meta.Keywords, fmt.Sprintf("batch:%s", batchID))
	}
	return meta
}
