package batch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"

	"github.com/ByLCY/qrlabel/errors"
	"github.com/ByLCY/qrlabel/layout"
	"github.com/ByLCY/qrlabel/renderer"
	canvasrenderer "github.com/ByLCY/qrlabel/renderer/canvas"
	"github.com/ByLCY/qrlabel/renderer/raster"
)

var smallCanvas = layout.CanvasSpec{Width: 160, Height: 170, DPI: 150}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func readArchive(t *testing.T, data []byte) []*zip.File {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	return zr.File
}

func entryBytes(t *testing.T, f *zip.File) []byte {
	t.Helper()
	rc, err := f.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// TestExportSkipsInvalidRecord 三条有效记录加一条空文字记录：归档三项，失败序号为 4。
func TestExportSkipsInvalidRecord(t *testing.T) {
	records := []layout.Record{
		{Payload: "A02-01-01-01", Caption: "Almacén Central", Category: "A"},
		{Payload: "B03-02-01-02", Caption: "Zona de Carga", Category: "B"},
		{Payload: "C01-01-01-01", Caption: "A02-01", Category: "C"},
		{Payload: "D01-01-01-01", Caption: "", Category: "D"},
	}
	exp := New(Options{
		Workers:   2,
		Logger:    quietLogger(),
		Paginator: canvasrenderer.NewPaginator(true),
	})
	res, err := exp.Export(context.Background(), records, smallCanvas, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Succeeded != 3 || res.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d", res.Succeeded, res.Failed)
	}
	failures := res.Failures()
	if len(failures) != 1 || failures[0].Index != 4 || !errors.Is(failures[0].Err, errors.ErrCodeInvalidRecord) {
		t.Fatalf("failures = %+v", failures)
	}

	files := readArchive(t, res.Archive)
	want := []string{"A02-01-01-01_1.pdf", "B03-02-01-02_2.pdf", "C01-01-01-01_3.pdf"}
	if len(files) != len(want) {
		t.Fatalf("archive has %d entries", len(files))
	}
	for i, f := range files {
		if f.Name != want[i] {
			t.Fatalf("entry %d = %q, want %q", i, f.Name, want[i])
		}
		if err := canvasrenderer.Verify(entryBytes(t, f)); err != nil {
			t.Fatalf("entry %s: %v", f.Name, err)
		}
	}
	if res.ID == "" {
		t.Fatal("batch id missing")
	}
}

// slowRenderer 以随机延迟完成，打乱各 worker 的完成顺序。
type slowRenderer struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (s *slowRenderer) RenderRecord(rec layout.Record, canvas layout.CanvasSpec, _ layout.Overrides) (*image.RGBA, *layout.Label, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
	if s.fail[rec.Payload] {
		return nil, nil, errors.New(errors.ErrCodeRender, "boom %s", rec.Payload)
	}
	return image.NewRGBA(image.Rect(0, 0, canvas.Width, canvas.Height)), &layout.Label{}, nil
}

// payloadPaginator 直接把 payload 写入文档，便于核对顺序。
type payloadPaginator struct{}

func (payloadPaginator) Paginate(_ image.Image, _ layout.CanvasSpec, meta renderer.DocumentMeta) ([]byte, error) {
	return []byte(meta.Title), nil
}

func TestExportKeepsInputOrder(t *testing.T) {
	var records []layout.Record
	for i := range 40 {
		records = append(records, layout.Record{Payload: fmt.Sprintf("P%02d", i), Caption: "x"})
	}
	stub := &slowRenderer{fail: map[string]bool{"P07": true, "P31": true}}
	var progress []int
	var mu sync.Mutex
	exp := New(Options{
		Workers:   8,
		Renderer:  stub,
		Paginator: payloadPaginator{},
		Logger:    quietLogger(),
		OnProgress: func(done, total int) {
			mu.Lock()
			progress = append(progress, done)
			mu.Unlock()
			if total != 40 {
				t.Errorf("total = %d", total)
			}
		},
	})
	res, err := exp.Export(context.Background(), records, smallCanvas, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stub.calls != 40 || len(progress) != 40 {
		t.Fatalf("calls=%d progress=%d", stub.calls, len(progress))
	}
	if res.Succeeded != 38 || res.Failed != 2 {
		t.Fatalf("succeeded=%d failed=%d", res.Succeeded, res.Failed)
	}
	files := readArchive(t, res.Archive)
	prev := ""
	for _, f := range files {
		got := string(entryBytes(t, f))
		if got <= prev {
			t.Fatalf("entry %q out of order after %q", got, prev)
		}
		if f.Name != fmt.Sprintf("%s_%d.pdf", got, res.Outcomes[indexOf(records, got)].Index) {
			t.Fatalf("entry name %q does not match payload %q", f.Name, got)
		}
		prev = got
	}
	for i, o := range res.Outcomes {
		if o.Index != i+1 || o.Payload != records[i].Payload {
			t.Fatalf("outcome %d = %+v", i, o)
		}
	}
}

func indexOf(records []layout.Record, payload string) int {
	for i, r := range records {
		if r.Payload == payload {
			return i
		}
	}
	return -1
}

func TestExportEmptyBatch(t *testing.T) {
	stub := &slowRenderer{fail: map[string]bool{"a": true, "b": true}}
	exp := New(Options{Renderer: stub, Paginator: payloadPaginator{}, Logger: quietLogger()})
	res, err := exp.Export(context.Background(), []layout.Record{{Payload: "a", Caption: "x"}, {Payload: "b", Caption: "y"}}, smallCanvas, nil)
	if !errors.Is(err, errors.ErrCodeEmptyBatch) {
		t.Fatalf("got %v, want EMPTY_BATCH", err)
	}
	if res == nil || res.Failed != 2 || len(readArchive(t, res.Archive)) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestExportConfigurationErrors(t *testing.T) {
	exp := New(Options{Renderer: &slowRenderer{}, Paginator: payloadPaginator{}, Logger: quietLogger()})
	if _, err := exp.Export(context.Background(), nil, smallCanvas, nil); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("no records: %v", err)
	}
	bad := layout.CanvasSpec{Width: 0, Height: 10, DPI: 300}
	if _, err := exp.Export(context.Background(), []layout.Record{{Payload: "a", Caption: "b"}}, bad, nil); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("bad canvas: %v", err)
	}
}

type brokenRenderer struct{}

func (brokenRenderer) RenderRecord(layout.Record, layout.CanvasSpec, layout.Overrides) (*image.RGBA, *layout.Label, error) {
	return nil, nil, errors.New(errors.ErrCodeInternal, "no typesetter")
}

func TestExportStopsOnFatalError(t *testing.T) {
	exp := New(Options{Workers: 1, Renderer: brokenRenderer{}, Paginator: payloadPaginator{}, Logger: quietLogger()})
	res, err := exp.Export(context.Background(), []layout.Record{{Payload: "a", Caption: "b"}, {Payload: "c", Caption: "d"}}, smallCanvas, nil)
	if res != nil || !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("got %+v, %v", res, err)
	}
}

func TestExportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exp := New(Options{Renderer: &slowRenderer{}, Paginator: payloadPaginator{}, Logger: quietLogger()})
	if _, err := exp.Export(ctx, []layout.Record{{Payload: "a", Caption: "b"}}, smallCanvas, nil); err == nil {
		t.Fatal("canceled context should fail the batch")
	}
}

// overrideRenderer 记录收到的色板，用于确认批处理使用的是快照。
type overrideRenderer struct {
	seen layout.Overrides
}

func (o *overrideRenderer) RenderRecord(rec layout.Record, canvas layout.CanvasSpec, overrides layout.Overrides) (*image.RGBA, *layout.Label, error) {
	o.seen = overrides
	return image.NewRGBA(image.Rect(0, 0, canvas.Width, canvas.Height)), &layout.Label{}, nil
}

func TestExportSnapshotsOverrides(t *testing.T) {
	stub := &overrideRenderer{}
	overrides := layout.Overrides{"a": {1, 2, 3}}
	exp := New(Options{Workers: 1, Renderer: stub, Paginator: payloadPaginator{}, Logger: quietLogger()})
	if _, err := exp.Export(context.Background(), []layout.Record{{Payload: "a", Caption: "b"}}, smallCanvas, overrides); err != nil {
		t.Fatal(err)
	}
	overrides["A"] = layout.Color{9, 9, 9}
	if stub.seen["A"] != (layout.Color{1, 2, 3}) {
		t.Fatalf("renderer saw %v", stub.seen)
	}
}

func TestDuplicateEntryNames(t *testing.T) {
	exp := New(Options{NameTemplate: "${category}.pdf", Renderer: &slowRenderer{}, Paginator: payloadPaginator{}, Logger: quietLogger()})
	res, err := exp.Export(context.Background(), []layout.Record{
		{Payload: "a", Caption: "x", Category: "R"},
		{Payload: "b", Caption: "y", Category: "R"},
	}, smallCanvas, nil)
	if err != nil {
		t.Fatal(err)
	}
	files := readArchive(t, res.Archive)
	if files[0].Name != "R.pdf" || files[1].Name != "R_2.pdf" {
		t.Fatalf("names = %q, %q", files[0].Name, files[1].Name)
	}

	// 追加序号后的名字也可能已被占用
	exp = New(Options{NameTemplate: "${payload}.pdf", Renderer: &slowRenderer{}, Paginator: payloadPaginator{}, Logger: quietLogger()})
	res, err = exp.Export(context.Background(), []layout.Record{
		{Payload: "x", Caption: "a"},
		{Payload: "x_3", Caption: "b"},
		{Payload: "x", Caption: "c"},
		{Payload: "x_3", Caption: "d"},
	}, smallCanvas, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"x.pdf", "x_3.pdf", "x_3_2.pdf", "x_3_4.pdf"}
	files = readArchive(t, res.Archive)
	if len(files) != len(want) {
		t.Fatalf("archive has %d entries", len(files))
	}
	for i, f := range files {
		if f.Name != want[i] || res.Outcomes[i].Entry != want[i] {
			t.Fatalf("entry %d = %q (outcome %q), want %q", i, f.Name, res.Outcomes[i].Entry, want[i])
		}
	}
}

func TestUniqueName(t *testing.T) {
	seen := map[string]bool{}
	for _, tt := range []struct {
		name    string
		ordinal int
		want    string
	}{
		{"a.pdf", 1, "a.pdf"},
		{"a_2.pdf", 2, "a_2.pdf"},
		{"a.pdf", 2, "a_2_2.pdf"},
		{"a.pdf", 2, "a_2_3.pdf"},
		{"noext", 5, "noext"},
		{"noext", 6, "noext_6"},
	} {
		if got := uniqueName(tt.name, tt.ordinal, seen); got != tt.want {
			t.Errorf("uniqueName(%q, %d) = %q, want %q", tt.name, tt.ordinal, got, tt.want)
		}
	}
}

func TestRealRendererIntegration(t *testing.T) {
	r := raster.New(raster.Options{Strategy: layout.FixedPreset{ScaleToCanvas: true}})
	exp := New(Options{Renderer: r, Logger: quietLogger()})
	res, err := exp.Export(context.Background(), []layout.Record{{Payload: "R05-04-01-03", Caption: "RETPLA 01", Category: "R"}}, smallCanvas, layout.Overrides{"R": {10, 20, 30}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Outcomes) != 1 || !res.Outcomes[0].OK() || res.Outcomes[0].Entry != "R05-04-01-03_1.pdf" {
		t.Fatalf("outcomes = %+v", res.Outcomes)
	}
}
