package scan

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/inference"
	"github.com/ironsheep/menuscan-mcp/internal/ocr"
	"github.com/ironsheep/menuscan-mcp/internal/preload"
)

var quiet = log.New(io.Discard, "", 0)

// fakeAnalyzer returns a canned response, optionally blocking until
// release is closed.
type fakeAnalyzer struct {
	resp    *inference.Response
	err     error
	release chan struct{}

	mu    sync.Mutex
	calls int
	last  inference.Request
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req inference.Request) (*inference.Response, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAnalyzer) LastRequest() inference.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// fakeEngine is an OCR engine with controllable timing.
type fakeEngine struct {
	lines    []ocr.Line
	err      error
	release  chan struct{}
	finished chan struct{}
}

func newFakeEngine(lines []ocr.Line) *fakeEngine {
	return &fakeEngine{lines: lines, finished: make(chan struct{})}
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, image []byte, languages []string) ([]ocr.Line, error) {
	defer close(f.finished)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.lines, f.err
}

// countingFetcher records preload fetches.
type countingFetcher struct {
	mu   sync.Mutex
	urls []string
}

func (f *countingFetcher) Fetch(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return nil
}

func (f *countingFetcher) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{200, 60, 40, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func ocrLine(text string, x0, y0, x1, y1 int) ocr.Line {
	return ocr.Line{Text: text, Confidence: 0.9, Bounds: ocr.Bounds{X0: x0, Y0: y0, X1: x1, Y1: y1}}
}

func menuResponse() *inference.Response {
	return &inference.Response{
		IsMenu: true,
		Dishes: []dish.InferredDish{
			{
				Name: "Rollito de primavera", OriginalName: "春卷", EnglishName: "Spring Roll",
				Description: "Crujiente", Tags: []string{"Salado"}, Allergens: []string{"Gluten"},
				SpiceLevel: dish.SpiceNone, Category: "Entrante",
			},
			{
				Name: "Arroz frito", OriginalName: "炒饭", EnglishName: "Fried Rice",
				Description: "Arroz salteado", Tags: []string{"Umami"}, Allergens: []string{"Huevo", "Soja"},
				SpiceLevel: dish.SpiceMild, Category: "Principal",
			},
		},
	}
}

func menuLines() []ocr.Line {
	return []ocr.Line{
		ocrLine("春卷 ¥8", 10, 10, 90, 30),
		ocrLine("炒饭 ¥9", 10, 50, 90, 70),
	}
}

func newTestPipeline(t *testing.T, analyzer inference.Analyzer, engine ocr.Engine, fetcher preload.Fetcher) *Pipeline {
	t.Helper()
	if fetcher == nil {
		fetcher = &countingFetcher{}
	}
	p, err := NewPipeline(Options{
		Analyzer:  analyzer,
		OCR:       ocr.NewAdapter(engine, ocr.WithLogger(quiet)),
		Preloader: preload.New(fetcher, 200*time.Millisecond, quiet, false),
		Logger:    quiet,
	})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}
