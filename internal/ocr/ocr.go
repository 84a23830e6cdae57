package ocr

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ironsheep/menuscan-mcp/internal/imaging"
)

// DefaultLanguages is the multi-script hint set used when none is configured.
var DefaultLanguages = []string{"chi_sim", "eng"}

// Bounds is a rectangle in native pixel coordinates.
type Bounds struct {
	X0 int `json:"x0"` // Left edge
	Y0 int `json:"y0"` // Top edge
	X1 int `json:"x1"` // Right edge
	Y1 int `json:"y1"` // Bottom edge
}

// Line is one recognized run of text.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Bounds     Bounds  `json:"bounds"`
}

// Engine recognizes text lines in an encoded image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte, languages []string) ([]Line, error)
}

// NopEngine recognizes nothing. It stands in where OCR is unavailable or
// not wanted.
type NopEngine struct{}

func (NopEngine) Name() string { return "none" }

func (NopEngine) Recognize(ctx context.Context, image []byte, languages []string) ([]Line, error) {
	return nil, nil
}

// ParseLanguages splits a "+"-joined Tesseract language list.
// An empty string yields DefaultLanguages.
func ParseLanguages(s string) []string {
	var langs []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		return append([]string(nil), DefaultLanguages...)
	}
	return langs
}

// Adapter runs an Engine with failure containment.
type Adapter struct {
	engine     Engine
	languages  []string
	preprocess bool
	logger     *log.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLanguages sets the language hints passed to the engine.
func WithLanguages(langs ...string) AdapterOption {
	return func(a *Adapter) { a.languages = append([]string(nil), langs...) }
}

// WithPreprocess enables the grayscale/contrast pass before recognition.
func WithPreprocess(enabled bool) AdapterOption {
	return func(a *Adapter) { a.preprocess = enabled }
}

// WithLogger sets the logger for contained failures.
func WithLogger(l *log.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

// NewAdapter wraps engine. A nil engine behaves like NopEngine.
func NewAdapter(engine Engine, opts ...AdapterOption) *Adapter {
	if engine == nil {
		engine = NopEngine{}
	}
	a := &Adapter{
		engine:    engine,
		languages: append([]string(nil), DefaultLanguages...),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// With returns a copy of a with opts applied.
func (a *Adapter) With(opts ...AdapterOption) *Adapter {
	c := *a
	c.languages = append([]string(nil), a.languages...)
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// EngineName reports the wrapped engine's name.
func (a *Adapter) EngineName() string { return a.engine.Name() }

// Languages returns a copy of the language hints.
func (a *Adapter) Languages() []string { return append([]string(nil), a.languages...) }

// Lines recognizes the text lines of p. It never fails: engine errors and
// panics are logged and reported as no lines. Lines with blank text are
// dropped; the rest keep engine output order.
func (a *Adapter) Lines(ctx context.Context, p *imaging.Payload) (lines []Line) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Printf("OCR engine %s panicked: %v", a.engine.Name(), r)
			lines = nil
		}
	}()

	if ctx.Err() != nil {
		return nil
	}

	data := p.Data
	if a.preprocess {
		prepared, err := imaging.PrepareForOCR(p)
		if err != nil {
			a.logger.Printf("OCR preprocessing failed, using raw image: %v", err)
		} else {
			data = prepared
		}
	}

	raw, err := a.engine.Recognize(ctx, data, a.languages)
	if err != nil {
		a.logger.Printf("OCR failed (%s, %s): %v", a.engine.Name(), humanize.Bytes(uint64(len(data))), err)
		return nil
	}

	lines = make([]Line, 0, len(raw))
	for _, l := range raw {
		l.Text = strings.TrimSpace(l.Text)
		if l.Text == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// String describes the adapter for diagnostics.
func (a *Adapter) String() string {
	return fmt.Sprintf("%s[%s]", a.engine.Name(), strings.Join(a.languages, "+"))
}
