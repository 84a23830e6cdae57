package localize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/ocr"
)

// Default tuning values.
const (
	DefaultThreshold      = 0.4
	DefaultWholeLineBonus = 0.2
	DefaultWholeLineSlack = 3
)

// Config holds the matcher's tuning knobs.
type Config struct {
	Threshold      float64 // a match is accepted only when its score is above this
	WholeLineBonus float64 // added when the lengths are within WholeLineSlack
	WholeLineSlack int     // length difference (in runes) below which the bonus applies
}

// DefaultConfig returns the default knobs.
func DefaultConfig() Config {
	return Config{
		Threshold:      DefaultThreshold,
		WholeLineBonus: DefaultWholeLineBonus,
		WholeLineSlack: DefaultWholeLineSlack,
	}
}

// Localizer matches dishes to OCR lines.
type Localizer struct {
	cfg Config
}

// New creates a Localizer.
func New(cfg Config) *Localizer {
	return &Localizer{cfg: cfg}
}

// Config returns the knobs in use.
func (l *Localizer) Config() Config { return l.cfg }

// Normalize removes all whitespace from s and lowercases it.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Score rates how well a dish name matches an OCR line. ok is false when
// the line is not a candidate at all.
func (l *Localizer) Score(name, line string) (score float64, ok bool) {
	return l.score(Normalize(name), Normalize(line))
}

func (l *Localizer) score(name, line string) (float64, bool) {
	if name == "" || line == "" {
		return 0, false
	}
	if !strings.Contains(line, name) && !strings.Contains(name, line) {
		return 0, false
	}

	a := utf8.RuneCountInString(name)
	b := utf8.RuneCountInString(line)
	short, long := a, b
	if short > long {
		short, long = long, short
	}

	score := float64(short) / float64(long)
	if long-short < l.cfg.WholeLineSlack {
		score += l.cfg.WholeLineBonus
	}
	return score, true
}

// BestLine returns the index of the best candidate line for name and its
// score, or -1 when no line is a candidate. Equal scores keep the earlier
// line.
func (l *Localizer) BestLine(name string, lines []ocr.Line) (int, float64) {
	target := Normalize(name)
	best, bestScore := -1, 0.0
	for i, line := range lines {
		s, ok := l.score(target, Normalize(line.Text))
		if !ok {
			continue
		}
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

// Localize refines each dish's box from the OCR lines of a width x height
// image. Output order follows dishes. With no lines, or unknown image
// dimensions, every dish keeps its placeholder box.
func (l *Localizer) Localize(dishes []dish.InferredDish, lines []ocr.Line, width, height int) []dish.LocalizedDish {
	out := make([]dish.LocalizedDish, len(dishes))
	for i, d := range dishes {
		out[i] = dish.LocalizedDish{InferredDish: d}
		if len(lines) == 0 || width <= 0 || height <= 0 {
			continue
		}

		idx, score := l.BestLine(d.OriginalName, lines)
		if idx < 0 || score <= l.cfg.Threshold {
			continue
		}
		b := lines[idx].Bounds
		out[i].BoundingBox = dish.FromPixels(b.X0, b.Y0, b.X1, b.Y1, width, height)
		out[i].IsOCRRefined = true
	}
	return out
}
