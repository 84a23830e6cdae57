package dish

import (
	"encoding/json"
	"fmt"
)

// NormalizedScale is the upper bound of the normalized coordinate space.
const NormalizedScale = 1000.0

// ScanType tells the pipeline what the photograph shows.
type ScanType string

const (
	ScanTypeDish ScanType = "dish" // photo of prepared food
	ScanTypeMenu ScanType = "menu" // photo of a text menu
)

// Valid reports whether t is a known scan type.
func (t ScanType) Valid() bool {
	return t == ScanTypeDish || t == ScanTypeMenu
}

// SpiceLevel is the four-step heat scale used for every dish.
type SpiceLevel string

const (
	SpiceNone   SpiceLevel = "None"
	SpiceMild   SpiceLevel = "Mild"
	SpiceMedium SpiceLevel = "Medium"
	SpiceHot    SpiceLevel = "Hot"
)

// SpiceLevels lists the accepted values in ascending heat order.
var SpiceLevels = []SpiceLevel{SpiceNone, SpiceMild, SpiceMedium, SpiceHot}

// Valid reports whether s is one of SpiceLevels.
func (s SpiceLevel) Valid() bool {
	for _, l := range SpiceLevels {
		if s == l {
			return true
		}
	}
	return false
}

// Chilies returns the number of chili icons a UI shows for s.
func (s SpiceLevel) Chilies() int {
	switch s {
	case SpiceMild:
		return 1
	case SpiceMedium:
		return 2
	case SpiceHot:
		return 3
	default:
		return 0
	}
}

// BoundingBox is [yMin, xMin, yMax, xMax] in the 0-1000 normalized space.
type BoundingBox [4]float64

// FromPixels converts a pixel rectangle on a width x height image into the
// normalized space. A non-positive dimension yields the zero box.
func FromPixels(x0, y0, x1, y1, width, height int) BoundingBox {
	if width <= 0 || height <= 0 {
		return BoundingBox{}
	}
	w := float64(width)
	h := float64(height)
	return BoundingBox{
		float64(y0) / h * NormalizedScale,
		float64(x0) / w * NormalizedScale,
		float64(y1) / h * NormalizedScale,
		float64(x1) / w * NormalizedScale,
	}
}

// BoxFromSlice builds a box from the loosely typed array returned by the
// inference service. Anything but exactly four values yields the zero box.
func BoxFromSlice(v []float64) BoundingBox {
	if len(v) != 4 {
		return BoundingBox{}
	}
	return BoundingBox{v[0], v[1], v[2], v[3]}
}

// IsZero reports whether the box carries no location (the placeholder).
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// YMin, XMin, YMax and XMax name the box components.
func (b BoundingBox) YMin() float64 { return b[0] }
func (b BoundingBox) XMin() float64 { return b[1] }
func (b BoundingBox) YMax() float64 { return b[2] }
func (b BoundingBox) XMax() float64 { return b[3] }

// ToPixels maps the box back onto a width x height image, clamped to the
// image bounds.
func (b BoundingBox) ToPixels(width, height int) (x0, y0, x1, y1 int) {
	clamp := func(v float64, max int) int {
		p := int(v / NormalizedScale * float64(max))
		if p < 0 {
			return 0
		}
		if p > max {
			return max
		}
		return p
	}
	return clamp(b.XMin(), width), clamp(b.YMin(), height), clamp(b.XMax(), width), clamp(b.YMax(), height)
}

// UnmarshalJSON accepts an array of any length, mapping anything but four
// values to the zero box instead of failing the whole response.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = BoxFromSlice(v)
	return nil
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.1f,%.1f,%.1f,%.1f]", b[0], b[1], b[2], b[3])
}

// InferredDish is one dish as understood by the inference service. Its
// BoundingBox is a low-fidelity estimate until localized.
type InferredDish struct {
	Name         string      `json:"name"`
	OriginalName string      `json:"originalName"`
	EnglishName  string      `json:"englishName"`
	Description  string      `json:"description"`
	Tags         []string    `json:"tags"`      // display order
	Allergens    []string    `json:"allergens"` // 1-5 entries
	SpiceLevel   SpiceLevel  `json:"spiceLevel"`
	Category     string      `json:"category"`
	BoundingBox  BoundingBox `json:"boundingBox"`
}

// LocalizedDish is an InferredDish after text localization. When
// IsOCRRefined is set, BoundingBox was derived from exactly one OCR line.
type LocalizedDish struct {
	InferredDish
	IsOCRRefined bool `json:"isOcrRefined,omitempty"`
}

// Dish is the final record handed to the caller.
type Dish struct {
	LocalizedDish
	ID               string `json:"id"`
	Image            string `json:"image"`
	IsMenu           bool   `json:"isMenu"`
	PlaceholderColor string `json:"placeholderColor,omitempty"`
}
