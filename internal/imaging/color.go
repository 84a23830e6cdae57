package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
)

// sampleSide is the edge length the region is reduced to before averaging.
const sampleSide = 16

// PlaceholderColor returns the average colour of the box region of img as
// "#rrggbb". A zero or degenerate box averages the whole image.
//
// Averaging happens in linear RGB so that a region split between two
// saturated colours does not come out muddy.
func PlaceholderColor(img image.Image, box dish.BoundingBox) string {
	region := Region(img, box)
	if region.Bounds().Empty() {
		return "#000000"
	}

	small := imaging.Resize(region, sampleSide, sampleSide, imaging.Box)
	b := small.Bounds()

	var sr, sg, sb float64
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(small.At(x, y))
			if !ok {
				continue // fully transparent
			}
			r, g, bl := c.LinearRgb()
			sr += r
			sg += g
			sb += bl
			n++
		}
	}
	if n == 0 {
		return "#000000"
	}

	avg := colorful.LinearRgb(sr/float64(n), sg/float64(n), sb/float64(n))
	return avg.Clamped().Hex()
}

// Region crops the box region out of img. A zero box, or one that maps to
// an empty pixel rectangle, returns img unchanged.
func Region(img image.Image, box dish.BoundingBox) image.Image {
	if box.IsZero() {
		return img
	}
	bounds := img.Bounds()
	x0, y0, x1, y1 := box.ToPixels(bounds.Dx(), bounds.Dy())
	rect := image.Rect(x0, y0, x1, y1).Add(bounds.Min)
	if rect.Empty() {
		return img
	}
	return imaging.Crop(img, rect)
}
