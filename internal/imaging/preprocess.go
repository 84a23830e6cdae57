package imaging

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// ocrContrast is the relative contrast boost applied before recognition.
const ocrContrast = 0.4

// PrepareForOCR returns a high-contrast grayscale PNG of the payload.
//
// The output has the same pixel dimensions as the payload so that OCR
// geometry measured on it is valid on the source image.
func PrepareForOCR(p *Payload) ([]byte, error) {
	img, err := p.Decode()
	if err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(img)
	boosted := adjust.Contrast(gray, ocrContrast)
	sharpened := effect.Sharpen(boosted)

	var buf bytes.Buffer
	if err := png.Encode(&buf, sharpened); err != nil {
		return nil, fmt.Errorf("failed to encode OCR image: %w", err)
	}
	return buf.Bytes(), nil
}
