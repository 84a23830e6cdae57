//go:build cgo && linux

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine recognizes text lines with the gosseract bindings.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

// DefaultEngine returns the Tesseract engine.
func DefaultEngine() Engine { return NewTesseractEngine() }

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize returns line-level boxes (RIL_TEXTLINE) in engine order.
//
// Tesseract cannot be interrupted, so a canceled ctx returns immediately
// while the recognition finishes in the background and is discarded.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte, languages []string) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		lines []Line
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tesseract panicked: %v", r)}
			}
		}()
		lines, err := e.recognize(image, languages)
		done <- outcome{lines: lines, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.lines, o.err
	}
}

func (e *TesseractEngine) recognize(image []byte, languages []string) ([]Line, error) {
	client := e.clientFactory()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to get text lines: %w", err)
	}

	lines := make([]Line, 0, len(boxes))
	for _, box := range boxes {
		lines = append(lines, Line{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Bounds: Bounds{
				X0: box.Box.Min.X,
				Y0: box.Box.Min.Y,
				X1: box.Box.Max.X,
				Y1: box.Box.Max.Y,
			},
		})
	}
	return lines, nil
}

// Version returns the linked Tesseract version.
func (e *TesseractEngine) Version() string {
	client := e.clientFactory()
	defer client.Close()
	return client.Version()
}
