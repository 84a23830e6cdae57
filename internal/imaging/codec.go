package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// MaxPayloadBytes caps how much of a source Encode reads.
const MaxPayloadBytes = 20 << 20

// ReadError reports that a source could not be read or is not an image.
type ReadError struct {
	Source string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read image %s: %v", e.Source, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Payload is the canonical encoded form of a source image.
type Payload struct {
	// Data holds the raw image bytes with no transport framing.
	Data []byte

	// MIMEType is detected from the image header, e.g. "image/jpeg".
	MIMEType string

	// Width and Height are the native pixel dimensions.
	Width  int
	Height int
}

// Encode reads src into a Payload.
//
// The bytes are returned exactly as read. Encode fails with *ReadError if
// the source cannot be opened, exceeds MaxPayloadBytes, or is not a
// recognized image format.
func Encode(ctx context.Context, src Source) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, &ReadError{Source: src.String(), Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxPayloadBytes+1))
	if err != nil {
		return nil, &ReadError{Source: src.String(), Err: err}
	}
	if len(data) == 0 {
		return nil, &ReadError{Source: src.String(), Err: fmt.Errorf("empty image")}
	}
	if len(data) > MaxPayloadBytes {
		return nil, &ReadError{Source: src.String(), Err: fmt.Errorf("image exceeds %d bytes", MaxPayloadBytes)}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ReadError{Source: src.String(), Err: fmt.Errorf("unrecognized image: %w", err)}
	}

	return &Payload{
		Data:     data,
		MIMEType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// Base64 returns the payload as standard base64 text.
func (p *Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// DataURI returns an embeddable data URI carrying the payload.
func (p *Payload) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + p.Base64()
}

// Decode decodes the payload into pixels.
func (p *Payload) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
