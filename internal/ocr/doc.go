// Package ocr locates text lines on a source image.
//
// Recognition itself is delegated to an Engine. The Adapter wraps an engine
// with language hints, optional preprocessing and failure containment: any
// engine failure, including a panic, is logged and turned into "no lines".
// OCR only sharpens dish locations, so a scan never fails because of it.
//
// # Engines
//
//   - TesseractEngine: gosseract bindings, built on linux with cgo
//   - NopEngine: recognizes nothing; used when cgo is off or off linux
//
// DefaultEngine returns whichever of the two the binary was built with.
//
// # Prerequisites
//
// A linux cgo build needs the Tesseract library and headers plus the
// trained data for every hinted language:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-chi-sim tesseract-ocr-eng
//
// Build with CGO_ENABLED=0 to get a binary without OCR.
//
// # Languages
//
// Language hints are Tesseract codes. The default set, "chi_sim" and
// "eng", covers the Han script and Latin text most menus mix. Other codes
// can be configured, joined with "+":
//   - "chi_tra" - Chinese (Traditional)
//   - "jpn" - Japanese
//   - "kor" - Korean
//   - "tha" - Thai
//   - "vie" - Vietnamese
//
// # Coordinates
//
// Line bounds are native pixel coordinates of the source image. When
// preprocessing is enabled the engine sees a grayscale copy of identical
// dimensions, so the geometry is unchanged.
package ocr
