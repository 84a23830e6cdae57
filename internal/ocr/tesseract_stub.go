//go:build !cgo || !linux

package ocr

// DefaultEngine returns NopEngine; Tesseract needs cgo on linux.
func DefaultEngine() Engine { return NopEngine{} }
