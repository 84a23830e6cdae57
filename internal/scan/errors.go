package scan

import (
	"errors"
	"time"

	"github.com/ironsheep/menuscan-mcp/internal/imaging"
	"github.com/ironsheep/menuscan-mcp/internal/inference"
)

// Status lines shown for terminal failures.
const (
	StatusQuotaExceeded = "Gemini API Quota Exceeded. Please try again later."
	StatusImageRead     = "Could not read the image. Try again."
	StatusFailed        = "Error scanning. Try again."
)

// StatusMessage returns the user-facing status line for a failed scan.
func StatusMessage(err error) string {
	var readErr *imaging.ReadError
	switch {
	case errors.Is(err, inference.ErrQuotaExceeded):
		return StatusQuotaExceeded
	case errors.As(err, &readErr):
		return StatusImageRead
	default:
		return StatusFailed
	}
}

// failureDelay picks how long a failure message stays up before OnCancel.
func failureDelay(err error, cfg SessionConfig) time.Duration {
	if errors.Is(err, inference.ErrQuotaExceeded) {
		return cfg.QuotaFailureDelay
	}
	return cfg.FailureDelay
}
