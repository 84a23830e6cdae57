package inference

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrQuotaExceeded is matched by errors that mean the service is rate
// limiting or out of quota.
var ErrQuotaExceeded = errors.New("inference quota exceeded")

// APIError is a non-success reply from the inference service.
type APIError struct {
	StatusCode int    // HTTP status code
	Status     string // service status, e.g. "RESOURCE_EXHAUSTED"
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("inference service: %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("inference service: %d: %s", e.StatusCode, e.Message)
}

// Is reports whether e is a quota failure when target is ErrQuotaExceeded.
func (e *APIError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.isQuota()
}

func (e *APIError) isQuota() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.Status == "RESOURCE_EXHAUSTED" ||
		strings.Contains(strings.ToLower(e.Message), "quota")
}

// ParseError reports a response that does not fit the response schema.
type ParseError struct {
	Raw string // text after fence stripping
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse inference response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
