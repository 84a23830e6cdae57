package inference

import (
	"context"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/imaging"
)

// Request is one analysis call.
type Request struct {
	Image    *imaging.Payload
	ScanType dish.ScanType
	Language dish.Language
}

// Response is the parsed model output.
type Response struct {
	IsMenu bool                `json:"isMenu"`
	Dishes []dish.InferredDish `json:"dishes"`
}

// Analyzer runs the inference call.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Response, error)
}
