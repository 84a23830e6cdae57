package scan

import (
	"errors"
	"fmt"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/imaging"
)

// Request is one scan invocation. It is not modified by the pipeline.
type Request struct {
	Source   imaging.Source
	ScanType dish.ScanType
	Language dish.Language
}

// Validate checks that the request can be run.
func (r Request) Validate() error {
	if r.Source == nil {
		return errors.New("scan: no source image")
	}
	if !r.ScanType.Valid() {
		return fmt.Errorf("scan: unknown scan type %q", r.ScanType)
	}
	if !r.Language.Valid() {
		return fmt.Errorf("scan: unsupported target language %q", r.Language)
	}
	return nil
}
