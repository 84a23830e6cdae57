package inference

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
)

// StripFence removes a surrounding markdown code fence (``` or ```json).
// Text without a leading fence is returned trimmed but otherwise unchanged.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if first, rest, ok := strings.Cut(text, "\n"); ok && !strings.ContainsAny(strings.TrimSpace(first), "{[") {
		// info string such as "json"
		text = rest
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Parse decodes model output into a Response.
//
// An empty body is treated as "{}". A missing dishes key yields an empty,
// non-nil dish list. Malformed JSON, a non-object body, trailing data or a
// dish with neither name nor originalName is a *ParseError. Unknown spice
// levels are mapped to dish.SpiceNone and nil tag or allergen lists to
// empty ones.
func Parse(text string) (*Response, error) {
	body := StripFence(text)
	if body == "" {
		body = "{}"
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, &ParseError{Raw: body, Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Raw: body, Err: fmt.Errorf("unexpected data after response object")}
	}
	if trimmed := bytes.TrimSpace([]byte(body)); trimmed[0] != '{' {
		return nil, &ParseError{Raw: body, Err: fmt.Errorf("response is not an object")}
	}

	if resp.Dishes == nil {
		resp.Dishes = []dish.InferredDish{}
	}
	for i := range resp.Dishes {
		d := &resp.Dishes[i]
		if strings.TrimSpace(d.OriginalName) == "" && strings.TrimSpace(d.Name) == "" {
			return nil, &ParseError{Raw: body, Err: fmt.Errorf("dish %d has no name", i)}
		}
		if d.OriginalName == "" {
			d.OriginalName = d.Name
		}
		if !d.SpiceLevel.Valid() {
			d.SpiceLevel = dish.SpiceNone
		}
		if d.Tags == nil {
			d.Tags = []string{}
		}
		if d.Allergens == nil {
			d.Allergens = []string{}
		}
	}
	return &resp, nil
}
