// Package resolve assigns a display image and identity to each localized
// dish.
//
// Menu scans point every dish at a remote thumbnail lookup keyed by its
// names. Dish scans reuse the captured photo as an embedded data URI and
// make no network call.
package resolve

import (
	"image"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/imaging"
)

// DefaultThumbnailURL is the thumbnail lookup template. {query} is replaced
// by the URL-encoded search query.
const DefaultThumbnailURL = "https://tse2.mm.bing.net/th?q={query}&w=400&h=400&c=7&rs=1&p=0"

// QueryPlaceholder marks where the query goes in a thumbnail template.
const QueryPlaceholder = "{query}"

// Resolver builds final Dish records.
type Resolver struct {
	template string
	newID    func() string
}

// New creates a Resolver for the given thumbnail template. An empty
// template uses DefaultThumbnailURL.
func New(template string) *Resolver {
	if template == "" {
		template = DefaultThumbnailURL
	}
	return &Resolver{template: template, newID: uuid.NewString}
}

// SearchQuery is the free-text thumbnail query for d: its original name,
// its English name (or translated name) and "food dish".
func SearchQuery(d dish.InferredDish) string {
	secondary := d.EnglishName
	if strings.TrimSpace(secondary) == "" {
		secondary = d.Name
	}
	return strings.Join(strings.Fields(d.OriginalName+" "+secondary+" food dish"), " ")
}

// ThumbnailURL returns the lookup URI for query.
func (r *Resolver) ThumbnailURL(query string) string {
	return strings.ReplaceAll(r.template, QueryPlaceholder, url.QueryEscape(query))
}

// Resolve turns localized dishes into final records, preserving order.
// payload supplies the embedded image for dish scans. img, when non-nil,
// is the decoded source used for placeholder colours.
func (r *Resolver) Resolve(dishes []dish.LocalizedDish, isMenu bool, payload *imaging.Payload, img image.Image) []dish.Dish {
	var embedded string
	if !isMenu && payload != nil {
		embedded = payload.DataURI()
	}

	out := make([]dish.Dish, len(dishes))
	for i, d := range dishes {
		out[i] = dish.Dish{
			LocalizedDish: d,
			ID:            r.newID(),
			IsMenu:        isMenu,
		}
		if isMenu {
			out[i].Image = r.ThumbnailURL(SearchQuery(d.InferredDish))
		} else {
			out[i].Image = embedded
		}
		if img != nil {
			out[i].PlaceholderColor = imaging.PlaceholderColor(img, d.BoundingBox)
		}
	}
	return out
}

// RemoteImages returns the distinct http(s) image URIs of dishes in order.
func RemoteImages(dishes []dish.Dish) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, d := range dishes {
		if !strings.HasPrefix(d.Image, "http://") && !strings.HasPrefix(d.Image, "https://") {
			continue
		}
		if seen[d.Image] {
			continue
		}
		seen[d.Image] = true
		urls = append(urls, d.Image)
	}
	return urls
}
