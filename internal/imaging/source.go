package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Source is an opaque handle to the bytes of one image.
type Source interface {
	// Open returns a reader over the raw image bytes.
	Open(ctx context.Context) (io.ReadCloser, error)

	// String identifies the source in logs and errors.
	String() string
}

// FileSource reads an image from a file path.
type FileSource string

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(string(s))
}

func (s FileSource) String() string { return string(s) }

// BytesSource serves an image already held in memory.
type BytesSource []byte

func (s BytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s)), nil
}

func (s BytesSource) String() string { return fmt.Sprintf("bytes(%d)", len(s)) }

// DataURISource reads an image from a base64 data URI.
type DataURISource string

func (s DataURISource) Open(ctx context.Context) (io.ReadCloser, error) {
	body, err := StripDataURI(string(s))
	if err != nil {
		return nil, err
	}
	return io.NopCloser(base64.NewDecoder(base64.StdEncoding, strings.NewReader(body))), nil
}

func (s DataURISource) String() string {
	if i := strings.IndexByte(string(s), ','); i >= 0 {
		return string(s)[:i] + ",..."
	}
	return "data:..."
}

// StripDataURI removes the "data:<mime>;base64," header and returns the
// base64 body.
func StripDataURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", errors.New("not a data URI")
	}
	header, body, ok := strings.Cut(uri, ",")
	if !ok {
		return "", errors.New("data URI has no payload")
	}
	if !strings.HasSuffix(header, ";base64") {
		return "", errors.New("data URI is not base64 encoded")
	}
	return body, nil
}

// URLSource fetches an image over http(s).
type URLSource struct {
	URL    string
	Client *retryablehttp.Client
}

func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func (s URLSource) String() string { return s.URL }

// ParseSource maps a string to the matching Source: data URIs, http(s)
// URLs, or otherwise a file path.
func ParseSource(s string, client *retryablehttp.Client) Source {
	switch {
	case strings.HasPrefix(s, "data:"):
		return DataURISource(s)
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return URLSource{URL: s, Client: client}
	default:
		return FileSource(s)
	}
}
