package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
)

// Defaults for the Gemini REST API.
const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-2.5-flash"
)

// maxResponseBytes caps how much of a reply is read.
const maxResponseBytes = 8 << 20

// ClientOptions configures a Client.
type ClientOptions struct {
	APIKey   string
	Endpoint string        // defaults to DefaultEndpoint
	Model    string        // defaults to DefaultModel
	Retries  int           // retries on 429/5xx and transport errors
	Timeout  time.Duration // per attempt; zero means no timeout
	Logger   *log.Logger   // nil means log.Default()
	Debug    bool          // log retry attempts

	// HTTPClient overrides the retrying client entirely (tests).
	HTTPClient *retryablehttp.Client
}

// Client is an Analyzer backed by the Gemini generateContent API.
type Client struct {
	http     *retryablehttp.Client
	apiKey   string
	endpoint string
	model    string
	logger   *log.Logger
	debug    bool
}

// NewClient creates a Client. It fails only when no API key is given.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("inference: API key is required")
	}
	c := &Client{
		http:     opts.HTTPClient,
		apiKey:   opts.APIKey,
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		model:    opts.Model,
		logger:   opts.Logger,
		debug:    opts.Debug,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.http == nil {
		c.http = retryablehttp.NewClient()
		c.http.RetryMax = opts.Retries
		c.http.HTTPClient.Timeout = opts.Timeout
		c.http.Logger = nil
		if opts.Debug {
			c.http.Logger = c.logger
		}
	}
	// Hand the final response back so its status can be classified.
	c.http.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string                 `json:"responseMimeType"`
	ResponseSchema   map[string]interface{} `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Analyze sends the image and scan-specific prompt and parses the reply.
func (c *Client) Analyze(ctx context.Context, req Request) (*Response, error) {
	if req.Image == nil {
		return nil, errors.New("inference: request has no image")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MIMEType: req.Image.MIMEType, Data: req.Image.Base64()}},
				{Text: Prompt(req.ScanType, req.Language)},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   ResponseSchema(req.Language),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("inference: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("inference: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	if c.debug {
		c.logger.Printf("inference: %s scan, %s request to %s", req.ScanType, humanize.Bytes(uint64(len(body))), c.model)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("inference: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, raw)
	}

	var gen generateResponse
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, &ParseError{Raw: string(raw), Err: fmt.Errorf("decode envelope: %w", err)}
	}

	return Parse(candidateText(gen))
}

// candidateText joins the text parts of the first candidate.
func candidateText(gen generateResponse) string {
	if len(gen.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range gen.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func apiError(statusCode int, raw []byte) *APIError {
	e := &APIError{StatusCode: statusCode, Message: http.StatusText(statusCode)}
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		e.Message = env.Error.Message
		e.Status = env.Error.Status
	}
	return e
}
