package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/imaging"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *Client {
	t.Helper()
	hc := retryablehttp.NewClient()
	hc.RetryMax = retries
	hc.RetryWaitMin = time.Millisecond
	hc.RetryWaitMax = 5 * time.Millisecond
	hc.Logger = nil

	c, err := NewClient(ClientOptions{
		APIKey:     "test-key",
		Endpoint:   srv.URL,
		Model:      "test-model",
		Logger:     log.New(io.Discard, "", 0),
		HTTPClient: hc,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func testRequest() Request {
	return Request{
		Image:    &imaging.Payload{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg", Width: 10, Height: 10},
		ScanType: dish.ScanTypeMenu,
		Language: dish.Spanish,
	}
}

func candidates(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(b)
}

func TestClient_Analyze(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing API key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, candidates("```json\n{\"isMenu\":true,\"dishes\":[{\"name\":\"Rollito\",\"originalName\":\"春卷\"}]}\n```"))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv, 0).Analyze(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !resp.IsMenu || len(resp.Dishes) != 1 || resp.Dishes[0].OriginalName != "春卷" {
		t.Errorf("unexpected response: %+v", resp)
	}

	parts := got.Contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/jpeg" {
		t.Fatalf("image part missing: %+v", parts)
	}
	if parts[0].InlineData.Data != "/9j/" {
		t.Errorf("image data: got %q", parts[0].InlineData.Data)
	}
	if !strings.Contains(parts[1].Text, "CULINARY KNOWLEDGE") {
		t.Error("menu prompt not sent")
	}
	if got.GenerationConfig.ResponseMIMEType != "application/json" || got.GenerationConfig.ResponseSchema == nil {
		t.Error("response schema not sent")
	}
}

func TestClient_QuotaExceeded(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"429", http.StatusTooManyRequests, `{"error":{"code":429,"message":"Too many requests","status":"RESOURCE_EXHAUSTED"}}`},
		{"resource exhausted on 403", http.StatusForbidden, `{"error":{"code":403,"message":"denied","status":"RESOURCE_EXHAUSTED"}}`},
		{"quota message", http.StatusBadRequest, `{"error":{"code":400,"message":"Quota exceeded for metric","status":"FAILED_PRECONDITION"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, 0).Analyze(context.Background(), testRequest())
			if !errors.Is(err, ErrQuotaExceeded) {
				t.Errorf("expected ErrQuotaExceeded, got %v", err)
			}
		})
	}
}

func TestClient_GenericFailureIsNotQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"Invalid image","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Analyze(context.Background(), testRequest())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if errors.Is(err, ErrQuotaExceeded) {
		t.Error("generic failure should not match ErrQuotaExceeded")
	}
	if apiErr.Status != "INVALID_ARGUMENT" || apiErr.Message != "Invalid image" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, candidates(`{"isMenu":false,"dishes":[]}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv, 2).Analyze(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.IsMenu || len(resp.Dishes) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestClient_MalformedModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, candidates(`{"isMenu": true, "dishes": [`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Analyze(context.Background(), testRequest())
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected *ParseError, got %v", err)
	}
}

func TestClient_NoCandidatesIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv, 0).Analyze(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(resp.Dishes) != 0 {
		t.Errorf("expected no dishes, got %+v", resp.Dishes)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(ClientOptions{}); err == nil {
		t.Error("expected error without API key")
	}
}
