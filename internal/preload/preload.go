// Package preload prefetches remote dish images with a hard deadline.
//
// Every fetch settles as either loaded or failed; neither outcome is an
// error to the caller. Preload returns when all fetches have settled or
// the timeout fires, whichever comes first.
package preload

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultTimeout bounds the total preload wait.
const DefaultTimeout = 3000 * time.Millisecond

// Fetcher loads one image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) error
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) error

func (f FetcherFunc) Fetch(ctx context.Context, url string) error { return f(ctx, url) }

// HTTPFetcher downloads and discards an image body.
type HTTPFetcher struct {
	Client *retryablehttp.Client
}

// NewHTTPFetcher creates an HTTPFetcher with retries disabled.
func NewHTTPFetcher() *HTTPFetcher {
	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.Logger = nil
	return &HTTPFetcher{Client: c}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

// Summary reports how a preload ended.
type Summary struct {
	Requested int           `json:"requested"`
	Loaded    int           `json:"loaded"`
	Failed    int           `json:"failed"`
	TimedOut  bool          `json:"timed_out"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Pending is the number of fetches still outstanding when Preload returned.
func (s Summary) Pending() int { return s.Requested - s.Loaded - s.Failed }

// Preloader races a batch of fetches against a timeout.
type Preloader struct {
	fetcher Fetcher
	timeout time.Duration
	logger  *log.Logger
	debug   bool
}

// New creates a Preloader. A nil fetcher uses NewHTTPFetcher and a
// non-positive timeout uses DefaultTimeout.
func New(fetcher Fetcher, timeout time.Duration, logger *log.Logger, debug bool) *Preloader {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Preloader{fetcher: fetcher, timeout: timeout, logger: logger, debug: debug}
}

// Timeout returns the preload window.
func (p *Preloader) Timeout() time.Duration { return p.timeout }

// Preload fetches urls concurrently and returns once all have settled, the
// timeout elapses or ctx is done. Outstanding fetches are canceled on
// return.
func (p *Preloader) Preload(ctx context.Context, urls []string) Summary {
	start := time.Now()
	sum := Summary{Requested: len(urls)}
	if len(urls) == 0 {
		return sum
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var loaded, failed int64
	var wg sync.WaitGroup
	for _, u := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			if err := p.fetcher.Fetch(fetchCtx, u); err != nil {
				atomic.AddInt64(&failed, 1)
				if p.debug {
					p.logger.Printf("preload: %s: %v", u, err)
				}
				return
			}
			atomic.AddInt64(&loaded, 1)
		}(u)
	}

	settled := make(chan struct{})
	go func() {
		wg.Wait()
		close(settled)
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-settled:
	case <-timer.C:
		sum.TimedOut = true
	case <-ctx.Done():
	}

	sum.Loaded = int(atomic.LoadInt64(&loaded))
	sum.Failed = int(atomic.LoadInt64(&failed))
	sum.Elapsed = time.Since(start)
	if sum.TimedOut {
		p.logger.Printf("preload: timed out after %v with %d of %d images pending", p.timeout, sum.Pending(), sum.Requested)
	}
	return sum
}
