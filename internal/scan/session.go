package scan

import (
	"context"
	"log"
	"time"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/progress"
)

// SessionConfig holds the caller-facing timing knobs.
type SessionConfig struct {
	ProgressTick      time.Duration
	CompletionDelay   time.Duration // after Complete, before OnComplete
	FailureDelay      time.Duration // after a failure, before OnCancel
	QuotaFailureDelay time.Duration // FailureDelay for quota failures
}

// DefaultSessionConfig returns the default timings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ProgressTick:      progress.DefaultTick,
		CompletionDelay:   300 * time.Millisecond,
		FailureDelay:      3000 * time.Millisecond,
		QuotaFailureDelay: 5000 * time.Millisecond,
	}
}

// Callbacks receive a session's outcome. Any of them may be nil.
type Callbacks struct {
	OnProgress func(progress.Update)
	OnComplete func(dishes []dish.Dish, isMenu bool)
	OnCancel   func()
}

// Session runs scans on behalf of a caller.
type Session struct {
	pipeline *Pipeline
	cfg      SessionConfig
	logger   *log.Logger
}

// NewSession creates a Session. A nil logger uses log.Default().
func NewSession(p *Pipeline, cfg SessionConfig, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{pipeline: p, cfg: cfg, logger: logger}
}

// Pipeline returns the underlying pipeline.
func (s *Session) Pipeline() *Pipeline { return s.pipeline }

// Config returns the session timings.
func (s *Session) Config() SessionConfig { return s.cfg }

// Run executes one scan and blocks until its outcome callback has fired,
// or until ctx is canceled.
//
// On success OnComplete fires once after CompletionDelay. On failure the
// progress status is set to StatusMessage(err) and OnCancel fires once
// after FailureDelay (QuotaFailureDelay for quota errors). Once ctx is
// canceled no callback fires and Run returns ctx.Err().
func (s *Session) Run(ctx context.Context, req Request, cb Callbacks) (*Result, error) {
	listener := func(progress.Update) {}
	if cb.OnProgress != nil {
		listener = cb.OnProgress
	}
	rep := progress.NewReporter(s.cfg.ProgressTick, progress.DefaultStatusTexts(req.ScanType == dish.ScanTypeMenu), listener)
	defer rep.Stop()

	stop := context.AfterFunc(ctx, rep.Cancel)
	defer stop()
	if err := ctx.Err(); err != nil {
		rep.Cancel()
		return nil, err
	}

	res, err := s.pipeline.Scan(ctx, req, rep)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err != nil {
		s.logger.Printf("scan failed: %v", err)
		rep.Fail(StatusMessage(err))
		if !sleep(ctx, failureDelay(err, s.cfg)) {
			return nil, ctx.Err()
		}
		if cb.OnCancel != nil {
			cb.OnCancel()
		}
		return nil, err
	}

	if !sleep(ctx, s.cfg.CompletionDelay) {
		return nil, ctx.Err()
	}
	if cb.OnComplete != nil {
		cb.OnComplete(res.Dishes, res.IsMenu)
	}
	return res, nil
}

// sleep waits for d and reports whether ctx is still live afterwards.
func sleep(ctx context.Context, d time.Duration) bool {
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return false
		}
	}
	return ctx.Err() == nil
}
