package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/imaging"
	"github.com/ironsheep/menuscan-mcp/internal/inference"
	"github.com/ironsheep/menuscan-mcp/internal/localize"
	"github.com/ironsheep/menuscan-mcp/internal/ocr"
	"github.com/ironsheep/menuscan-mcp/internal/preload"
	"github.com/ironsheep/menuscan-mcp/internal/progress"
	"github.com/ironsheep/menuscan-mcp/internal/resolve"
)

// Options wires a Pipeline. Only Analyzer is required.
type Options struct {
	Analyzer  inference.Analyzer
	OCR       *ocr.Adapter        // nil means no OCR
	Localizer *localize.Localizer // nil means default knobs
	Resolver  *resolve.Resolver   // nil means the default thumbnail template
	Preloader *preload.Preloader  // nil means HTTP fetches with the default timeout
	Logger    *log.Logger         // nil means log.Default()
	Debug     bool
}

// Pipeline runs scans. It holds no per-scan state and may be shared.
type Pipeline struct {
	analyzer  inference.Analyzer
	ocr       *ocr.Adapter
	localizer *localize.Localizer
	resolver  *resolve.Resolver
	preloader *preload.Preloader
	logger    *log.Logger
	debug     bool
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("scan: an analyzer is required")
	}
	p := &Pipeline{
		analyzer:  opts.Analyzer,
		ocr:       opts.OCR,
		localizer: opts.Localizer,
		resolver:  opts.Resolver,
		preloader: opts.Preloader,
		logger:    opts.Logger,
		debug:     opts.Debug,
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if p.ocr == nil {
		p.ocr = ocr.NewAdapter(nil, ocr.WithLogger(p.logger))
	}
	if p.localizer == nil {
		p.localizer = localize.New(localize.DefaultConfig())
	}
	if p.resolver == nil {
		p.resolver = resolve.New("")
	}
	if p.preloader == nil {
		p.preloader = preload.New(nil, preload.DefaultTimeout, p.logger, p.debug)
	}
	return p, nil
}

// OCR returns the pipeline's OCR adapter.
func (p *Pipeline) OCR() *ocr.Adapter { return p.ocr }

// Result is a successful scan.
type Result struct {
	Dishes []dish.Dish `json:"dishes"`
	IsMenu bool        `json:"is_menu"`

	OCRLines int             `json:"ocr_lines"`
	Refined  int             `json:"refined"`
	Preload  preload.Summary `json:"preload"`
	Elapsed  time.Duration   `json:"elapsed"`
}

// Scan runs one scan, reporting phases on rep (which may be nil). The
// reporter's ticker is stopped before Scan returns. A canceled ctx ends the
// scan at the next phase boundary with ctx.Err().
func (p *Pipeline) Scan(ctx context.Context, req Request, rep *progress.Reporter) (*Result, error) {
	start := time.Now()
	if rep == nil {
		rep = progress.NewReporter(0, nil, nil)
	}
	defer rep.Stop()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep.Enter(progress.StateEncoding)
	payload, err := imaging.Encode(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	if p.debug {
		p.logger.Printf("scan: encoded %s (%s, %dx%d, %s)", req.Source, payload.MIMEType, payload.Width, payload.Height, humanize.Bytes(uint64(len(payload.Data))))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep.Enter(progress.StateInferringAndScanning)
	resp, lines, err := p.analyze(ctx, req, payload)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep.Enter(progress.StateLocalizing)
	localized := p.localizer.Localize(resp.Dishes, lines, payload.Width, payload.Height)
	refined := 0
	for _, d := range localized {
		if d.IsOCRRefined {
			refined++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep.Enter(progress.StateResolvingImages)
	isMenu := resp.IsMenu || req.ScanType == dish.ScanTypeMenu
	img, err := payload.Decode()
	if err != nil {
		// Only placeholder colours need pixels.
		p.logger.Printf("scan: %v", err)
	}
	dishes := p.resolver.Resolve(localized, isMenu, payload, img)

	res := &Result{
		Dishes:   dishes,
		IsMenu:   isMenu,
		OCRLines: len(lines),
		Refined:  refined,
	}

	if isMenu && len(dishes) > 0 {
		rep.Enter(progress.StatePreloading)
		res.Preload = p.preloader.Preload(ctx, resolve.RemoteImages(dishes))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	rep.Enter(progress.StateComplete)
	if p.debug {
		p.logger.Printf("scan: %d dishes (%d refined from %d OCR lines), menu=%v, %v",
			len(dishes), refined, len(lines), isMenu, res.Elapsed.Round(time.Millisecond))
	}
	return res, nil
}

// analyze runs inference and OCR concurrently and returns once both have
// finished. An inference failure cancels the OCR call; OCR cannot fail.
func (p *Pipeline) analyze(ctx context.Context, req Request, payload *imaging.Payload) (*inference.Response, []ocr.Line, error) {
	g, gctx := errgroup.WithContext(ctx)

	var resp *inference.Response
	g.Go(func() error {
		r, err := p.analyzer.Analyze(gctx, inference.Request{
			Image:    payload,
			ScanType: req.ScanType,
			Language: req.Language,
		})
		if err != nil {
			return fmt.Errorf("analyze %s: %w", req.ScanType, err)
		}
		resp = r
		return nil
	})

	var lines []ocr.Line
	g.Go(func() error {
		lines = p.ocr.Lines(gctx, payload)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if resp == nil {
		resp = &inference.Response{Dishes: []dish.InferredDish{}}
	}
	return resp, lines, nil
}
