package main

import (
	"fmt"
	"log"

	"github.com/ironsheep/menuscan-mcp/internal/config"
	"github.com/ironsheep/menuscan-mcp/internal/inference"
	"github.com/ironsheep/menuscan-mcp/internal/localize"
	"github.com/ironsheep/menuscan-mcp/internal/ocr"
	"github.com/ironsheep/menuscan-mcp/internal/preload"
	"github.com/ironsheep/menuscan-mcp/internal/resolve"
	"github.com/ironsheep/menuscan-mcp/internal/scan"
)

// newSession wires the production pipeline from cfg.
func newSession(cfg config.Config, logger *log.Logger) (*scan.Session, error) {
	client, err := inference.NewClient(inference.ClientOptions{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		Retries:  cfg.HTTPRetries,
		Timeout:  cfg.HTTPTimeout,
		Logger:   logger,
		Debug:    cfg.Debug(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set -api-key, %s_API_KEY or GEMINI_API_KEY)", err, config.EnvPrefix)
	}

	adapter := ocr.NewAdapter(ocr.DefaultEngine(),
		ocr.WithLanguages(cfg.Languages()...),
		ocr.WithPreprocess(cfg.OCRPreprocess),
		ocr.WithLogger(logger),
	)

	p, err := scan.NewPipeline(scan.Options{
		Analyzer:  client,
		OCR:       adapter,
		Localizer: localize.New(cfg.Localize()),
		Resolver:  resolve.New(cfg.ThumbnailURL),
		Preloader: preload.New(nil, cfg.PreloadTimeout, logger, cfg.Debug()),
		Logger:    logger,
		Debug:     cfg.Debug(),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Debug() {
		logger.Printf("model=%s ocr=%s", client.Model(), adapter)
	}
	return scan.NewSession(p, cfg.Session(), logger), nil
}
