package extract

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/ocr"
	"github.com/mj1618/desktop-extract/internal/platform"
)

// Extractor reads the page currently shown in the app.
type Extractor struct {
	p    *platform.Provider
	opts Options
	ocr  *OCRFallback
	log  zerolog.Logger
}

// New returns an extractor over a serialized provider. rec may be nil, in
// which case opaque blocks keep empty content.
func New(p *platform.Provider, rec ocr.Recognizer, opts Options, log zerolog.Logger) *Extractor {
	opts = opts.withDefaults()
	return &Extractor{
		p:    p,
		opts: opts,
		ocr:  NewOCRFallback(p.Screenshotter, rec, opts, log),
		log:  log,
	}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract scrolls through the focused view and returns its blocks in
// document order. Reaching the extraction timeout ends the scroll early and
// returns what was collected.
func (e *Extractor) Extract(ctx context.Context, target string) (*model.ExtractionResult, error) {
	if !e.p.Tree.IsTrusted() {
		return nil, model.PermissionError("extracting " + target)
	}
	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	col := NewCollector(e.opts)
	var title string
	driver := NewScrollDriver(e.p, e.opts, e.log)
	scrolls, err := driver.Run(runCtx, func(ctx context.Context, v View) error {
		if v.Iteration == 0 {
			title = PageTitle(e.p.Tree, v.App, e.opts.AppName)
		}
		jobs := col.Add(v.Root.Frame, v.Nodes)
		e.ocr.Resolve(ctx, col.Blocks(), jobs)
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		e.log.Warn().Str("target", target).Dur("timeout", e.opts.Timeout).Int("blocks", len(col.Blocks())).
			Msg("extraction timed out; returning partial content")
	default:
		return nil, err
	}

	e.log.Debug().Str("target", target).Int("blocks", len(col.Blocks())).Int("scrolls", scrolls).Msg("extracted")
	return model.NewExtractionResult(target, title, col.Blocks(), scrolls, model.StrategyAccessibility), nil
}

// ExtractWindow OCRs the whole window as a single block. It serves views
// with no content area.
func (e *Extractor) ExtractWindow(ctx context.Context, target string) (*model.ExtractionResult, error) {
	app, err := e.p.Tree.Application()
	if err != nil {
		return nil, err
	}
	title := PageTitle(e.p.Tree, app, e.opts.AppName)
	b := e.ocr.ResolveRegion(ctx, app.Frame)
	var blocks []model.Block
	if b.Content != "" {
		blocks = append(blocks, b)
	}
	return model.NewExtractionResult(target, title, blocks, 0, model.StrategyAccessibility), nil
}
