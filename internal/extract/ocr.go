package extract

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/ocr"
	"github.com/mj1618/desktop-extract/internal/platform"
)

// OCRFallback reads the text of opaque blocks from screen crops.
type OCRFallback struct {
	shots   platform.Screenshotter
	rec     ocr.Recognizer
	workers int
	minConf float64
	log     zerolog.Logger
}

// NewOCRFallback returns a fallback that captures through shots and
// recognizes with rec. A nil rec marks every job as failed.
func NewOCRFallback(shots platform.Screenshotter, rec ocr.Recognizer, opts Options, log zerolog.Logger) *OCRFallback {
	opts = opts.withDefaults()
	return &OCRFallback{shots: shots, rec: rec, workers: opts.OCRWorkers, minConf: opts.OCRMinConfidence, log: log}
}

type ocrOutcome struct {
	rec ocr.Recognition
	err error
}

// Resolve captures every job's crop, recognizes them on a bounded pool and
// writes the results into blocks. It returns once all jobs are done and
// never fails: a failed job leaves empty content flagged on its block.
func (f *OCRFallback) Resolve(ctx context.Context, blocks []model.Block, jobs []OCRJob) {
	if len(jobs) == 0 {
		return
	}
	outcomes := make([]ocrOutcome, len(jobs))

	// Captures go through the UI lock one at a time; recognition does not
	// touch the UI and runs in parallel.
	images := make([][]byte, len(jobs))
	for i, job := range jobs {
		if f.rec == nil {
			outcomes[i].err = model.ErrOCRFailure
			continue
		}
		img, err := f.shots.CaptureRegion(job.Screen)
		if err != nil {
			outcomes[i].err = err
			continue
		}
		images[i] = img
	}

	var g errgroup.Group
	g.SetLimit(f.workers)
	for i := range jobs {
		if images[i] == nil {
			continue
		}
		g.Go(func() error {
			rec, err := f.rec.Recognize(ctx, images[i])
			outcomes[i] = ocrOutcome{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, job := range jobs {
		b := &blocks[job.Block]
		out := outcomes[i]
		conf := out.rec.Confidence
		switch {
		case out.err != nil:
			f.log.Warn().Err(out.err).Int("order", b.Order).Msg("OCR failed")
			b.Content = ""
			conf = 0
			b.Provenance.Flag = model.FlagOCRError
		case conf < f.minConf:
			f.log.Debug().Float64("confidence", conf).Int("order", b.Order).Msg("OCR below confidence threshold")
			b.Content = ""
			b.Provenance.Flag = model.FlagLowConfidence
		default:
			b.Content = out.rec.Text
		}
		b.Provenance.Confidence = &conf
	}
}

// ResolveRegion reads a whole region as one block, used when a view has no
// content area. The block keeps order 0.
func (f *OCRFallback) ResolveRegion(ctx context.Context, region model.Bounds) model.Block {
	blocks := []model.Block{{
		Type:       "text",
		Source:     model.SourceOCR,
		Provenance: model.FrameProvenance("window", region),
	}}
	f.Resolve(ctx, blocks, []OCRJob{{Block: 0, Screen: region}})
	return blocks[0]
}
