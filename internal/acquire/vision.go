package acquire

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/extract"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/navigate"
	"github.com/mj1618/desktop-extract/internal/platform"
	"github.com/mj1618/desktop-extract/internal/vision"
)

// VisionOptions tunes the vision strategy.
type VisionOptions struct {
	MinConfidence float64
	PollInterval  time.Duration
	Timeout       time.Duration // settle wait after the click
	QuietPolls    int
}

// DefaultVisionOptions returns the defaults.
func DefaultVisionOptions() VisionOptions {
	return VisionOptions{
		MinConfidence: 0.5,
		PollInterval:  250 * time.Millisecond,
		Timeout:       10 * time.Second,
		QuietPolls:    2,
	}
}

// VisionStrategy finds the target on a screenshot of the window, clicks it
// and reads the page once the screen has settled.
type VisionStrategy struct {
	p         *platform.Provider
	locator   vision.Locator
	extractor *extract.Extractor
	opts      VisionOptions
	log       zerolog.Logger
}

// NewVisionStrategy returns a vision strategy over a serialized provider.
func NewVisionStrategy(p *platform.Provider, loc vision.Locator, ext *extract.Extractor, opts VisionOptions, log zerolog.Logger) *VisionStrategy {
	return &VisionStrategy{p: p, locator: loc, extractor: ext, opts: opts, log: log}
}

func (s *VisionStrategy) Name() model.Strategy { return model.StrategyVision }

func (s *VisionStrategy) Applicable(t model.NavigationTarget) bool {
	return s.locator != nil && s.p.Screenshotter != nil && s.p.Inputter != nil && t.Name != ""
}

// screen captures the whole window and reports its fingerprint. A loading
// indicator anywhere in the window counts against settling.
func (s *VisionStrategy) screen() (model.Bounds, []byte, navigate.Observation, error) {
	app, err := s.p.Tree.Application()
	if err != nil {
		return model.Bounds{}, nil, navigate.Observation{}, err
	}
	shot, err := s.p.Screenshotter.CaptureRegion(app.Frame)
	if err != nil {
		return model.Bounds{}, nil, navigate.Observation{}, fmt.Errorf("capturing window: %w", err)
	}
	nodes, err := platform.Collect(s.p.Tree, app, 10, func(n model.Node) bool {
		return n.Role == "progress" || model.IsTextRole(n.Role)
	})
	if err != nil {
		return model.Bounds{}, nil, navigate.Observation{}, err
	}
	fp := xxhash.Sum64(shot)
	obs := navigate.Observation{
		// The title slot carries the fingerprint so "changed from before"
		// means the screen changed.
		Title:       "fp:" + strconv.FormatUint(fp, 16),
		Fingerprint: fp,
		Loading:     extract.IsLoading(nodes),
	}
	return app.Frame, shot, obs, nil
}

func (s *VisionStrategy) Acquire(ctx context.Context, t model.NavigationTarget) (*model.ExtractionResult, error) {
	region, shot, before, err := s.screen()
	if err != nil {
		return nil, err
	}
	cands, err := s.locator.Locate(ctx, shot, t.Name)
	if err != nil {
		return nil, fmt.Errorf("locating %q: %w", t.Name, err)
	}
	best, ok := vision.Best(cands, t.Name, s.opts.MinConfidence)
	if !ok {
		return nil, fmt.Errorf("no candidate for %q at confidence %.2f or above (%d offered): %w",
			t.Name, s.opts.MinConfidence, len(cands), model.ErrTargetNotFound)
	}
	x, y, err := vision.ToScreen(best, region, shot)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("target", t.String()).Str("label", best.Label).Float64("confidence", best.Confidence).
		Int("x", x).Int("y", y).Msg("clicking vision candidate")
	if err := s.p.Inputter.Click(x, y, platform.MouseLeft, 1); err != nil {
		return nil, fmt.Errorf("clicking %q: %w", best.Label, err)
	}

	crit := navigate.Criteria{PrevTitle: before.Title, QuietPolls: s.opts.QuietPolls, MaxPolls: s.maxPolls()}
	observe := func() (navigate.Observation, error) {
		_, _, obs, err := s.screen()
		return obs, err
	}
	if _, err := navigate.Await(ctx, s.opts.PollInterval, s.opts.Timeout, navigate.Seed(before.Fingerprint), crit, observe); err != nil {
		return nil, fmt.Errorf("waiting for screen to settle after clicking %q: %w", best.Label, err)
	}

	res, err := s.extractor.Extract(ctx, t.String())
	if errors.Is(err, model.ErrNoContentArea) {
		s.log.Debug().Str("target", t.String()).Msg("no content area; reading the whole window")
		res, err = s.extractor.ExtractWindow(ctx, t.String())
	}
	if err != nil {
		return nil, err
	}
	return retarget(res, t, model.StrategyVision, model.ResolveVision), nil
}

func (s *VisionStrategy) maxPolls() int {
	if s.opts.PollInterval <= 0 {
		return 40
	}
	return max(1, int(s.opts.Timeout/s.opts.PollInterval))
}
