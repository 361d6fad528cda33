// Package acquire turns navigation targets into extraction results by trying
// acquisition strategies in a fixed order until one yields content.
package acquire

import (
	"context"
	"fmt"

	"github.com/mj1618/desktop-extract/internal/extract"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/navigate"
)

// Strategy is one way of acquiring a target's content.
type Strategy interface {
	Name() model.Strategy
	// Applicable reports whether the strategy can serve target at all.
	Applicable(target model.NavigationTarget) bool
	Acquire(ctx context.Context, target model.NavigationTarget) (*model.ExtractionResult, error)
}

// PageExtractor reads a page by its structured identity.
type PageExtractor interface {
	Extract(ctx context.Context, pageID string) (*model.ExtractionResult, error)
}

// StructuredStrategy reads pages through the structured API. It only applies
// to targets that carry an ID.
type StructuredStrategy struct {
	API PageExtractor
}

func (s *StructuredStrategy) Name() model.Strategy { return model.StrategyStructured }

func (s *StructuredStrategy) Applicable(t model.NavigationTarget) bool {
	return s.API != nil && t.ID != ""
}

func (s *StructuredStrategy) Acquire(ctx context.Context, t model.NavigationTarget) (*model.ExtractionResult, error) {
	res, err := s.API.Extract(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return retarget(res, t, model.StrategyStructured, ""), nil
}

// AccessibilityStrategy navigates with the controller and reads the page
// from the accessibility tree.
type AccessibilityStrategy struct {
	Nav       *navigate.Controller
	Extractor *extract.Extractor
}

func (s *AccessibilityStrategy) Name() model.Strategy { return model.StrategyAccessibility }

func (s *AccessibilityStrategy) Applicable(t model.NavigationTarget) bool {
	return t.Name != "" || t.Index != nil
}

func (s *AccessibilityStrategy) Acquire(ctx context.Context, t model.NavigationTarget) (*model.ExtractionResult, error) {
	resolved, err := s.Nav.Navigate(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", t, err)
	}
	res, err := s.Extractor.Extract(ctx, t.String())
	if err != nil {
		return nil, err
	}
	return retarget(res, t, model.StrategyAccessibility, resolved.Resolution), nil
}

// retarget labels a result with the target it was acquired for, the
// strategy that produced it and how the target was matched.
func retarget(res *model.ExtractionResult, t model.NavigationTarget, s model.Strategy, how model.Resolution) *model.ExtractionResult {
	m := res.Metadata
	if m.Target == t.String() && m.StrategyUsed == s && m.Resolution == how {
		return res
	}
	out := model.NewExtractionResult(t.String(), res.Title, res.Blocks, m.ScrollIterations, s)
	out.Metadata.Resolution = how
	return out
}
