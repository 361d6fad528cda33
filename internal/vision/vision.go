// Package vision asks a multimodal model where a labelled control is on a
// screenshot, so the pointer can be driven when the accessibility tree does
// not expose the target.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"sort"
	"strings"

	"github.com/mj1618/desktop-extract/internal/llm"
	"github.com/mj1618/desktop-extract/internal/model"
)

// Candidate is a clickable location the model believes matches the query.
// X and Y are pixel coordinates in the screenshot.
type Candidate struct {
	Label      string  `json:"label"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Locator finds candidates for query on a PNG screenshot.
type Locator interface {
	Locate(ctx context.Context, screenshot []byte, query string) ([]Candidate, error)
}

const systemPrompt = "You locate UI elements on screenshots of a desktop app. " +
	"Coordinates are pixels from the top-left corner of the image. " +
	`Reply with JSON only: {"candidates": [{"label": "...", "x": 0, "y": 0, "confidence": 0.0}]}. ` +
	`Reply {"candidates": []} when nothing matches.`

func userPrompt(query string) string {
	return fmt.Sprintf("Find the clickable item labelled %q (a page link, list entry or table row). "+
		"Give the center of each plausible match.", query)
}

// ParseCandidates reads a model reply. Both {"candidates": [...]} and a bare
// array are accepted.
func ParseCandidates(reply string) ([]Candidate, error) {
	raw := llm.ExtractJSON(reply)
	var wrapped struct {
		Candidates []Candidate `json:"candidates"`
	}
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &wrapped.Candidates); err != nil {
			return nil, fmt.Errorf("parsing candidates: %w", err)
		}
	} else if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, fmt.Errorf("parsing candidates: %w", err)
	}
	return wrapped.Candidates, nil
}

// Best returns the most confident candidate at or above minConfidence.
// Candidates whose label matches query exactly win confidence ties.
func Best(cands []Candidate, query string, minConfidence float64) (Candidate, bool) {
	var ok []Candidate
	for _, c := range cands {
		if c.Confidence >= minConfidence {
			ok = append(ok, c)
		}
	}
	if len(ok) == 0 {
		return Candidate{}, false
	}
	sort.SliceStable(ok, func(i, j int) bool {
		if ok[i].Confidence != ok[j].Confidence {
			return ok[i].Confidence > ok[j].Confidence
		}
		return strings.EqualFold(ok[i].Label, query) && !strings.EqualFold(ok[j].Label, query)
	})
	return ok[0], true
}

// ToScreen maps a candidate from screenshot pixels to screen points for a
// capture of region. Retina captures have more pixels than points.
func ToScreen(c Candidate, region model.Bounds, screenshot []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(screenshot))
	if err != nil {
		return 0, 0, fmt.Errorf("reading screenshot size: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, fmt.Errorf("empty screenshot")
	}
	x := region.X + c.X*region.Width/cfg.Width
	y := region.Y + c.Y*region.Height/cfg.Height
	return x, y, nil
}
