package validate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mj1618/desktop-extract/internal/model"
)

type blk struct {
	text string
	src  model.Source
}

func page(title string, blocks ...blk) *model.ExtractionResult {
	out := make([]model.Block, len(blocks))
	for i, b := range blocks {
		out[i] = model.Block{Type: "text", Content: b.text, Source: b.src, Order: i}
	}
	return model.NewExtractionResult(title, title, out, 0, model.StrategyAccessibility)
}

func TestCompare(t *testing.T) {
	gold := page("Pancakes",
		blk{"Ingredients", model.SourceStructured},
		blk{"2 eggs", model.SourceStructured},
		blk{"1 cup flour", model.SourceStructured},
		blk{"Whisk well", model.SourceStructured},
	)
	got := page("Pancakes",
		blk{"Ingredients", model.SourceAccessibility},
		blk{"2  eggs", model.SourceAccessibility},
		blk{"l cup flour", model.SourceOCR},
		blk{"Footer text", model.SourceAccessibility},
	)

	c := Compare(gold, got, DefaultThreshold)

	want := &Comparison{
		BaselineTitle:   "Pancakes",
		ExtractedTitle:  "Pancakes",
		BaselineBlocks:  4,
		ExtractedBlocks: 4,
		MatchedBlocks:   3,
		Recall:          0.75,
		Precision:       0.75,
		TextSimilarity:  32.0 / 33.0,
		TitleSimilarity: 1,
		Accuracy:        0.7*0.75 + 0.3*32.0/33.0,
		Missing:         []BlockRef{{Order: 3, Type: "text", Source: model.SourceStructured, Content: "Whisk well"}},
		Extra:           []BlockRef{{Order: 3, Type: "text", Source: model.SourceAccessibility, Content: "Footer text"}},
		Mismatches: []Mismatch{{
			Baseline:   "1 cup flour",
			Extracted:  "l cup flour",
			Similarity: 10.0 / 11.0,
			Source:     model.SourceOCR,
			Issues:     []string{`possible "1" -> "l" confusion`},
		}},
	}
	if diff := cmp.Diff(want, c, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("comparison mismatch (-want +got):\n%s", diff)
	}
	if s := c.Summary(); !strings.Contains(s, "recall 75.0%") || !strings.Contains(s, "missing 1") {
		t.Errorf("summary = %q", s)
	}
}

func TestCompare_EachBlockMatchesOnce(t *testing.T) {
	gold := page("Soup", blk{text: "Soup"}, blk{text: "Soup"})
	got := page("Soup", blk{text: "Soup"})
	c := Compare(gold, got, DefaultThreshold)
	if c.MatchedBlocks != 1 || len(c.Missing) != 1 || len(c.Extra) != 0 {
		t.Errorf("matched = %d missing = %d extra = %d", c.MatchedBlocks, len(c.Missing), len(c.Extra))
	}
	if c.Precision != 1 || c.Recall != 0.5 {
		t.Errorf("precision = %v recall = %v", c.Precision, c.Recall)
	}
}

func TestCompare_EmptySides(t *testing.T) {
	tests := []struct {
		name              string
		gold, got         *model.ExtractionResult
		recall, precision float64
	}{
		{"both empty", page("A"), page("A"), 1, 1},
		{"nothing extracted", page("A", blk{text: "x"}), page("A"), 0, 0},
		{"no baseline", page("A"), page("A", blk{text: "x"}), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compare(tt.gold, tt.got, DefaultThreshold)
			if c.Recall != tt.recall || c.Precision != tt.precision {
				t.Errorf("recall = %v precision = %v, want %v %v", c.Recall, c.Precision, tt.recall, tt.precision)
			}
		})
	}
}

func TestCompare_BelowThresholdIsMissing(t *testing.T) {
	c := Compare(page("A", blk{text: "Weekly review"}), page("A", blk{text: "Monthly budget"}), DefaultThreshold)
	if c.MatchedBlocks != 0 || len(c.Missing) != 1 || len(c.Extra) != 1 {
		t.Errorf("comparison = %+v", c)
	}
}

func TestOCRIssues(t *testing.T) {
	tests := []struct {
		want string
		got  model.Block
		out  []string
	}{
		{"modern", model.Block{Content: "modem", Source: model.SourceOCR}, []string{`possible "rn" -> "m" confusion`}},
		{"to do list", model.Block{Content: "todo list", Source: model.SourceOCR}, []string{"spacing only"}},
		{"modern", model.Block{Content: "modem", Source: model.SourceAccessibility}, nil},
		{"a long sentence here", model.Block{Content: "a long", Source: model.SourceOCR}, []string{"length differs by 14 characters"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.out, ocrIssues(tt.want, tt.got)); diff != "" {
			t.Errorf("ocrIssues(%q, %q) mismatch (-want +got):\n%s", tt.want, tt.got.Content, diff)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if s := Similarity("  Weekly  PLAN ", "weekly plan"); s != 1 {
		t.Errorf("similarity = %v, want 1 after normalizing", s)
	}
	if Similarity("", "") != 1 {
		t.Error("empty texts should be identical")
	}
}
