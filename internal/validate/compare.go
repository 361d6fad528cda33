// Package validate scores an extraction against a structured baseline of the
// same page: which baseline blocks were found, which extracted blocks have no
// counterpart, and how close the matched text is.
package validate

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mj1618/desktop-extract/internal/model"
)

// DefaultThreshold is the minimum text similarity for two blocks to match.
const DefaultThreshold = 0.8

// BlockRef is a block listed in a comparison.
type BlockRef struct {
	Order   int          `yaml:"order"            json:"order"`
	Type    string       `yaml:"type"             json:"type"`
	Source  model.Source `yaml:"source,omitempty" json:"source,omitempty"`
	Content string       `yaml:"content"          json:"content"`
}

func refOf(b model.Block) BlockRef {
	return BlockRef{Order: b.Order, Type: b.Type, Source: b.Source, Content: b.Content}
}

// Mismatch is a matched pair whose text differs.
type Mismatch struct {
	Baseline   string       `yaml:"baseline"         json:"baseline"`
	Extracted  string       `yaml:"extracted"        json:"extracted"`
	Similarity float64      `yaml:"similarity"       json:"similarity"`
	Source     model.Source `yaml:"source"           json:"source"`
	Issues     []string     `yaml:"issues,omitempty" json:"issues,omitempty"`
}

// Comparison is the outcome of Compare. Rates are fractions in [0, 1].
type Comparison struct {
	BaselineTitle   string `yaml:"baseline_title"   json:"baseline_title"`
	ExtractedTitle  string `yaml:"extracted_title"  json:"extracted_title"`
	BaselineBlocks  int    `yaml:"baseline_blocks"  json:"baseline_blocks"`
	ExtractedBlocks int    `yaml:"extracted_blocks" json:"extracted_blocks"`
	MatchedBlocks   int    `yaml:"matched_blocks"   json:"matched_blocks"`

	// Recall is the share of baseline blocks found; Precision the share of
	// extracted blocks that match a baseline block.
	Recall          float64 `yaml:"recall"           json:"recall"`
	Precision       float64 `yaml:"precision"        json:"precision"`
	TextSimilarity  float64 `yaml:"text_similarity"  json:"text_similarity"`
	TitleSimilarity float64 `yaml:"title_similarity" json:"title_similarity"`
	// Accuracy weighs recall 0.7 and text similarity 0.3.
	Accuracy float64 `yaml:"accuracy" json:"accuracy"`

	Missing    []BlockRef `yaml:"missing"    json:"missing"`
	Extra      []BlockRef `yaml:"extra"      json:"extra"`
	Mismatches []Mismatch `yaml:"mismatches" json:"mismatches"`
}

// Summary is a one-line account of the comparison.
func (c *Comparison) Summary() string {
	return fmt.Sprintf("accuracy %.1f%% | recall %.1f%% | precision %.1f%% | missing %d | extra %d | mismatches %d",
		c.Accuracy*100, c.Recall*100, c.Precision*100, len(c.Missing), len(c.Extra), len(c.Mismatches))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Similarity is 1 - levenshtein / longer length over the lowercased,
// whitespace-collapsed texts.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(normalize(a)), strings.ToLower(normalize(b))
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Compare matches extracted blocks to baseline blocks: first exact text
// matches (whitespace-collapsed), then for each remaining baseline block the
// most similar unmatched extracted block at or above threshold. Each block
// matches at most once.
func Compare(baseline, extracted *model.ExtractionResult, threshold float64) *Comparison {
	c := &Comparison{
		BaselineTitle:   baseline.Title,
		ExtractedTitle:  extracted.Title,
		BaselineBlocks:  len(baseline.Blocks),
		ExtractedBlocks: len(extracted.Blocks),
		Missing:         []BlockRef{},
		Extra:           []BlockRef{},
		Mismatches:      []Mismatch{},
	}
	if baseline.Title != "" && extracted.Title != "" {
		c.TitleSimilarity = Similarity(baseline.Title, extracted.Title)
	}

	gold, got := baseline.Blocks, extracted.Blocks
	pair := make([]int, len(gold))
	taken := make([]bool, len(got))
	for i := range pair {
		pair[i] = -1
	}

	for i, g := range gold {
		for j, e := range got {
			if !taken[j] && normalize(g.Content) == normalize(e.Content) {
				pair[i], taken[j] = j, true
				break
			}
		}
	}
	for i, g := range gold {
		if pair[i] >= 0 {
			continue
		}
		best, bestScore := -1, 0.0
		for j, e := range got {
			if taken[j] {
				continue
			}
			if s := Similarity(g.Content, e.Content); s >= threshold && s > bestScore {
				best, bestScore = j, s
			}
		}
		if best < 0 {
			continue
		}
		pair[i], taken[best] = best, true
		e := got[best]
		if g.Content != e.Content {
			c.Mismatches = append(c.Mismatches, Mismatch{
				Baseline:   g.Content,
				Extracted:  e.Content,
				Similarity: bestScore,
				Source:     e.Source,
				Issues:     ocrIssues(g.Content, e),
			})
		}
	}

	var simTotal float64
	for i, g := range gold {
		if pair[i] < 0 {
			c.Missing = append(c.Missing, refOf(g))
			continue
		}
		c.MatchedBlocks++
		simTotal += Similarity(g.Content, got[pair[i]].Content)
	}
	for j, e := range got {
		if !taken[j] {
			c.Extra = append(c.Extra, refOf(e))
		}
	}

	c.Recall = rate(c.MatchedBlocks, len(gold), len(got))
	c.Precision = rate(c.MatchedBlocks, len(got), len(gold))
	if c.MatchedBlocks > 0 {
		c.TextSimilarity = simTotal / float64(c.MatchedBlocks)
	}
	c.Accuracy = 0.7*c.Recall + 0.3*c.TextSimilarity
	return c
}

// rate is matched/total. With nothing to find it is 1 when the other side
// is empty too, else 0.
func rate(matched, total, other int) float64 {
	if total == 0 {
		if other == 0 {
			return 1
		}
		return 0
	}
	return float64(matched) / float64(total)
}

// ocrConfusions are character sequences OCR commonly mistakes for each
// other.
var ocrConfusions = [][2]string{
	{"0", "O"}, {"1", "l"}, {"5", "S"}, {"8", "B"},
	{"rn", "m"}, {"vv", "w"}, {"cl", "d"},
}

// ocrIssues names the likely causes of an OCR block differing from its
// baseline text. Non-OCR blocks get none.
func ocrIssues(want string, got model.Block) []string {
	if got.Source != model.SourceOCR {
		return nil
	}
	have := got.Content
	var issues []string
	for _, c := range ocrConfusions {
		switch {
		case strings.Contains(want, c[0]) && strings.Contains(have, c[1]):
			issues = append(issues, fmt.Sprintf("possible %q -> %q confusion", c[0], c[1]))
		case strings.Contains(want, c[1]) && strings.Contains(have, c[0]):
			issues = append(issues, fmt.Sprintf("possible %q -> %q confusion", c[1], c[0]))
		}
	}
	if d := len(want) - len(have); max(d, -d)*5 > len(want) {
		issues = append(issues, fmt.Sprintf("length differs by %d characters", max(d, -d)))
	}
	if strings.ReplaceAll(want, " ", "") == strings.ReplaceAll(have, " ", "") {
		issues = append(issues, "spacing only")
	}
	return issues
}
