package model

// Strategy names an acquisition method.
type Strategy string

const (
	StrategyStructured    Strategy = "structured"
	StrategyAccessibility Strategy = "accessibility"
	StrategyVision        Strategy = "vision"
)

// ResultMetadata summarizes how a result was produced.
type ResultMetadata struct {
	BlockCount       int      `yaml:"block_count"      json:"block_count"`
	ScrollIterations int      `yaml:"scroll_count"     json:"scroll_count"`
	StrategyUsed     Strategy `yaml:"strategy_used"    json:"strategy_used"`
	Target           string   `yaml:"target,omitempty" json:"target,omitempty"`

	// Resolution is how the target was matched on screen; empty for
	// structured reads.
	Resolution Resolution `yaml:"resolution,omitempty" json:"resolution,omitempty"`
}

// ExtractionResult is the content extracted for one navigation target.
// Build it with NewExtractionResult; it is not modified after construction.
type ExtractionResult struct {
	Title    string         `yaml:"title"    json:"title"`
	Blocks   []Block        `yaml:"blocks"   json:"blocks"`
	Metadata ResultMetadata `yaml:"metadata" json:"metadata"`
}

// NewExtractionResult copies blocks into a new result and fills the summary
// metadata.
func NewExtractionResult(target, title string, blocks []Block, scrolls int, strategy Strategy) *ExtractionResult {
	owned := make([]Block, len(blocks))
	copy(owned, blocks)
	return &ExtractionResult{
		Title:  title,
		Blocks: owned,
		Metadata: ResultMetadata{
			BlockCount:       len(owned),
			ScrollIterations: scrolls,
			StrategyUsed:     strategy,
			Target:           target,
		},
	}
}

// TargetID returns the identifier of the target this result was made for.
func (r *ExtractionResult) TargetID() string {
	return r.Metadata.Target
}

// NonOCRBlocks returns the blocks whose content does not depend on OCR.
func (r *ExtractionResult) NonOCRBlocks() []Block {
	var out []Block
	for _, b := range r.Blocks {
		if b.Source != SourceOCR {
			out = append(out, b)
		}
	}
	return out
}
