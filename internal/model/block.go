package model

// Source records how a block's content was obtained.
type Source string

const (
	SourceStructured    Source = "structured"
	SourceAccessibility Source = "accessibility"
	SourceOCR           Source = "ocr"
)

// Block is one ordered unit of extracted content.
type Block struct {
	Type       string     `yaml:"type"     json:"type"`
	Content    string     `yaml:"content"  json:"content"`
	Source     Source     `yaml:"source"   json:"source"`
	Order      int        `yaml:"order"    json:"order"`
	Provenance Provenance `yaml:"metadata" json:"metadata"`
}

// Provenance describes where a block came from. Accessibility blocks carry
// their identity key in Origin; OCR blocks carry a confidence instead.
type Provenance struct {
	Role       string   `yaml:"role,omitempty"       json:"role,omitempty"`
	Frame      *[4]int  `yaml:"frame,omitempty"      json:"frame,omitempty"`
	Origin     string   `yaml:"origin,omitempty"     json:"origin,omitempty"`
	Confidence *float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	Flag       string   `yaml:"flag,omitempty"       json:"flag,omitempty"`
}

// Provenance flags for OCR blocks whose text could not be trusted.
const (
	FlagOCRError      = "ocr_error"
	FlagLowConfidence = "low_confidence"
)

// FrameProvenance builds a provenance for an element snapshot.
func FrameProvenance(role string, frame Bounds) Provenance {
	f := frame.Array()
	return Provenance{Role: role, Frame: &f}
}
