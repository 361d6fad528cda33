// Package extract reads the content of the focused view out of the
// accessibility tree: it finds the content root, scrolls it from top to
// bottom, collects deduplicated blocks in document order and patches opaque
// regions through OCR.
package extract

import "time"

// Options tunes one extraction.
type Options struct {
	// AppName is the window title shown when no page title is available.
	AppName string

	// Locator
	MaxDepth int // levels searched below the top-level element
	MinArea  int // smallest content area accepted, in px²

	// Scrolling
	MaxScrolls   int
	StablePolls  int           // unchanged signatures needed to stop
	PollInterval time.Duration // wait after each scroll action
	Timeout      time.Duration // whole extraction

	// Collection
	CollectDepth int
	Tolerance    int // px grid for identity keys
	OverlapIoU   float64
	MinOpaqueW   int
	MinOpaqueH   int

	// OCR
	OCRWorkers       int
	OCRMinConfidence float64
}

// DefaultOptions returns the tuned defaults for Notion.
func DefaultOptions() Options {
	return Options{
		AppName:          "Notion",
		MaxDepth:         15,
		MinArea:          40000,
		MaxScrolls:       100,
		StablePolls:      2,
		PollInterval:     300 * time.Millisecond,
		Timeout:          60 * time.Second,
		CollectDepth:     20,
		Tolerance:        8,
		OverlapIoU:       0.5,
		MinOpaqueW:       20,
		MinOpaqueH:       10,
		OCRWorkers:       4,
		OCRMinConfidence: 0.3,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.AppName == "" {
		o.AppName = d.AppName
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = d.MaxDepth
	}
	if o.MinArea <= 0 {
		o.MinArea = d.MinArea
	}
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = d.MaxScrolls
	}
	if o.StablePolls <= 0 {
		o.StablePolls = d.StablePolls
	}
	if o.PollInterval < 0 {
		o.PollInterval = d.PollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.CollectDepth <= 0 {
		o.CollectDepth = d.CollectDepth
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.OverlapIoU <= 0 {
		o.OverlapIoU = d.OverlapIoU
	}
	if o.MinOpaqueW <= 0 {
		o.MinOpaqueW = d.MinOpaqueW
	}
	if o.MinOpaqueH <= 0 {
		o.MinOpaqueH = d.MinOpaqueH
	}
	if o.OCRWorkers <= 0 {
		o.OCRWorkers = d.OCRWorkers
	}
	if o.OCRMinConfidence <= 0 {
		o.OCRMinConfidence = d.OCRMinConfidence
	}
	return o
}
