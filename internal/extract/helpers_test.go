package extract

import (
	"context"
	"sync/atomic"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/ocr"
	"github.com/mj1618/desktop-extract/internal/platform"
	"github.com/mj1618/desktop-extract/internal/platform/synthetic"
)

func rect(x, y, w, h int) model.Bounds { return model.Bounds{X: x, Y: y, Width: w, Height: h} }

// newPage builds a window with a sidebar and a 800x400 content area holding
// n text lines 100px apart. The area pages by step pixels.
func newPage(n, step int, extra ...*synthetic.Element) (*synthetic.App, *synthetic.Element) {
	area := synthetic.ScrollArea(rect(200, 100, 800, 400))
	area.PageStep = step
	for i := 0; i < n; i++ {
		area.Add(synthetic.Text(rect(220, 100+i*100, 600, 40), string(rune('A'+i))))
	}
	area.Add(extra...)
	sidebar := synthetic.Group(rect(0, 0, 200, 800),
		synthetic.Link(rect(10, 50, 180, 20), "Home", nil),
	)
	toolbar := synthetic.ScrollArea(rect(200, 0, 300, 100))
	win := synthetic.Window("Notes", rect(0, 0, 1200, 800), sidebar, toolbar, area)
	return synthetic.New(win), area
}

func testOptions() Options {
	o := DefaultOptions()
	o.PollInterval = 0
	return o
}

func serialized(app *synthetic.App) *platform.Provider {
	return platform.Serialize(app.Provider())
}

// decodingRecognizer reads the text the synthetic screen painted and counts
// calls.
type decodingRecognizer struct {
	calls      atomic.Int32
	confidence float64
	err        error
}

func (r *decodingRecognizer) Recognize(_ context.Context, img []byte) (ocr.Recognition, error) {
	r.calls.Add(1)
	if r.err != nil {
		return ocr.Recognition{}, r.err
	}
	return ocr.Recognition{Text: synthetic.Decode(img), Confidence: r.confidence}, nil
}

func contents(blocks []model.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Content
	}
	return out
}
