package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mj1618/desktop-extract/internal/model"
)

func txt(ref int, frame model.Bounds, s string) model.Node {
	n := model.NewNode(model.NodeRef(ref), "AXStaticText", frame, nil)
	n.Text = &model.TextAttrs{Value: s}
	return n
}

func img(ref int, frame model.Bounds) model.Node {
	return model.NewNode(model.NodeRef(ref), "AXImage", frame, nil)
}

var viewport = rect(0, 100, 800, 400)

func TestCollector_DedupAcrossIterations(t *testing.T) {
	c := NewCollector(testOptions())
	c.Add(viewport, []model.Node{
		txt(1, rect(10, 100, 300, 20), "Intro"),
		txt(2, rect(10, 400, 300, 20), "Shared"),
	})
	// Scrolled by 300: "Shared" is still visible, now near the top.
	c.Add(viewport, []model.Node{
		txt(3, rect(10, 100, 300, 20), "Shared"),
		txt(4, rect(10, 300, 300, 20), "Outro"),
	})

	if diff := cmp.Diff([]string{"Intro", "Shared", "Outro"}, contents(c.Blocks())); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
	if c.Offset() != 300 {
		t.Errorf("offset = %d, want 300", c.Offset())
	}
}

func TestCollector_SameTextDifferentPlaceKept(t *testing.T) {
	c := NewCollector(testOptions())
	c.Add(viewport, []model.Node{
		txt(1, rect(10, 100, 300, 20), "Step"),
		txt(2, rect(10, 200, 300, 20), "Step"),
	})
	if got := len(c.Blocks()); got != 2 {
		t.Errorf("got %d blocks, want 2", got)
	}
}

func TestCollector_OrderIsVisualAndMonotonic(t *testing.T) {
	c := NewCollector(testOptions())
	c.Add(viewport, []model.Node{
		txt(1, rect(400, 200, 100, 20), "right"),
		txt(2, rect(10, 300, 100, 20), "below"),
		txt(3, rect(10, 200, 100, 20), "left"),
		txt(4, rect(10, 120, 100, 20), "top"),
	})
	if diff := cmp.Diff([]string{"top", "left", "right", "below"}, contents(c.Blocks())); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	for i := 1; i < len(c.Blocks()); i++ {
		if c.Blocks()[i-1].Order >= c.Blocks()[i].Order {
			t.Fatalf("order not increasing at %d", i)
		}
	}
}

func TestCollector_NoAnchorsAssumesFullPage(t *testing.T) {
	c := NewCollector(testOptions())
	c.Add(viewport, []model.Node{txt(1, rect(10, 100, 300, 20), "page one")})
	c.Add(viewport, []model.Node{txt(2, rect(10, 100, 300, 20), "page two")})
	if c.Offset() != viewport.Height {
		t.Errorf("offset = %d, want %d", c.Offset(), viewport.Height)
	}
	b := c.Blocks()[1]
	if b.Provenance.Frame[1] != viewport.Height {
		t.Errorf("document y = %d, want %d", b.Provenance.Frame[1], viewport.Height)
	}
}

func TestCollector_SmallJitterDeduped(t *testing.T) {
	c := NewCollector(testOptions())
	c.Add(viewport, []model.Node{
		txt(1, rect(10, 100, 300, 20), "anchor"),
		txt(2, rect(10, 200, 300, 40), "body"),
	})
	// Re-layout moved "body" by 3px without scrolling.
	c.Add(viewport, []model.Node{
		txt(3, rect(10, 100, 300, 20), "anchor"),
		txt(4, rect(10, 203, 300, 40), "body"),
	})
	if got := len(c.Blocks()); got != 2 {
		t.Errorf("got %d blocks, want 2: %v", got, contents(c.Blocks()))
	}
}

func TestCollector_OpaqueNodesReserveSlot(t *testing.T) {
	c := NewCollector(testOptions())
	jobs := c.Add(viewport, []model.Node{
		txt(1, rect(10, 100, 300, 20), "before"),
		img(2, rect(10, 150, 300, 100)),
		img(3, rect(10, 260, 5, 5)), // too small
		txt(4, rect(10, 300, 300, 20), "after"),
	})
	blocks := c.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if blocks[1].Source != model.SourceOCR || blocks[1].Order != 1 {
		t.Errorf("slot 1 = %+v, want OCR block at order 1", blocks[1])
	}
	if len(jobs) != 1 || jobs[0].Block != 1 || jobs[0].Screen != rect(10, 150, 300, 100) {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestCollector_SkipsNonTextRoles(t *testing.T) {
	c := NewCollector(testOptions())
	group := model.NewNode(1, "AXGroup", rect(0, 100, 800, 400), nil)
	group.Text = &model.TextAttrs{Description: "container"}
	c.Add(viewport, []model.Node{group, txt(2, rect(10, 120, 100, 20), "x")})
	if diff := cmp.Diff([]string{"x"}, contents(c.Blocks())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
