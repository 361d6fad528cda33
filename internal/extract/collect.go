package extract

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/mj1618/desktop-extract/internal/model"
)

// identity is the dedup key of a block: its document-space frame snapped to
// the tolerance grid plus a hash of its content.
type identity struct {
	frame model.Bounds
	hash  uint64
}

func (k identity) String() string {
	return fmt.Sprintf("%d,%d,%d,%d:%016x", k.frame.X, k.frame.Y, k.frame.Width, k.frame.Height, k.hash)
}

// placed is a node seen in one iteration, in viewport coordinates.
type placed struct {
	frame model.Bounds
	hash  uint64
}

// shape identifies a node across iterations independent of its vertical
// position.
type shape struct {
	x, w, h int
	hash    uint64
}

// prior is an accepted block's document frame, kept for overlap checks.
type prior struct {
	frame model.Bounds
	hash  uint64
}

// OCRJob is an opaque node whose text must be read from the screen before the
// next UI mutation.
type OCRJob struct {
	Block  int          // index into the collector's blocks
	Screen model.Bounds // frame on screen at capture time
}

// Collector accumulates blocks across scroll iterations. Node frames are
// mapped into document space using an offset estimated from nodes that are
// still visible from the previous iteration.
type Collector struct {
	opts Options

	blocks []model.Block
	seen   map[identity]bool
	priors []prior

	prev    []placed
	offset  int
	started bool
}

// NewCollector returns an empty collector.
func NewCollector(opts Options) *Collector {
	return &Collector{opts: opts.withDefaults(), seen: make(map[identity]bool)}
}

// Blocks returns the blocks collected so far. The slice is shared; callers
// copy it before handing it out.
func (c *Collector) Blocks() []model.Block {
	return c.blocks
}

// Offset is the document offset of the current viewport.
func (c *Collector) Offset() int {
	return c.offset
}

// eligible reports whether a node contributes a block.
func (c *Collector) eligible(n model.Node) bool {
	if n.Frame.Area() == 0 {
		return false
	}
	if n.Content() != "" {
		return model.IsTextRole(n.Role)
	}
	return model.IsOpaqueRole(n.Role) && n.Frame.Width >= c.opts.MinOpaqueW && n.Frame.Height >= c.opts.MinOpaqueH
}

// SortVisual orders nodes top-to-bottom, then left-to-right.
func SortVisual(nodes []model.Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Frame, nodes[j].Frame
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}

// Add ingests the nodes visible in one iteration. viewport is the content
// root's screen frame. It returns the OCR jobs for new opaque blocks.
func (c *Collector) Add(viewport model.Bounds, nodes []model.Node) []OCRJob {
	var visible []model.Node
	for _, n := range nodes {
		if c.eligible(n) && n.Frame.Intersects(viewport) {
			visible = append(visible, n)
		}
	}
	SortVisual(visible)

	cur := make([]placed, len(visible))
	for i, n := range visible {
		cur[i] = placed{
			frame: n.Frame.Translate(-viewport.X, -viewport.Y),
			hash:  xxhash.Sum64String(n.Content()),
		}
	}
	if c.started {
		c.offset += c.displacement(cur, viewport.Height)
	}
	c.started = true
	c.prev = cur

	var jobs []OCRJob
	for i, n := range visible {
		doc := cur[i].frame.Translate(0, c.offset)
		key := identity{frame: doc.Round(c.opts.Tolerance), hash: cur[i].hash}
		if c.seen[key] || c.overlapsPrior(doc, key.hash) {
			continue
		}
		c.seen[key] = true
		c.priors = append(c.priors, prior{frame: doc, hash: key.hash})

		b := model.Block{
			Type:       model.BlockType(n.Role),
			Content:    n.Content(),
			Source:     model.SourceAccessibility,
			Order:      len(c.blocks),
			Provenance: model.FrameProvenance(n.Role, doc),
		}
		b.Provenance.Origin = key.String()
		if b.Content == "" {
			b.Source = model.SourceOCR
			jobs = append(jobs, OCRJob{Block: len(c.blocks), Screen: n.Frame})
		}
		c.blocks = append(c.blocks, b)
	}
	return jobs
}

func (c *Collector) overlapsPrior(doc model.Bounds, hash uint64) bool {
	for _, p := range c.priors {
		if p.hash == hash && p.frame.IoU(doc) >= c.opts.OverlapIoU {
			return true
		}
	}
	return false
}

// displacement estimates how far the content moved up since the previous
// iteration. Nodes whose shape and content are unique in both iterations act
// as anchors; the most common displacement wins, the one closest to zero on
// ties. With no
// anchors the view is assumed to have moved one full page.
func (c *Collector) displacement(cur []placed, page int) int {
	prevIdx := uniqueShapes(c.prev)
	curIdx := uniqueShapes(cur)
	votes := make(map[int]int)
	for s, i := range curIdx {
		j, ok := prevIdx[s]
		if !ok {
			continue
		}
		votes[c.prev[j].frame.Y-cur[i].frame.Y]++
	}
	if len(votes) == 0 {
		return page
	}
	best, bestVotes := 0, -1
	for d, v := range votes {
		if v > bestVotes || (v == bestVotes && closer(d, best)) {
			best, bestVotes = d, v
		}
	}
	return best
}

func uniqueShapes(nodes []placed) map[shape]int {
	idx := make(map[shape]int, len(nodes))
	dup := make(map[shape]bool)
	for i, n := range nodes {
		s := shape{x: n.frame.X, w: n.frame.Width, h: n.frame.Height, hash: n.hash}
		if _, ok := idx[s]; ok {
			dup[s] = true
			continue
		}
		idx[s] = i
	}
	for s := range dup {
		delete(idx, s)
	}
	return idx
}

func closer(a, b int) bool {
	aa, ab := abs(a), abs(b)
	if aa != ab {
		return aa < ab
	}
	return a < b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
