package platform

import (
	"fmt"
	"sync"

	"github.com/mj1618/desktop-extract/internal/model"
)

// Invalidator is implemented by trees that hold native handles which must be
// released once a UI mutation makes them stale.
type Invalidator interface {
	Invalidate()
}

// guard owns the single UI lock and the tree generation shared by the
// wrapped backends. Refs handed out through it encode the generation in the
// high 32 bits; any ref from an older generation is rejected.
type guard struct {
	mu  sync.Mutex
	gen uint32
}

func (g *guard) encode(gen uint32, inner model.NodeRef) model.NodeRef {
	return model.NodeRef(uint64(gen)<<32 | uint64(inner)&0xffffffff)
}

func (g *guard) decode(ref model.NodeRef) (model.NodeRef, error) {
	gen := uint32(uint64(ref) >> 32)
	if gen != g.gen {
		return 0, fmt.Errorf("ref %d from generation %d (current %d): %w", uint64(ref)&0xffffffff, gen, g.gen, model.ErrStaleTreeReference)
	}
	return model.NodeRef(uint64(ref) & 0xffffffff), nil
}

// bump advances the generation after a mutation. Caller holds mu.
func (g *guard) bump(tree Tree) {
	g.gen++
	if inv, ok := tree.(Invalidator); ok {
		inv.Invalidate()
	}
}

// Serialize wraps every backend of p behind one mutex. Actions, clicks,
// scrolls and key combos advance the tree generation so refs obtained before
// them fail with model.ErrStaleTreeReference.
func Serialize(p *Provider) *Provider {
	if p == nil {
		return nil
	}
	if _, ok := p.Tree.(*serialTree); ok {
		return p
	}
	g := &guard{gen: 1}
	out := &Provider{}
	if p.Tree != nil {
		out.Tree = &serialTree{g: g, inner: p.Tree}
	}
	if p.Inputter != nil {
		out.Inputter = &serialInputter{g: g, inner: p.Inputter, tree: p.Tree}
	}
	if p.Screenshotter != nil {
		out.Screenshotter = &serialScreenshotter{g: g, inner: p.Screenshotter}
	}
	return out
}

type serialTree struct {
	g     *guard
	inner Tree
}

func (t *serialTree) wrap(n model.Node) model.Node {
	n.Ref = t.g.encode(t.g.gen, n.Ref)
	return n
}

func (t *serialTree) Application() (model.Node, error) {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	n, err := t.inner.Application()
	if err != nil {
		return model.Node{}, err
	}
	return t.wrap(n), nil
}

func (t *serialTree) Children(ref model.NodeRef) ([]model.Node, error) {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	inner, err := t.g.decode(ref)
	if err != nil {
		return nil, err
	}
	kids, err := t.inner.Children(inner)
	if err != nil {
		return nil, err
	}
	for i := range kids {
		kids[i] = t.wrap(kids[i])
	}
	return kids, nil
}

func (t *serialTree) Attribute(ref model.NodeRef, name string) (string, bool, error) {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	inner, err := t.g.decode(ref)
	if err != nil {
		return "", false, err
	}
	return t.inner.Attribute(inner, name)
}

func (t *serialTree) Frame(ref model.NodeRef) (model.Bounds, error) {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	inner, err := t.g.decode(ref)
	if err != nil {
		return model.Bounds{}, err
	}
	return t.inner.Frame(inner)
}

func (t *serialTree) PerformAction(ref model.NodeRef, action string) error {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	inner, err := t.g.decode(ref)
	if err != nil {
		return err
	}
	defer t.g.bump(t.inner)
	return t.inner.PerformAction(inner, action)
}

func (t *serialTree) IsTrusted() bool {
	t.g.mu.Lock()
	defer t.g.mu.Unlock()
	return t.inner.IsTrusted()
}

type serialInputter struct {
	g     *guard
	inner Inputter
	tree  Tree
}

func (in *serialInputter) Click(x, y int, button MouseButton, count int) error {
	in.g.mu.Lock()
	defer in.g.mu.Unlock()
	defer in.g.bump(in.tree)
	return in.inner.Click(x, y, button, count)
}

func (in *serialInputter) Scroll(x, y int, dx, dy int) error {
	in.g.mu.Lock()
	defer in.g.mu.Unlock()
	defer in.g.bump(in.tree)
	return in.inner.Scroll(x, y, dx, dy)
}

func (in *serialInputter) KeyCombo(keys []string) error {
	in.g.mu.Lock()
	defer in.g.mu.Unlock()
	defer in.g.bump(in.tree)
	return in.inner.KeyCombo(keys)
}

type serialScreenshotter struct {
	g     *guard
	inner Screenshotter
}

func (s *serialScreenshotter) CaptureRegion(region model.Bounds) ([]byte, error) {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.inner.CaptureRegion(region)
}
