package synthetic

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/platform"
)

type pending struct {
	at int
	fn func(*App)
}

// App is a synthetic application. It implements platform.Tree,
// platform.Inputter and platform.Screenshotter.
type App struct {
	mu      sync.Mutex
	root    *Element
	byID    map[int]*Element
	nextID  int
	trusted bool
	reads   int
	queue   []pending

	presses []string
	clicks  [][2]int
	keys    [][]string

	// OnKey runs after a key combo is recorded.
	OnKey func(app *App, keys []string)
}

// New returns an app whose top-level element is root. The app starts trusted.
func New(root *Element) *App {
	a := &App{byID: make(map[int]*Element), trusted: true}
	a.root = root
	a.index()
	return a
}

// Provider bundles the app's backends. Callers normally pass the result
// through platform.Serialize.
func (a *App) Provider() *platform.Provider {
	return &platform.Provider{Tree: a, Inputter: a, Screenshotter: a}
}

// SetTrusted toggles the accessibility permission.
func (a *App) SetTrusted(ok bool) {
	a.mu.Lock()
	a.trusted = ok
	a.mu.Unlock()
}

// SetRoot replaces the whole tree.
func (a *App) SetRoot(root *Element) {
	a.mu.Lock()
	a.root = root
	a.index()
	a.mu.Unlock()
}

// Mutate runs fn on the live tree and re-indexes it.
func (a *App) Mutate(fn func(root *Element)) {
	a.mu.Lock()
	fn(a.root)
	a.index()
	a.mu.Unlock()
}

// After schedules fn to run once n more Application reads have happened.
// It models content that appears a few polls after a navigation.
func (a *App) After(n int, fn func(*App)) {
	a.mu.Lock()
	a.queue = append(a.queue, pending{at: a.reads + n, fn: fn})
	a.mu.Unlock()
}

// Presses returns the labels of every pressed or clicked element, in order.
func (a *App) Presses() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.presses...)
}

// Keys returns every key combo sent, in order.
func (a *App) Keys() [][]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]string(nil), a.keys...)
}

// Clicks returns every click point, in order.
func (a *App) Clicks() [][2]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][2]int(nil), a.clicks...)
}

// index assigns ids to new elements and rebuilds the lookup table. Existing
// elements keep their ids. Caller holds mu.
func (a *App) index() {
	a.byID = make(map[int]*Element)
	var visit func(e, parent *Element)
	visit = func(e, parent *Element) {
		if e.id == 0 {
			a.nextID++
			e.id = a.nextID
		}
		e.parent = parent
		a.byID[e.id] = e
		for _, c := range e.Children {
			visit(c, e)
		}
	}
	if a.root != nil {
		visit(a.root, nil)
	}
}

func (a *App) lookup(ref model.NodeRef) (*Element, error) {
	e, ok := a.byID[int(ref)]
	if !ok {
		return nil, fmt.Errorf("element %d no longer exists: %w", ref, model.ErrStaleTreeReference)
	}
	return e, nil
}

// shift is the total scroll offset applied to e by its enclosing areas.
func shift(e *Element) int {
	total := 0
	for p := e.parent; p != nil; p = p.parent {
		if p.isScroll() {
			total += p.Offset
		}
	}
	return total
}

func screenFrame(e *Element) model.Bounds {
	return e.Frame.Translate(0, -shift(e))
}

// visible reports whether e lies inside the viewport of every enclosing
// scroll area.
func visible(e *Element) bool {
	f := screenFrame(e)
	for p := e.parent; p != nil; p = p.parent {
		if p.isScroll() && !f.Intersects(screenFrame(p)) {
			return false
		}
	}
	return true
}

func (a *App) snapshot(e *Element) model.Node {
	n := model.NewNode(model.NodeRef(e.id), e.AXRole, screenFrame(e), append([]string(nil), e.Actions...))
	if e.Title != "" || e.Value != "" || e.Description != "" {
		n.Text = &model.TextAttrs{Value: e.Value, Title: e.Title, Description: e.Description}
	}
	if e.isScroll() {
		n.Scroll = &model.ScrollAttrs{Position: float64(e.Offset), HasPosition: e.ExposePosition}
	}
	return n
}

// Application returns the root element and advances the read clock.
func (a *App) Application() (model.Node, error) {
	a.mu.Lock()
	a.reads++
	var due []func(*App)
	keep := a.queue[:0]
	for _, p := range a.queue {
		if p.at <= a.reads {
			due = append(due, p.fn)
		} else {
			keep = append(keep, p)
		}
	}
	a.queue = keep
	a.mu.Unlock()

	for _, fn := range due {
		fn(a)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.trusted {
		return model.Node{}, model.PermissionError("reading application tree")
	}
	if a.root == nil {
		return model.Node{}, fmt.Errorf("application has no window")
	}
	return a.snapshot(a.root), nil
}

// Children returns the visible children of ref.
func (a *App) Children(ref model.NodeRef) ([]model.Node, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.trusted {
		return nil, model.PermissionError("reading children")
	}
	e, err := a.lookup(ref)
	if err != nil {
		return nil, err
	}
	out := make([]model.Node, 0, len(e.Children))
	for _, c := range e.Children {
		if visible(c) {
			out = append(out, a.snapshot(c))
		}
	}
	return out, nil
}

// Attribute reads one attribute.
func (a *App) Attribute(ref model.NodeRef, name string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, err := a.lookup(ref)
	if err != nil {
		return "", false, err
	}
	var v string
	switch name {
	case model.AttrTitle:
		v = e.Title
	case model.AttrValue:
		v = e.Value
	case "AXDescription":
		v = e.Description
	case "AXRole":
		v = e.AXRole
	case model.AttrScrollPosition:
		if !e.isScroll() || !e.ExposePosition {
			return "", false, nil
		}
		return strconv.Itoa(e.Offset), true, nil
	default:
		return "", false, nil
	}
	return v, v != "", nil
}

// Frame returns the element's current screen frame.
func (a *App) Frame(ref model.NodeRef) (model.Bounds, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, err := a.lookup(ref)
	if err != nil {
		return model.Bounds{}, err
	}
	return screenFrame(e), nil
}

// PerformAction applies an accessibility action.
func (a *App) PerformAction(ref model.NodeRef, action string) error {
	a.mu.Lock()
	e, err := a.lookup(ref)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	var hook func(*App)
	switch action {
	case model.ActionScrollDown:
		if !e.isScroll() {
			a.mu.Unlock()
			return fmt.Errorf("%s does not scroll", e.AXRole)
		}
		step := e.PageStep
		if step <= 0 {
			step = e.Frame.Height
		}
		scrollBy(e, step)
	case model.ActionScrollToTop:
		e.Offset = 0
	case model.ActionPress:
		a.presses = append(a.presses, label(e))
		hook = e.OnPress
	case model.ActionRaise:
	default:
		a.mu.Unlock()
		return fmt.Errorf("action %s not supported by %s", action, e.AXRole)
	}
	a.mu.Unlock()
	if hook != nil {
		hook(a)
	}
	return nil
}

// IsTrusted reports the simulated accessibility permission.
func (a *App) IsTrusted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trusted
}

func label(e *Element) string {
	for _, s := range []string{e.Title, e.Value, e.Description} {
		if s != "" {
			return s
		}
	}
	return e.AXRole
}

// contentHeight is the extent of an area's descendants below its top edge.
func contentHeight(area *Element) int {
	bottom := 0
	var visit func(e *Element)
	visit = func(e *Element) {
		for _, c := range e.Children {
			if b := c.Frame.Y + c.Frame.Height - area.Frame.Y; b > bottom {
				bottom = b
			}
			if !c.isScroll() {
				visit(c)
			}
		}
	}
	visit(area)
	return bottom
}

func scrollBy(area *Element, dy int) {
	limit := contentHeight(area) - area.Frame.Height
	if limit < 0 {
		limit = 0
	}
	area.Offset += dy
	if area.Offset > limit {
		area.Offset = limit
	}
	if area.Offset < 0 {
		area.Offset = 0
	}
}
