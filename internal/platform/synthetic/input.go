package synthetic

import (
	"github.com/mj1618/desktop-extract/internal/platform"
)

// hit returns the deepest visible element containing (x, y) that satisfies
// match, or nil.
func hit(root *Element, x, y int, match func(*Element) bool) *Element {
	var found *Element
	var visit func(e *Element)
	visit = func(e *Element) {
		if !visible(e) {
			return
		}
		f := screenFrame(e)
		if x < f.X || y < f.Y || x >= f.X+f.Width || y >= f.Y+f.Height {
			return
		}
		if match(e) {
			found = e
		}
		for _, c := range e.Children {
			visit(c)
		}
	}
	if root != nil {
		visit(root)
	}
	return found
}

// Click presses the deepest pressable element under the point.
func (a *App) Click(x, y int, _ platform.MouseButton, _ int) error {
	a.mu.Lock()
	a.clicks = append(a.clicks, [2]int{x, y})
	target := hit(a.root, x, y, func(e *Element) bool { return e.OnPress != nil })
	var hook func(*App)
	if target != nil {
		a.presses = append(a.presses, label(target))
		hook = target.OnPress
	}
	a.mu.Unlock()
	if hook != nil {
		hook(a)
	}
	return nil
}

// Scroll moves the innermost scroll area under the point by dy pixels.
// Positive dy scrolls towards the end of the content.
func (a *App) Scroll(x, y int, _, dy int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if area := hit(a.root, x, y, (*Element).isScroll); area != nil {
		scrollBy(area, dy)
	}
	return nil
}

// KeyCombo records the combo and runs OnKey.
func (a *App) KeyCombo(keys []string) error {
	a.mu.Lock()
	a.keys = append(a.keys, append([]string(nil), keys...))
	hook := a.OnKey
	a.mu.Unlock()
	if hook != nil {
		hook(a, keys)
	}
	return nil
}
