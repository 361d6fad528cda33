package extract

import (
	"fmt"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/platform"
)

// LocateContentArea returns the largest scrollable descendant of app whose
// area is at least opts.MinArea. Candidates are visited breadth-first, so
// ties go to the one closest to the top of the tree.
func LocateContentArea(tree platform.Tree, app model.Node, opts Options) (model.Node, error) {
	opts = opts.withDefaults()
	var best model.Node
	found := false
	err := platform.Walk(tree, app, opts.MaxDepth, func(n model.Node, _ int) bool {
		if !n.IsScrollable() || n.Frame.Area() < opts.MinArea {
			return true
		}
		if !found || n.Frame.Area() > best.Frame.Area() {
			best, found = n, true
		}
		return true
	})
	if err != nil {
		return model.Node{}, fmt.Errorf("locating content area: %w", err)
	}
	if !found {
		return model.Node{}, fmt.Errorf("no scrollable region of at least %d px² within %d levels: %w", opts.MinArea, opts.MaxDepth, model.ErrNoContentArea)
	}
	return best, nil
}

// Relocate reads the top-level element again and finds the content area in
// the fresh tree. Refs from before any mutation must not be reused.
func Relocate(tree platform.Tree, opts Options) (app, content model.Node, err error) {
	app, err = tree.Application()
	if err != nil {
		return model.Node{}, model.Node{}, err
	}
	content, err = LocateContentArea(tree, app, opts)
	return app, content, err
}
