package platform

import (
	"fmt"

	"github.com/mj1618/desktop-extract/internal/model"
)

// WalkFunc is called for every node reached by Walk. Returning false stops
// descent below that node; its siblings are still visited.
type WalkFunc func(n model.Node, depth int) bool

// Walk visits the descendants of root breadth-first, down to maxDepth levels
// below it. The root itself is not visited. Nodes at the same depth are
// visited in tree order.
func Walk(tree Tree, root model.Node, maxDepth int, fn WalkFunc) error {
	type item struct {
		node  model.Node
		depth int
	}
	queue := []item{{root, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		kids, err := tree.Children(cur.node.Ref)
		if err != nil {
			return fmt.Errorf("children of %s: %w", cur.node.Role, err)
		}
		for _, k := range kids {
			if fn(k, cur.depth+1) {
				queue = append(queue, item{k, cur.depth + 1})
			}
		}
	}
	return nil
}

// Collect returns every descendant of root within maxDepth that satisfies
// keep, in breadth-first order.
func Collect(tree Tree, root model.Node, maxDepth int, keep func(model.Node) bool) ([]model.Node, error) {
	var out []model.Node
	err := Walk(tree, root, maxDepth, func(n model.Node, _ int) bool {
		if keep(n) {
			out = append(out, n)
		}
		return true
	})
	return out, err
}
