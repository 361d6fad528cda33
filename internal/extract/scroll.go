package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/platform"
)

// View is what the driver observed at one scroll position. All refs in it
// are valid only until the next scroll.
type View struct {
	Iteration int
	App       model.Node
	Root      model.Node
	Nodes     []model.Node
}

// VisitFunc consumes one view. It runs before the next UI mutation.
type VisitFunc func(ctx context.Context, v View) error

// ScrollDriver pages through the content area from top to bottom.
type ScrollDriver struct {
	tree  platform.Tree
	input platform.Inputter
	opts  Options
	log   zerolog.Logger
}

// NewScrollDriver returns a driver over p. The inputter is used only when the
// content area rejects the page-down action.
func NewScrollDriver(p *platform.Provider, opts Options, log zerolog.Logger) *ScrollDriver {
	return &ScrollDriver{tree: p.Tree, input: p.Inputter, opts: opts.withDefaults(), log: log}
}

// observe locates the content area in a fresh tree and gathers everything
// below it. A stale reference during the gather triggers one re-resolution.
func (d *ScrollDriver) observe(iter int) (View, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		app, root, err := Relocate(d.tree, d.opts)
		if err != nil {
			return View{}, err
		}
		nodes, err := platform.Collect(d.tree, root, d.opts.CollectDepth, func(model.Node) bool { return true })
		if errors.Is(err, model.ErrStaleTreeReference) {
			d.log.Debug().Int("iteration", iter).Msg("content root went stale; re-resolving")
			lastErr = err
			continue
		}
		if err != nil {
			return View{}, err
		}
		return View{Iteration: iter, App: app, Root: root, Nodes: nodes}, nil
	}
	return View{}, lastErr
}

// Signature identifies a scroll position: the scroll position attribute when
// the area exposes one, else a fingerprint of the visible content.
func Signature(v View) string {
	if v.Root.Scroll != nil && v.Root.Scroll.HasPosition {
		return "pos:" + strconv.FormatFloat(v.Root.Scroll.Position, 'f', -1, 64)
	}
	h := xxhash.New()
	for _, n := range v.Nodes {
		f := n.Frame.Translate(-v.Root.Frame.X, -v.Root.Frame.Y)
		fmt.Fprintf(h, "%s|%d,%d,%d,%d|%s\n", n.Role, f.X, f.Y, f.Width, f.Height, n.Content())
	}
	return "fp:" + strconv.FormatUint(h.Sum64(), 16)
}

// Sleep waits for d or until ctx is done, returning ctx's error in the
// latter case. A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// scrollDown pages the content root once. A stale root is re-resolved once;
// an area that rejects the action is scrolled with the wheel instead.
func (d *ScrollDriver) scrollDown(v View) error {
	err := d.tree.PerformAction(v.Root.Ref, model.ActionScrollDown)
	if errors.Is(err, model.ErrStaleTreeReference) {
		_, root, rerr := Relocate(d.tree, d.opts)
		if rerr != nil {
			return rerr
		}
		v.Root = root
		err = d.tree.PerformAction(root.Ref, model.ActionScrollDown)
	}
	if err == nil || d.input == nil || errors.Is(err, model.ErrStaleTreeReference) {
		return err
	}
	d.log.Debug().Err(err).Msg("page-down rejected; using scroll wheel")
	x, y := v.Root.Frame.Center()
	return d.input.Scroll(x, y, 0, v.Root.Frame.Height*9/10)
}

// Run scrolls to the top, then pages down until the signature is unchanged
// for StablePolls consecutive polls or MaxScrolls is reached. visit runs once
// per position, starting with the top. It returns the number of scroll
// actions performed.
func (d *ScrollDriver) Run(ctx context.Context, visit VisitFunc) (int, error) {
	v, err := d.observe(0)
	if err != nil {
		return 0, err
	}
	if err := d.tree.PerformAction(v.Root.Ref, model.ActionScrollToTop); err != nil {
		d.log.Debug().Err(err).Msg("scroll to top not supported")
	} else if err := Sleep(ctx, d.opts.PollInterval); err != nil {
		return 0, err
	}
	if v, err = d.observe(0); err != nil {
		return 0, err
	}
	if err := visit(ctx, v); err != nil {
		return 0, err
	}

	sig := Signature(v)
	stable := 0
	scrolls := 0
	for scrolls < d.opts.MaxScrolls {
		if err := ctx.Err(); err != nil {
			return scrolls, err
		}
		if err := d.scrollDown(v); err != nil {
			return scrolls, fmt.Errorf("scrolling content area: %w", err)
		}
		scrolls++
		if err := Sleep(ctx, d.opts.PollInterval); err != nil {
			return scrolls, err
		}
		if v, err = d.observe(scrolls); err != nil {
			return scrolls, err
		}
		if err := visit(ctx, v); err != nil {
			return scrolls, err
		}
		next := Signature(v)
		if next == sig {
			stable++
			if stable >= d.opts.StablePolls {
				d.log.Debug().Int("scrolls", scrolls).Msg("scroll position converged")
				return scrolls, nil
			}
			continue
		}
		sig, stable = next, 0
	}
	d.log.Warn().Int("max_scrolls", d.opts.MaxScrolls).Msg("stopped at scroll cap before convergence")
	return scrolls, nil
}
