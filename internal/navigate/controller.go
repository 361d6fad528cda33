// Package navigate moves the app to a named or indexed page or collection
// row and confirms the new view has loaded by polling, never by sleeping a
// fixed time.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/extract"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/platform"
)

// Options tunes navigation.
type Options struct {
	AppName      string
	PollInterval time.Duration
	Timeout      time.Duration // per AwaitingLoad
	QuietPolls   int
	RetryBackoff time.Duration // wait before the single retry after a load timeout
	ObserveDepth int
	BackKeys     []string
}

// DefaultOptions returns the tuned defaults for Notion.
func DefaultOptions() Options {
	return Options{
		AppName:      "Notion",
		PollInterval: 250 * time.Millisecond,
		Timeout:      10 * time.Second,
		QuietPolls:   2,
		RetryBackoff: time.Second,
		ObserveDepth: 10,
		BackKeys:     []string{"cmd", "["},
	}
}

// Controller resolves targets, activates them and waits for the result.
type Controller struct {
	p      *platform.Provider
	source CandidateSource
	pages  CandidateSource
	opts   Options
	log    zerolog.Logger

	state    State
	baseline string
}

// New returns a controller resolving targets against source. Returning to
// the baseline by name always uses the sidebar.
func New(p *platform.Provider, source CandidateSource, opts Options, log zerolog.Logger) *Controller {
	if source == nil {
		source = Sidebar{}
	}
	return &Controller{p: p, source: source, pages: Sidebar{}, opts: opts, log: log, state: Idle}
}

// State returns the state reached by the last navigation.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) transition(to State, target model.NavigationTarget) {
	c.log.Debug().Str("target", target.String()).Stringer("from", c.state).Stringer("to", to).Msg("navigation state")
	c.state = to
}

// Observe reads the current title, a fingerprint of the visible content and
// whether a loading indicator is shown.
func (c *Controller) Observe() (Observation, error) {
	tree := c.p.Tree
	app, err := tree.Application()
	if err != nil {
		return Observation{}, err
	}
	nodes, err := platform.Collect(tree, app, c.opts.ObserveDepth, func(n model.Node) bool {
		return n.Content() != "" || n.Role == "progress"
	})
	if err != nil {
		return Observation{}, err
	}
	h := xxhash.New()
	for _, n := range nodes {
		_, _ = h.WriteString(n.Role)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(n.Content())
		_, _ = h.WriteString("\n")
	}
	return Observation{
		Title:       extract.PageTitle(tree, app, c.opts.AppName),
		Fingerprint: h.Sum64(),
		Loading:     extract.IsLoading(nodes),
	}, nil
}

// RecordBaseline remembers the current page as the view to return to after
// each target.
func (c *Controller) RecordBaseline() (string, error) {
	obs, err := c.Observe()
	if err != nil {
		return "", err
	}
	c.baseline = obs.Title
	return c.baseline, nil
}

// Baseline returns the recorded baseline title.
func (c *Controller) Baseline() string {
	return c.baseline
}

// Candidates lists what the controller's source currently offers.
func (c *Controller) Candidates() ([]Candidate, error) {
	app, err := c.p.Tree.Application()
	if err != nil {
		return nil, err
	}
	return c.source.Candidates(c.p.Tree, app)
}

// Navigate activates target and waits for its page. A load timeout is
// retried once after RetryBackoff; a second timeout is reported as
// ErrTargetNotFound, still matching ErrLoadTimeout.
func (c *Controller) Navigate(ctx context.Context, target model.NavigationTarget) (model.NavigationTarget, error) {
	resolved, err := c.attempt(ctx, c.source, target)
	if !errors.Is(err, model.ErrLoadTimeout) {
		return resolved, err
	}
	c.log.Warn().Str("target", target.String()).Dur("backoff", c.opts.RetryBackoff).Msg("load timed out; retrying once")
	if serr := extract.Sleep(ctx, c.opts.RetryBackoff); serr != nil {
		return resolved, serr
	}
	resolved, err = c.attempt(ctx, c.source, target)
	if errors.Is(err, model.ErrLoadTimeout) {
		return resolved, fmt.Errorf("%w: %s did not load after retry: %w", model.ErrTargetNotFound, target, err)
	}
	return resolved, err
}

func (c *Controller) attempt(ctx context.Context, source CandidateSource, target model.NavigationTarget) (model.NavigationTarget, error) {
	c.state = Idle
	c.transition(Requesting, target)

	before, err := c.Observe()
	if err != nil {
		c.transition(Failed, target)
		return target, err
	}
	if target.Index == nil && target.Name != "" && normalize(before.Title) == normalize(target.Name) {
		c.log.Debug().Str("target", target.String()).Msg("already on target page")
		target.Resolution = model.ResolveExact
		c.transition(Confirmed, target)
		return target, nil
	}

	app, err := c.p.Tree.Application()
	if err != nil {
		c.transition(Failed, target)
		return target, err
	}
	cands, err := source.Candidates(c.p.Tree, app)
	if err != nil {
		c.transition(Failed, target)
		return target, err
	}
	cand, how, err := Resolve(cands, target)
	if err != nil {
		c.transition(Failed, target)
		return target, err
	}
	ref := cand.Node.Ref
	target.ResolvedRef = &ref
	target.Resolution = how
	if err := c.activate(cand.Node); err != nil {
		c.transition(Failed, target)
		return target, fmt.Errorf("activating %q: %w", cand.Name, err)
	}

	c.transition(AwaitingLoad, target)
	crit := Criteria{PrevTitle: before.Title, Want: cand.Name, QuietPolls: c.opts.QuietPolls, MaxPolls: maxPolls(c.opts)}
	st, err := Await(ctx, c.opts.PollInterval, c.opts.Timeout, Seed(before.Fingerprint), crit, c.Observe)
	if err != nil {
		c.transition(Failed, target)
		return target, fmt.Errorf("waiting for %q: %w", cand.Name, err)
	}
	c.log.Debug().Str("target", target.String()).Int("polls", st.Polls).Str("resolution", string(how)).Msg("page loaded")
	c.transition(Confirmed, target)
	return target, nil
}

// activate presses the node, or clicks its center when it has no press
// action.
func (c *Controller) activate(n model.Node) error {
	if n.HasAction(model.ActionPress) || c.p.Inputter == nil {
		return c.p.Tree.PerformAction(n.Ref, model.ActionPress)
	}
	x, y := n.Frame.Center()
	return c.p.Inputter.Click(x, y, platform.MouseLeft, 1)
}

// ReturnToBaseline brings the app back to the recorded baseline page: first
// with the back shortcut, then by navigating to it by name.
func (c *Controller) ReturnToBaseline(ctx context.Context) error {
	if c.baseline == "" {
		return nil
	}
	before, err := c.Observe()
	if err != nil {
		return err
	}
	if before.Title == c.baseline {
		return nil
	}
	target := model.NamedTarget(c.baseline)
	if c.p.Inputter != nil && len(c.opts.BackKeys) > 0 {
		if err := c.p.Inputter.KeyCombo(c.opts.BackKeys); err == nil {
			crit := Criteria{PrevTitle: before.Title, Want: c.baseline, QuietPolls: c.opts.QuietPolls, MaxPolls: maxPolls(c.opts)}
			_, err = Await(ctx, c.opts.PollInterval, c.opts.Timeout, Seed(before.Fingerprint), crit, c.Observe)
			if err == nil {
				c.log.Debug().Str("baseline", c.baseline).Msg("returned to baseline")
				return nil
			}
			if model.IsFatal(err) || ctx.Err() != nil {
				return err
			}
			c.log.Debug().Err(err).Msg("back shortcut did not reach baseline")
		}
	}
	if _, err := c.attempt(ctx, c.pages, target); err != nil {
		return fmt.Errorf("returning to %q: %w", c.baseline, err)
	}
	return nil
}

// Pages lists the sidebar page names.
func (c *Controller) Pages() ([]string, error) {
	app, err := c.p.Tree.Application()
	if err != nil {
		return nil, err
	}
	cands, err := c.pages.Candidates(c.p.Tree, app)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cands))
	for i, cand := range cands {
		names[i] = cand.Name
	}
	return names, nil
}

func maxPolls(o Options) int {
	if o.PollInterval <= 0 {
		return 40
	}
	n := int(o.Timeout / o.PollInterval)
	if n < 1 {
		n = 1
	}
	return n
}

// Await polls observe every interval, folding each observation into st with
// Advance, until the load is confirmed or fails. A poll that errors counts as
// still loading; permission denial aborts at once. The whole wait is bounded
// by timeout.
func Await(ctx context.Context, interval, timeout time.Duration, st LoadState, crit Criteria, observe func() (Observation, error)) (LoadState, error) {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	for {
		if err := extract.Sleep(waitCtx, interval); err != nil {
			if ctx.Err() == nil {
				return st, fmt.Errorf("no settled view after %d polls: %w", st.Polls, model.ErrLoadTimeout)
			}
			return st, err
		}
		obs, err := observe()
		if model.IsFatal(err) {
			return st, err
		}
		if err != nil {
			obs = Observation{Loading: true}
		}
		st = Advance(st, obs, crit)
		switch st.State {
		case Confirmed:
			return st, nil
		case Failed:
			return st, fmt.Errorf("no settled view after %d polls: %w", st.Polls, model.ErrLoadTimeout)
		}
	}
}
