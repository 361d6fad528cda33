package acquire

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/extract"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/navigate"
	"github.com/mj1618/desktop-extract/internal/notion"
	"github.com/mj1618/desktop-extract/internal/platform"
	"github.com/mj1618/desktop-extract/internal/platform/synthetic"
	"github.com/mj1618/desktop-extract/internal/vision"
)

// screenLocator reads the synthetic screenshot and points at (x, y) when the
// query is painted on it.
type screenLocator struct {
	x, y  int
	calls atomic.Int32
}

func (l *screenLocator) Locate(_ context.Context, shot []byte, query string) ([]vision.Candidate, error) {
	l.calls.Add(1)
	if l.x == 0 || !strings.Contains(synthetic.Decode(shot), query) {
		return nil, nil
	}
	return []vision.Candidate{{Label: query, X: l.x, Y: l.y, Confidence: 0.9}}, nil
}

// recipeWorkspace opens Home, whose content lists a "Recipe X" row. The row
// is not in the sidebar, so the accessibility strategy cannot resolve it.
func recipeWorkspace() *synthetic.Workspace {
	w := synthetic.NewWorkspace("Home",
		&synthetic.Page{Title: "Home", Lines: []string{"welcome"}, Rows: []string{"Recipe X"}},
		&synthetic.Page{Title: "Weekly Plan"},
	)
	w.LoadDelay = 2
	return w
}

func scenario(w *synthetic.Workspace, loc vision.Locator) (*Orchestrator, *navigate.Controller) {
	p := platform.Serialize(w.App.Provider())
	log := zerolog.Nop()

	eopts := extract.DefaultOptions()
	eopts.PollInterval = 0
	ext := extract.New(p, nil, eopts, log)

	nopts := navigate.DefaultOptions()
	nopts.PollInterval = 0
	nopts.RetryBackoff = 0
	nav := navigate.New(p, navigate.Sidebar{}, nopts, log)

	vopts := DefaultVisionOptions()
	vopts.PollInterval = 0
	strategies := []Strategy{
		&StructuredStrategy{},
		&AccessibilityStrategy{Nav: nav, Extractor: ext},
		NewVisionStrategy(p, loc, ext, vopts, log),
	}
	return New(strategies, nav, nil, log), nav
}

func TestRecipeX_VisionFallbackAcquires(t *testing.T) {
	w := recipeWorkspace()
	// Home: heading at y=80, one line at y=140, the row at y=200 (32 high),
	// spanning x 280..1140.
	loc := &screenLocator{x: 710, y: 216}
	o, _ := scenario(w, loc)

	rep, err := o.Run(context.Background(), []model.NavigationTarget{model.NamedTarget("Recipe X")})
	if err != nil {
		t.Fatal(err)
	}
	if loc.calls.Load() != 1 {
		t.Errorf("locator calls = %d, want 1", loc.calls.Load())
	}
	if len(rep.Results) != 1 {
		t.Fatalf("results = %d, failures = %+v", len(rep.Results), rep.Failures())
	}
	res := rep.Results[0]
	if res.Metadata.StrategyUsed != model.StrategyVision || res.Title != "Recipe X" {
		t.Errorf("strategy = %s title = %q", res.Metadata.StrategyUsed, res.Title)
	}
	if res.Metadata.Resolution != model.ResolveVision || rep.Targets[0].Matched != model.ResolveVision {
		t.Errorf("resolution = %q / %q, want vision", res.Metadata.Resolution, rep.Targets[0].Matched)
	}
	var got []string
	for _, b := range res.Blocks {
		got = append(got, b.Content)
	}
	if diff := cmp.Diff([]string{"Recipe X", "Recipe X details"}, got); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
	want := []model.Strategy{model.StrategyAccessibility, model.StrategyVision}
	if diff := cmp.Diff(want, rep.Targets[0].Attempted); diff != "" {
		t.Errorf("attempted mismatch (-want +got):\n%s", diff)
	}
	if w.Current() != "Home" {
		t.Errorf("after batch current = %q, want Home", w.Current())
	}
}

func TestRecipeX_BothStrategiesFail(t *testing.T) {
	w := recipeWorkspace()
	loc := &screenLocator{}
	o, _ := scenario(w, loc)

	rep, err := o.Run(context.Background(), []model.NavigationTarget{model.NamedTarget("Recipe X")})
	if err != nil {
		t.Fatalf("batch raised %v", err)
	}
	if len(rep.Results) != 0 {
		t.Fatalf("results = %d, want none", len(rep.Results))
	}
	fails := rep.Failures()
	if len(fails) != 1 || fails[0].Status != StatusFailed {
		t.Fatalf("failures = %+v", fails)
	}
	want := []model.Strategy{model.StrategyAccessibility, model.StrategyVision}
	if diff := cmp.Diff(want, fails[0].Attempted); diff != "" {
		t.Errorf("attempted mismatch (-want +got):\n%s", diff)
	}
	if len(fails[0].Errors) != 2 ||
		!strings.HasPrefix(fails[0].Errors[0], "accessibility:") ||
		!strings.HasPrefix(fails[0].Errors[1], "vision:") {
		t.Errorf("errors = %q", fails[0].Errors)
	}
	if loc.calls.Load() != 1 {
		t.Errorf("locator calls = %d, want 1", loc.calls.Load())
	}
}

func TestAccessibilityStrategy_SidebarPage(t *testing.T) {
	w := recipeWorkspace()
	loc := &screenLocator{}
	o, _ := scenario(w, loc)

	res, st, err := o.Acquire(context.Background(), model.NamedTarget("weekly plan"))
	if err != nil {
		t.Fatal(err)
	}
	if st.Strategy != model.StrategyAccessibility || loc.calls.Load() != 0 {
		t.Errorf("strategy = %s locator calls = %d", st.Strategy, loc.calls.Load())
	}
	if res.Title != "Weekly Plan" {
		t.Errorf("title = %q", res.Title)
	}
	if st.Matched != model.ResolveExact {
		t.Errorf("matched = %q, want exact", st.Matched)
	}
}

type fakeLister struct{}

func (fakeLister) ListItems(context.Context, string, int) ([]notion.Item, error) {
	return []notion.Item{{ID: "p1", Title: "Soup"}, {ID: "p2", Title: "Stew"}}, nil
}

func TestExpandCollection(t *testing.T) {
	t.Run("api", func(t *testing.T) {
		got, err := ExpandCollection(context.Background(), fakeLister{}, "db", nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		want := []model.NavigationTarget{{Name: "Soup", ID: "p1"}, {Name: "Stew", ID: "p2"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("targets mismatch (-want +got):\n%s", diff)
		}
	})
	t.Run("rows", func(t *testing.T) {
		w := synthetic.NewWorkspace("Recipes",
			&synthetic.Page{Title: "Recipes", Rows: []string{"Soup", "Toast", "Soup", "Stew"}},
		)
		p := platform.Serialize(w.App.Provider())
		rows := navigate.New(p, navigate.Rows{Options: extract.DefaultOptions()}, navigate.DefaultOptions(), zerolog.Nop())

		got, err := ExpandCollection(context.Background(), nil, "", rows, 3)
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, target := range got {
			names = append(names, target.String())
		}
		if diff := cmp.Diff([]string{"#0", "Toast", "#2"}, names); diff != "" {
			t.Errorf("targets mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParseAnswer(t *testing.T) {
	if a := ParseAnswer("  \n"); !a.Skip {
		t.Errorf("blank = %+v, want skip", a)
	}
	if a := ParseAnswer("#3\n"); a.Replacement == nil || a.Replacement.Index == nil || *a.Replacement.Index != 3 {
		t.Errorf("#3 = %+v", a)
	}
	if a := ParseAnswer("Recipe Y"); a.Replacement == nil || a.Replacement.Name != "Recipe Y" {
		t.Errorf("name = %+v", a)
	}
}

func TestPromptClarifier(t *testing.T) {
	var out strings.Builder
	p := NewPromptClarifier(strings.NewReader("Recipe Y\n"), &out)
	a, err := p.Clarify(context.Background(), Question{
		Target:    model.NamedTarget("Recipe X"),
		Attempted: []model.Strategy{model.StrategyAccessibility, model.StrategyVision},
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Replacement == nil || a.Replacement.Name != "Recipe Y" {
		t.Errorf("answer = %+v", a)
	}
	if !strings.Contains(out.String(), "tried accessibility, vision") {
		t.Errorf("prompt = %q", out.String())
	}
}
