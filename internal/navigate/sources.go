package navigate

import (
	"github.com/mj1618/desktop-extract/internal/extract"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/platform"
)

// CandidateSource lists the entries a target can be resolved against. app is
// a fresh snapshot of the top-level element.
type CandidateSource interface {
	Candidates(tree platform.Tree, app model.Node) ([]Candidate, error)
}

// Sidebar offers the page links and buttons of the app's left-hand
// navigation pane: a narrow, tall group at the left edge of the window.
type Sidebar struct{}

func isSidebar(n, app model.Node) bool {
	return n.Role == "group" &&
		n.Frame.X-app.Frame.X < 100 &&
		n.Frame.Width < 400 &&
		n.Frame.Height > 400
}

func (Sidebar) Candidates(tree platform.Tree, app model.Node) ([]Candidate, error) {
	var sidebar model.Node
	found := false
	err := platform.Walk(tree, app, 8, func(n model.Node, _ int) bool {
		if !found && isSidebar(n, app) {
			sidebar, found = n, true
		}
		return !found
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	nodes, err := platform.Collect(tree, sidebar, 15, func(n model.Node) bool {
		return (n.Role == "lnk" || n.Role == "btn") && n.Label() != ""
	})
	if err != nil {
		return nil, err
	}
	// Links first, then buttons not already offered as links.
	var out []Candidate
	seen := make(map[string]bool)
	for _, role := range []string{"lnk", "btn"} {
		for _, n := range nodes {
			if n.Role != role || seen[n.Label()] {
				continue
			}
			seen[n.Label()] = true
			out = append(out, Candidate{Name: n.Label(), Node: n})
		}
	}
	return out, nil
}

// Rows offers the rows of the collection shown in the content area, top to
// bottom. A row without its own label is named by its first text.
type Rows struct {
	Options extract.Options
}

func (r Rows) Candidates(tree platform.Tree, app model.Node) ([]Candidate, error) {
	content, err := extract.LocateContentArea(tree, app, r.Options)
	if err != nil {
		return nil, err
	}
	rows, err := platform.Collect(tree, content, 20, func(n model.Node) bool { return n.Role == "row" })
	if err != nil {
		return nil, err
	}
	extract.SortVisual(rows)
	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		name := row.Label()
		if name == "" {
			texts, err := platform.Collect(tree, row, 4, func(n model.Node) bool {
				return model.IsTextRole(n.Role) && n.Content() != ""
			})
			if err != nil {
				return nil, err
			}
			if len(texts) == 0 {
				continue
			}
			name = texts[0].Content()
		}
		out = append(out, Candidate{Name: name, Node: row})
	}
	return out, nil
}
