package acquire

import (
	"context"
	"fmt"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/navigate"
	"github.com/mj1618/desktop-extract/internal/notion"
)

// ItemLister lists collection items through the structured API.
// *notion.Client implements it.
type ItemLister interface {
	ListItems(ctx context.Context, collectionID string, limit int) ([]notion.Item, error)
}

// RowLister lists the rows visible in the app. A *navigate.Controller over a
// navigate.Rows source implements it.
type RowLister interface {
	Candidates() ([]navigate.Candidate, error)
}

// ExpandCollection turns a collection into batch targets: from the API when
// a collection ID and lister are given, else from the visible rows. Rows
// sharing a name are targeted by index so each is visited once. A limit of
// zero or less keeps everything.
func ExpandCollection(ctx context.Context, api ItemLister, collectionID string, rows RowLister, limit int) ([]model.NavigationTarget, error) {
	if api != nil && collectionID != "" {
		items, err := api.ListItems(ctx, collectionID, limit)
		if err != nil {
			return nil, fmt.Errorf("listing collection: %w", err)
		}
		out := make([]model.NavigationTarget, 0, len(items))
		for _, it := range items {
			out = append(out, model.NavigationTarget{Name: it.Title, ID: it.ID})
		}
		return out, nil
	}
	if rows == nil {
		return nil, fmt.Errorf("no collection source: %w", model.ErrTargetNotFound)
	}
	cands, err := rows.Candidates()
	if err != nil {
		return nil, fmt.Errorf("listing rows: %w", err)
	}
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name
	}
	return ListTargets(names, limit), nil
}

// ListTargets targets each listed entry by name, or by index when another
// entry shares its name. A limit of zero or less keeps everything.
func ListTargets(names []string, limit int) []model.NavigationTarget {
	count := make(map[string]int, len(names))
	for _, n := range names {
		count[n]++
	}
	var out []model.NavigationTarget
	for i, n := range names {
		if limit > 0 && len(out) >= limit {
			break
		}
		if count[n] > 1 {
			out = append(out, model.IndexTarget(i))
			continue
		}
		out = append(out, model.NamedTarget(n))
	}
	return out
}
