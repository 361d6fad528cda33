package notion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// Item is one entry of a collection. Fields holds every property rendered
// as plain text, keyed by property name.
type Item struct {
	ID     string
	Title  string
	Fields map[string]string
}

func plain(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, t := range rt {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

func formatDate(d *notionapi.Date) string {
	if d == nil {
		return ""
	}
	t := time.Time(*d)
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// propertyText renders a property as plain text. Unsupported kinds render
// as "".
func propertyText(p notionapi.Property) string {
	switch p := p.(type) {
	case *notionapi.TitleProperty:
		return plain(p.Title)
	case *notionapi.RichTextProperty:
		return plain(p.RichText)
	case *notionapi.NumberProperty:
		return strconv.FormatFloat(p.Number, 'f', -1, 64)
	case *notionapi.CheckboxProperty:
		return strconv.FormatBool(p.Checkbox)
	case *notionapi.URLProperty:
		return p.URL
	case *notionapi.SelectProperty:
		return p.Select.Name
	case *notionapi.MultiSelectProperty:
		names := make([]string, len(p.MultiSelect))
		for i, o := range p.MultiSelect {
			names[i] = o.Name
		}
		return strings.Join(names, ", ")
	case *notionapi.DateProperty:
		if p.Date == nil {
			return ""
		}
		return formatDate(p.Date.Start)
	default:
		return ""
	}
}

func pageItem(p *notionapi.Page) Item {
	it := Item{ID: p.ID.String(), Fields: make(map[string]string, len(p.Properties))}
	for name, prop := range p.Properties {
		v := propertyText(prop)
		it.Fields[name] = v
		if _, ok := prop.(*notionapi.TitleProperty); ok {
			it.Title = v
		}
	}
	return it
}

// ListItems returns up to limit items of the collection, in the
// collection's default order. A limit of zero or less returns every item.
func (c *Client) ListItems(ctx context.Context, collectionID string, limit int) ([]Item, error) {
	id := notionapi.DatabaseID(NormalizeID(collectionID))
	var items []Item
	var cursor notionapi.Cursor
	for {
		size := maxPageSize
		if limit > 0 && limit-len(items) < size {
			size = limit - len(items)
		}
		resp, err := c.api.Database.Query(ctx, id, &notionapi.DatabaseQueryRequest{StartCursor: cursor, PageSize: size})
		if err != nil {
			return nil, fmt.Errorf("querying collection %s: %w", collectionID, err)
		}
		for i := range resp.Results {
			items = append(items, pageItem(&resp.Results[i]))
		}
		if !resp.HasMore || resp.NextCursor == "" || (limit > 0 && len(items) >= limit) {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// PageTitle returns the page's title property, or its ID when it has none.
func (c *Client) PageTitle(ctx context.Context, pageID string) (string, error) {
	p, err := c.api.Page.Get(ctx, notionapi.PageID(NormalizeID(pageID)))
	if err != nil {
		return "", fmt.Errorf("retrieving page %s: %w", pageID, err)
	}
	if it := pageItem(p); it.Title != "" {
		return it.Title, nil
	}
	return p.ID.String(), nil
}

// FindPage returns the ID of the page whose title equals title, ignoring
// case, among the pages a search for title returns. It returns "" when no
// page matches.
func (c *Client) FindPage(ctx context.Context, title string) (string, error) {
	want := strings.ToLower(strings.TrimSpace(title))
	resp, err := c.api.Search.Do(ctx, &notionapi.SearchRequest{
		Query:  title,
		Filter: notionapi.SearchFilter{Property: "object", Value: "page"},
	})
	if err != nil {
		return "", fmt.Errorf("searching for %q: %w", title, err)
	}
	for _, obj := range resp.Results {
		p, ok := obj.(*notionapi.Page)
		if !ok {
			continue
		}
		if it := pageItem(p); strings.ToLower(strings.TrimSpace(it.Title)) == want {
			return it.ID, nil
		}
	}
	return "", nil
}
