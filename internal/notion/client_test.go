package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jomei/notionapi"

	"github.com/mj1618/desktop-extract/internal/model"
)

// toServer sends every request to a test server, keeping its path.
type toServer struct{ u *url.URL }

func (t toServer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme, r.URL.Host, r.Host = t.u.Scheme, t.u.Host, t.u.Host
	return http.DefaultTransport.RoundTrip(r)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return New("secret", WithTransport(toServer{u}), WithRateLimit(0))
}

func titlePage(id, title string) map[string]any {
	return map[string]any{
		"object": "page",
		"id":     id,
		"properties": map[string]any{
			"Name": map[string]any{"id": "title", "type": "title", "title": []any{map[string]any{"plain_text": title}}},
			"Time": map[string]any{"type": "number", "number": 25},
			"Tags": map[string]any{"type": "multi_select", "multi_select": []any{
				map[string]any{"name": "quick"}, map[string]any{"name": "veg"},
			}},
		},
	}
}

func TestListItems_Paginates(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != "/v1/databases/abc123/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" || r.Header.Get("Notion-Version") == "" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		resp := map[string]any{}
		if body["start_cursor"] == nil {
			resp["results"] = []any{titlePage("p1", "Soup"), titlePage("p2", "Salad")}
			resp["has_more"] = true
			resp["next_cursor"] = "c2"
		} else {
			resp["results"] = []any{titlePage("p3", "Stew")}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))

	items, err := c.ListItems(context.Background(), "abc-123", 0)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	if diff := cmp.Diff([]string{"Soup", "Salad", "Stew"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	want := map[string]string{"Name": "Soup", "Time": "25", "Tags": "quick, veg"}
	if diff := cmp.Diff(want, items[0].Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestListItems_Limit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["page_size"] != float64(2) {
			t.Errorf("page_size = %v, want 2", body["page_size"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results":     []any{titlePage("p1", "A"), titlePage("p2", "B")},
			"has_more":    true,
			"next_cursor": "more",
		})
	}))

	items, err := c.ListItems(context.Background(), "abc", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestListItems_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","status":404,"code":"object_not_found","message":"Could not find database"}`))
	}))

	_, err := c.ListItems(context.Background(), "missing", 5)
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *notionapi.Error", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "object_not_found" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func para(id, text string, kids bool) map[string]any {
	return map[string]any{
		"object": "block", "id": id, "type": "paragraph", "has_children": kids,
		"paragraph": map[string]any{"rich_text": []any{map[string]any{"plain_text": text}}},
	}
}

func TestExtract_RecursiveChildren(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/pages/page1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(titlePage("page1", "Recipe X"))
	})
	mux.HandleFunc("/v1/blocks/page1/children", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start_cursor") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []any{
					map[string]any{"object": "block", "id": "h", "type": "heading_2", "heading_2": map[string]any{
						"rich_text": []any{map[string]any{"plain_text": "Ingredients"}}}},
					para("t", "toggle", true),
				},
				"has_more": true, "next_cursor": "n",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []any{
				map[string]any{"object": "block", "id": "d", "type": "divider", "divider": map[string]any{}},
				map[string]any{"object": "block", "id": "e", "type": "equation", "equation": map[string]any{"expression": "x^2"}},
			},
		})
	})
	mux.HandleFunc("/v1/blocks/t/children", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{para("c", "  2 eggs ", false)}})
	})
	c := newTestClient(t, mux)

	res, err := c.Extract(context.Background(), "page1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "Recipe X" || res.Metadata.StrategyUsed != model.StrategyStructured {
		t.Errorf("title = %q strategy = %s", res.Title, res.Metadata.StrategyUsed)
	}
	type row struct {
		Type, Content string
		Order         int
	}
	var got []row
	for _, b := range res.Blocks {
		if b.Source != model.SourceStructured {
			t.Errorf("block %d source = %s", b.Order, b.Source)
		}
		got = append(got, row{b.Type, b.Content, b.Order})
	}
	want := []row{
		{"heading", "Ingredients", 0},
		{"text", "toggle", 1},
		{"text", "2 eggs", 2},
		{"equation", "x^2", 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeID(t *testing.T) {
	if got := NormalizeID(" 12ab-34cd-56 "); got != "12ab34cd56" {
		t.Errorf("NormalizeID = %q", got)
	}
}

func TestFindPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["query"] != "weekly plan" {
			t.Errorf("query = %v", body["query"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object":  "list",
			"results": []any{titlePage("p1", "Weekly Plan Archive"), titlePage("p2", "Weekly Plan")},
		})
	}))

	id, err := c.FindPage(context.Background(), "weekly plan")
	if err != nil {
		t.Fatal(err)
	}
	if id != "p2" {
		t.Errorf("id = %q, want p2", id)
	}
}

func TestFindPage_NoMatch(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "results": []any{titlePage("p1", "Garden")}})
	}))
	id, err := c.FindPage(context.Background(), "Recipes")
	if err != nil || id != "" {
		t.Errorf("FindPage = %q, %v; want no match", id, err)
	}
}

func TestRateLimitThrottlesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(titlePage("p1", "Soup"))
	}))
	t.Cleanup(srv.Close)
	u, _ := url.Parse(srv.URL)
	c := New("secret", WithTransport(toServer{u}), WithRateLimit(0.001))

	if _, err := c.PageTitle(context.Background(), "p1"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := c.PageTitle(ctx, "p1"); err == nil {
		t.Error("second request should not get a token before the deadline")
	}
}
