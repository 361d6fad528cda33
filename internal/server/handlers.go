package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/model"
)

// pageEntry is one sidebar page in the pages response.
type pageEntry struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`
}

// batchResult is the response of the extraction tools.
type batchResult struct {
	RunID   string                    `yaml:"run_id"`
	Results []*model.ExtractionResult `yaml:"results"`
	Targets []acquire.TargetStatus    `yaml:"targets"`
}

func toText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func (s *Server) handlePages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deps.Pages == nil {
		return mcp.NewToolResultError("page listing not available"), nil
	}
	names, err := s.deps.Pages.Pages()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries := make([]pageEntry, len(names))
	for i, n := range names {
		entries[i] = pageEntry{Index: i, Name: n}
	}
	return mcp.NewToolResultText(toText(entries)), nil
}

// targetFromParams builds the extract_page target. Exactly one of name,
// index and id is required; an id may accompany a name.
func targetFromParams(params map[string]interface{}) (model.NavigationTarget, error) {
	name := strings.TrimSpace(stringParam(params, "name", ""))
	id := strings.TrimSpace(stringParam(params, "id", ""))
	index := intParam(params, "index", -1)

	switch {
	case name != "":
		return model.NavigationTarget{Name: name, ID: id}, nil
	case index >= 0:
		return model.IndexTarget(index), nil
	case id != "":
		return model.NavigationTarget{ID: id}, nil
	default:
		return model.NavigationTarget{}, fmt.Errorf("one of name, index, or id is required")
	}
}

func (s *Server) handleExtractPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := targetFromParams(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rep, err := s.deps.Extract.Run(ctx, []model.NavigationTarget{t})
	return batchResponse(rep, err)
}

func (s *Server) handleExtractRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	collection := stringParam(params, "collection", s.deps.Collection)
	limit := intParam(params, "limit", 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	targets, err := acquire.ExpandCollection(ctx, s.deps.API, collection, s.deps.Rows, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(targets) == 0 {
		return mcp.NewToolResultError("no collection rows found"), nil
	}
	rep, err := s.deps.RowBatch.Run(ctx, targets)
	return batchResponse(rep, err)
}

// batchResponse reports a run. A run where nothing was acquired is a tool
// error; partial success is returned as text with the failures listed.
func batchResponse(rep *acquire.Report, err error) (*mcp.CallToolResult, error) {
	if rep == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := toText(batchResult{RunID: rep.RunID, Results: rep.Results, Targets: rep.Targets})
	switch {
	case err != nil && errors.Is(err, model.ErrPermissionDenied):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("%v\n%s", err, text)), nil
	case len(rep.Results) == 0:
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

// Parameter extraction helpers for tool arguments.

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}
