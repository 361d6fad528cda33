package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/validate"
)

func sampleResult() *model.ExtractionResult {
	conf := 0.91
	blocks := []model.Block{
		{Type: "heading", Content: "Recipe X", Source: model.SourceAccessibility, Order: 0,
			Provenance: model.FrameProvenance("heading", model.Bounds{X: 280, Y: 80, Width: 600, Height: 40})},
		{Type: "image", Content: "Chart caption", Source: model.SourceOCR, Order: 1,
			Provenance: model.Provenance{Role: "img", Confidence: &conf}},
	}
	return model.NewExtractionResult("Recipe X", "Recipe X: Soup / Stew", blocks, 3, model.StrategyAccessibility)
}

func TestFprint_JSONContract(t *testing.T) {
	OutputFormat = FormatJSON
	PrettyOutput = false
	defer func() { OutputFormat = FormatYAML }()

	var buf bytes.Buffer
	if err := Fprint(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Errorf("compact output should be single line, got:\n%s", buf.String())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"title", "blocks", "metadata"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing top-level key %q", key)
		}
	}
	meta := m["metadata"].(map[string]interface{})
	want := map[string]interface{}{
		"block_count":   float64(2),
		"scroll_count":  float64(3),
		"strategy_used": "accessibility",
		"target":        "Recipe X",
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	block := m["blocks"].([]interface{})[1].(map[string]interface{})
	for _, key := range []string{"type", "content", "source", "order", "metadata"} {
		if _, ok := block[key]; !ok {
			t.Errorf("block missing key %q", key)
		}
	}
}

func TestFprint_YAML(t *testing.T) {
	OutputFormat = FormatYAML
	var buf bytes.Buffer
	if err := Fprint(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "strategy_used: accessibility") {
		t.Errorf("yaml output missing metadata:\n%s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml should be rejected")
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %q, %v", f, err)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Recipe X: Soup / Stew": "recipe-x-soup-stew",
		"  Weekly   Plan  ":     "weekly-plan",
		"???":                   "untitled",
		"":                      "untitled",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteReport_CreatesDirAndRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sum, err := WriteReport(dir, &acquire.Report{Results: []*model.ExtractionResult{sampleResult()}}, Files{JSON: true})
	if err != nil {
		t.Fatal(err)
	}
	path := sum.Files[0]
	if filepath.Base(path) != "recipe-x-soup-stew_extraction.json" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got model.ExtractionResult
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sampleResult(), &got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	rep := &acquire.Report{
		RunID:   "run-1",
		Results: []*model.ExtractionResult{sampleResult()},
		Targets: []acquire.TargetStatus{
			{Target: "Recipe X", Status: acquire.StatusOK, Blocks: 2},
			{Target: "Recipe Z", Status: acquire.StatusFailed,
				Attempted: []model.Strategy{model.StrategyAccessibility, model.StrategyVision},
				Errors:    []string{"accessibility: target not found", "vision: target not found"}},
		},
	}
	sum, err := WriteReport(dir, rep, Files{JSON: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Files) != 1 || len(sum.Failures) != 1 || sum.Failures[0].Target != "Recipe Z" {
		t.Errorf("summary = %+v", sum)
	}
	data, err := os.ReadFile(filepath.Join(dir, "batch_report.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"run_id": "run-1"`) {
		t.Errorf("report missing run id:\n%s", data)
	}
}

func TestWriteReport_SameTitleKeepsEveryResult(t *testing.T) {
	dir := t.TempDir()
	first := model.NewExtractionResult("#0", "Pancakes", []model.Block{{Type: "text", Content: "fluffy"}}, 0, model.StrategyAccessibility)
	second := model.NewExtractionResult("#1", "Pancakes", []model.Block{{Type: "text", Content: "crepes"}}, 0, model.StrategyAccessibility)
	third := model.NewExtractionResult("Pancakes 2", "Pancakes 2", []model.Block{{Type: "text", Content: "vegan"}}, 0, model.StrategyAccessibility)
	rep := &acquire.Report{RunID: "run-2", Results: []*model.ExtractionResult{first, second, third}}

	sum, err := WriteReport(dir, rep, Files{JSON: true})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range sum.Files {
		names = append(names, filepath.Base(f))
	}
	want := []string{"pancakes_extraction.json", "pancakes-2_extraction.json", "pancakes-2-2_extraction.json"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	for i, res := range rep.Results {
		data, err := os.ReadFile(sum.Files[i])
		if err != nil {
			t.Fatal(err)
		}
		var got model.ExtractionResult
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got.Blocks[0].Content != res.Blocks[0].Content {
			t.Errorf("%s holds %q, want %q", names[i], got.Blocks[0].Content, res.Blocks[0].Content)
		}
	}
}

func TestWriteReport_CSV(t *testing.T) {
	dir := t.TempDir()
	rep := &acquire.Report{RunID: "run-3", Results: []*model.ExtractionResult{sampleResult()}}
	sum, err := WriteReport(dir, rep, Files{JSON: true, CSV: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Files) != 2 || filepath.Ext(sum.Files[1]) != ".csv" {
		t.Fatalf("files = %v, want json then csv", sum.Files)
	}
	f, err := os.Open(sum.Files[1])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Order", "Type", "Content", "Source", "Role"},
		{"0", "heading", "Recipe X", "accessibility", "heading"},
		{"1", "image", "Chart caption", "ocr", "img"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFiles(t *testing.T) {
	tests := map[string]Files{
		"":     {JSON: true},
		"json": {JSON: true},
		"csv":  {CSV: true},
		"both": {JSON: true, CSV: true},
	}
	for in, want := range tests {
		got, err := ParseFiles(in)
		if err != nil || got != want {
			t.Errorf("ParseFiles(%q) = %+v, %v", in, got, err)
		}
	}
	if _, err := ParseFiles("xml"); err == nil {
		t.Error("xml should be rejected")
	}
}

func TestWriteComparison(t *testing.T) {
	dir := t.TempDir()
	c := &validate.Comparison{
		BaselineTitle:  "Pancakes",
		ExtractedTitle: "Pancakes",
		Recall:         0.5,
		Missing:        []validate.BlockRef{{Type: "text", Content: "Whisk well"}},
		Mismatches:     []validate.Mismatch{{Baseline: "1 cup", Extracted: "l cup", Similarity: 0.8, Source: model.SourceOCR}},
	}
	paths, err := WriteComparison(dir, c, Files{JSON: true, CSV: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "pancakes_comparison.json"), filepath.Join(dir, "pancakes_comparison.csv")}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, line := range []string{"Recall (%),50.00", "Missing Blocks\n", "text,Whisk well", "1 cup,l cup,80.00,ocr"} {
		if !strings.Contains(text, line) {
			t.Errorf("csv missing %q:\n%s", line, text)
		}
	}
	if strings.Contains(text, "Extra Blocks\nType") {
		t.Errorf("empty extra section should be omitted:\n%s", text)
	}
}
