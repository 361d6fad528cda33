package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/config"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/output"
	"github.com/mj1618/desktop-extract/internal/platform"
	"github.com/mj1618/desktop-extract/internal/platform/synthetic"
)

func testConfig() config.Config {
	c := config.Default()
	c.OCRBackend = "none"
	c.VisionProvider = "none"
	c.Extract.PollInterval = 0
	c.Navigate.PollInterval = 0
	c.Navigate.RetryBackoff = 0
	return c
}

// useWorkspace points the commands at w with a test configuration and JSON
// output, restoring the package state afterwards.
func useWorkspace(t *testing.T, w *synthetic.Workspace) {
	t.Helper()
	prevProvider, prevCfg, prevLog, prevFormat := newProvider, cfg, logger, output.OutputFormat
	newProvider = func(config.Config) (*platform.Provider, error) {
		return platform.Serialize(w.App.Provider()), nil
	}
	cfg = testConfig()
	logger = zerolog.Nop()
	output.OutputFormat = output.FormatJSON
	t.Cleanup(func() {
		newProvider, cfg, logger, output.OutputFormat = prevProvider, prevCfg, prevLog, prevFormat
	})
}

// prepare gives c a context, captures its output and sets --out for the
// duration of the test.
func prepare(t *testing.T, c *cobra.Command, out string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	c.SetContext(context.Background())
	c.SetOut(&buf)
	if err := c.Flags().Set("out", out); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		c.SetOut(nil)
		_ = c.Flags().Set("out", "")
	})
	return &buf
}

func testWorkspace() *synthetic.Workspace {
	w := synthetic.NewWorkspace("Home",
		&synthetic.Page{Title: "Home", Lines: []string{"welcome"}},
		&synthetic.Page{Title: "Weekly Plan", Lines: []string{"monday", "tuesday"}},
		&synthetic.Page{Title: "Recipes", Rows: []string{"Soup", "Salad Bowl"}},
	)
	w.LoadDelay = 2
	return w
}

func TestBuildTargets(t *testing.T) {
	got := buildTargets([]string{"Weekly Plan"}, []int{2}, []string{"abc123"})
	want := []string{"Weekly Plan", "#2", "abc123"}
	var names []string
	for _, tgt := range got {
		names = append(names, tgt.String())
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
	if got[2].ID != "abc123" || got[2].Name != "" {
		t.Errorf("id target = %+v, want ID only", got[2])
	}
	if buildTargets(nil, nil, nil) != nil {
		t.Error("no inputs should give no targets")
	}
}

func TestNewLocator(t *testing.T) {
	ctx := context.Background()

	c := testConfig()
	c.VisionProvider = ""
	if loc, err := newLocator(ctx, c); err != nil || loc != nil {
		t.Errorf("no keys: got %v, %v; want nil locator", loc, err)
	}

	c.OpenAIKey = "sk-test"
	if loc, err := newLocator(ctx, c); err != nil || loc == nil {
		t.Errorf("openai key: got %v, %v; want a locator", loc, err)
	}

	c = testConfig()
	c.VisionProvider = "gemini"
	if _, err := newLocator(ctx, c); err == nil || !strings.Contains(err.Error(), config.EnvGeminiKey) {
		t.Errorf("gemini without key: err = %v", err)
	}

	c.VisionProvider = "clippy"
	if _, err := newLocator(ctx, c); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestNewRecognizer(t *testing.T) {
	c := testConfig()
	if rec, err := newRecognizer(c); err != nil || rec != nil {
		t.Errorf("none: got %v, %v", rec, err)
	}
	c.OCRBackend = "tesseract"
	if rec, err := newRecognizer(c); err != nil || rec == nil {
		t.Errorf("tesseract: got %v, %v", rec, err)
	}
	c.OCRBackend = "openai"
	if _, err := newRecognizer(c); err == nil {
		t.Error("openai OCR without a key should fail")
	}
}

func TestNewNotion(t *testing.T) {
	c := testConfig()
	if newNotion(c) != nil {
		t.Error("no token should give no client")
	}
	c.NotionToken = "secret_x"
	if newNotion(c) == nil {
		t.Error("token should give a client")
	}
}

func TestRunPages(t *testing.T) {
	w := testWorkspace()
	useWorkspace(t, w)
	var buf bytes.Buffer
	pagesCmd.SetContext(context.Background())
	pagesCmd.SetOut(&buf)
	t.Cleanup(func() { pagesCmd.SetOut(nil) })

	if err := runPages(pagesCmd, nil); err != nil {
		t.Fatal(err)
	}
	var got []pageEntry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	want := []pageEntry{{0, "Home"}, {1, "Weekly Plan"}, {2, "Recipes"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExtract_WritesReport(t *testing.T) {
	w := testWorkspace()
	useWorkspace(t, w)
	dir := t.TempDir()
	buf := prepare(t, extractCmd, dir)

	if err := runExtract(extractCmd, []string{"Weekly Plan"}); err != nil {
		t.Fatal(err)
	}
	var got batchOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if got.Failures != 0 || len(got.Files) != 1 {
		t.Fatalf("output = %+v, want one file and no failures", got)
	}
	data, err := os.ReadFile(got.Files[0])
	if err != nil {
		t.Fatal(err)
	}
	var res model.ExtractionResult
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, b := range res.Blocks {
		texts = append(texts, b.Content)
	}
	if diff := cmp.Diff([]string{"Weekly Plan", "monday", "tuesday"}, texts); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "batch_report.json")); err != nil {
		t.Errorf("batch report missing: %v", err)
	}
	if w.Current() != "Home" {
		t.Errorf("current = %q, want Home after the batch", w.Current())
	}
}

func TestRunExtract_FailedTargetExitsNonZero(t *testing.T) {
	w := testWorkspace()
	useWorkspace(t, w)
	buf := prepare(t, extractCmd, "-")

	err := runExtract(extractCmd, []string{"Weekly Plan", "Quarterly Review"})
	if err == nil || !strings.Contains(err.Error(), "1 of 2 targets failed") {
		t.Fatalf("err = %v, want one failure reported", err)
	}
	var got batchOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if len(got.Results) != 1 || got.Failures != 1 {
		t.Errorf("results = %d, failures = %d; want 1 and 1", len(got.Results), got.Failures)
	}
	if got.Targets[1].Status != "failed" {
		t.Errorf("second target status = %q, want failed", got.Targets[1].Status)
	}
}

func TestRunExtract_NoTargets(t *testing.T) {
	useWorkspace(t, testWorkspace())
	prepare(t, extractCmd, "-")
	if err := runExtract(extractCmd, nil); err == nil {
		t.Error("expected an error without targets")
	}
}

func TestRunRows_ExtractsEachRow(t *testing.T) {
	w := synthetic.NewWorkspace("Recipes",
		&synthetic.Page{Title: "Home"},
		&synthetic.Page{Title: "Recipes", Rows: []string{"Soup", "Salad Bowl"}},
	)
	w.LoadDelay = 2
	useWorkspace(t, w)
	buf := prepare(t, rowsCmd, "-")

	if err := runRows(rowsCmd, nil); err != nil {
		t.Fatal(err)
	}
	var got batchOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	var titles []string
	for _, r := range got.Results {
		titles = append(titles, r.Title)
	}
	if diff := cmp.Diff([]string{"Soup", "Salad Bowl"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if w.Current() != "Recipes" {
		t.Errorf("current = %q, want Recipes after the batch", w.Current())
	}
}

func TestOutDir(t *testing.T) {
	prev := cfg
	cfg = testConfig()
	t.Cleanup(func() { cfg = prev })
	prepare(t, rowsCmd, "")
	if got := outDir(rowsCmd); got != cfg.OutputDir {
		t.Errorf("default = %q, want %q", got, cfg.OutputDir)
	}
	_ = rowsCmd.Flags().Set("out", "-")
	if got := outDir(rowsCmd); got != "" {
		t.Errorf("- = %q, want stdout", got)
	}
}
