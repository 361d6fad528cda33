package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/config"
	"github.com/mj1618/desktop-extract/internal/extract"
	"github.com/mj1618/desktop-extract/internal/llm"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/navigate"
	"github.com/mj1618/desktop-extract/internal/notion"
	"github.com/mj1618/desktop-extract/internal/ocr"
	"github.com/mj1618/desktop-extract/internal/output"
	"github.com/mj1618/desktop-extract/internal/platform"
	"github.com/mj1618/desktop-extract/internal/vision"
)

// newProvider attaches to the desktop app. Tests swap in a synthetic one.
var newProvider = func(c config.Config) (*platform.Provider, error) {
	return platform.NewProvider(platform.ProviderOptions{App: c.App, BundleID: c.BundleID})
}

// engine holds the components every command shares.
type engine struct {
	cfg      config.Config
	log      zerolog.Logger
	provider *platform.Provider
	ext      *extract.Extractor
	locator  vision.Locator
	api      *notion.Client

	// sidebar resolves page targets; rows resolves collection rows in the
	// content area. Both return to the baseline through the sidebar.
	sidebar *navigate.Controller
	rows    *navigate.Controller
}

func newEngine(ctx context.Context, c config.Config, log zerolog.Logger) (*engine, error) {
	p, err := newProvider(c)
	if err != nil {
		return nil, err
	}
	rec, err := newRecognizer(c)
	if err != nil {
		return nil, err
	}
	loc, err := newLocator(ctx, c)
	if err != nil {
		return nil, err
	}
	return &engine{
		cfg:      c,
		log:      log,
		provider: p,
		ext:      extract.New(p, rec, c.Extract, log),
		locator:  loc,
		api:      newNotion(c),
		sidebar:  navigate.New(p, navigate.Sidebar{}, c.Navigate, log),
		rows:     navigate.New(p, navigate.Rows{Options: c.Extract}, c.Navigate, log),
	}, nil
}

// newRecognizer picks the OCR backend. The vision-model backend needs an
// OpenAI key.
func newRecognizer(c config.Config) (ocr.Recognizer, error) {
	var vis *ocr.Vision
	if c.OpenAIKey != "" {
		vis = ocr.NewVision(llm.NewOpenAI(c.OpenAIKey, c.OpenAIBaseURL), c.OCRModel)
	}
	return ocr.New(c.OCRBackend, ocr.NewTesseract(c.TesseractPath, c.TesseractLang), vis)
}

// newLocator picks the vision model used to find targets on screenshots. With
// no provider configured the first available key decides; with no key the
// vision strategy is disabled.
func newLocator(ctx context.Context, c config.Config) (vision.Locator, error) {
	provider := c.VisionProvider
	if provider == "" {
		switch {
		case c.OpenAIKey != "":
			provider = "openai"
		case c.GeminiKey != "":
			provider = "gemini"
		default:
			provider = "none"
		}
	}
	switch provider {
	case "openai":
		if c.OpenAIKey == "" {
			return nil, fmt.Errorf("vision provider openai requires %s", config.EnvOpenAIKey)
		}
		return vision.NewOpenAILocator(llm.NewOpenAI(c.OpenAIKey, c.OpenAIBaseURL), c.VisionModel), nil
	case "gemini":
		if c.GeminiKey == "" {
			return nil, fmt.Errorf("vision provider gemini requires %s", config.EnvGeminiKey)
		}
		client, err := vision.NewGeminiClient(ctx, c.GeminiKey)
		if err != nil {
			return nil, err
		}
		return vision.NewGeminiLocator(client, c.VisionModel), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q (expected openai, gemini, or none)", provider)
	}
}

// newNotion returns the API client, or nil without a token. Tests swap in
// one pointing at a test server.
var newNotion = func(c config.Config) *notion.Client {
	if c.NotionToken == "" {
		return nil
	}
	var opts []notion.Option
	if c.NotionRPS > 0 {
		opts = append(opts, notion.WithRateLimit(c.NotionRPS))
	}
	return notion.New(c.NotionToken, opts...)
}

// orchestrator builds the cascade resolving targets through nav.
func (e *engine) orchestrator(nav *navigate.Controller, clarifier acquire.Clarifier) *acquire.Orchestrator {
	structured := &acquire.StructuredStrategy{}
	if e.api != nil {
		structured.API = e.api
	}
	strategies := []acquire.Strategy{
		structured,
		&acquire.AccessibilityStrategy{Nav: nav, Extractor: e.ext},
		acquire.NewVisionStrategy(e.provider, e.locator, e.ext, e.cfg.VisionOptions(), e.log),
	}
	return acquire.New(strategies, nav, clarifier, e.log)
}

// itemLister returns the API as a lister, or nil without a token.
func (e *engine) itemLister() acquire.ItemLister {
	if e.api == nil {
		return nil
	}
	return e.api
}

// buildTargets turns names, sidebar indexes and page IDs into targets, in
// that order.
func buildTargets(names []string, indexes []int, ids []string) []model.NavigationTarget {
	var targets []model.NavigationTarget
	for _, n := range names {
		targets = append(targets, model.NamedTarget(n))
	}
	for _, i := range indexes {
		targets = append(targets, model.IndexTarget(i))
	}
	for _, id := range ids {
		targets = append(targets, model.NavigationTarget{ID: id})
	}
	return targets
}

// nameByID fills in the page title of ID-only targets so the fallback
// strategies have a name to navigate to. Lookup failures are logged and
// leave the target as is.
func (e *engine) nameByID(ctx context.Context, targets []model.NavigationTarget) {
	if e.api == nil {
		return
	}
	for i := range targets {
		t := &targets[i]
		if t.ID == "" || t.Name != "" {
			continue
		}
		title, err := e.api.PageTitle(ctx, t.ID)
		if err != nil {
			e.log.Warn().Err(err).Str("id", t.ID).Msg("could not look up page title")
			continue
		}
		t.Name = title
	}
}

// idByName looks up the page ID of named targets without one, so the
// structured strategy can serve them. Misses and failures are logged and
// leave the target as is.
func (e *engine) idByName(ctx context.Context, targets []model.NavigationTarget) {
	if e.api == nil {
		return
	}
	for i := range targets {
		t := &targets[i]
		if t.Name == "" || t.ID != "" {
			continue
		}
		id, err := e.api.FindPage(ctx, t.Name)
		switch {
		case err != nil:
			e.log.Warn().Err(err).Str("target", t.Name).Msg("could not look up page id")
		case id == "":
			e.log.Debug().Str("target", t.Name).Msg("no page with this title in the API")
		default:
			t.ID = id
		}
	}
}

// batchOutput is printed after a batch run.
type batchOutput struct {
	RunID    string                    `yaml:"run_id"            json:"run_id"`
	Files    []string                  `yaml:"files,omitempty"   json:"files,omitempty"`
	Results  []*model.ExtractionResult `yaml:"results,omitempty" json:"results,omitempty"`
	Targets  []acquire.TargetStatus    `yaml:"targets"           json:"targets"`
	Failures int                       `yaml:"failures"          json:"failures"`
}

// finishBatch writes the report to dir in the selected file formats, or
// prints the results when dir is empty, and turns failures into a non-zero
// exit.
func finishBatch(w io.Writer, dir string, files output.Files, rep *acquire.Report, runErr error) error {
	if rep == nil {
		return runErr
	}
	out := batchOutput{RunID: rep.RunID, Targets: rep.Targets, Failures: len(rep.Failures())}
	if dir != "" {
		sum, err := output.WriteReport(dir, rep, files)
		if err != nil {
			return err
		}
		out.Files = sum.Files
	} else {
		out.Results = rep.Results
	}
	if err := output.Fprint(w, out); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if out.Failures > 0 {
		return fmt.Errorf("%d of %d targets failed", out.Failures, len(rep.Targets))
	}
	return nil
}

// stdinClarifier asks on the terminal when --interactive is set.
func stdinClarifier(interactive bool) acquire.Clarifier {
	if !interactive {
		return nil
	}
	return acquire.NewPromptClarifier(os.Stdin, os.Stderr)
}
