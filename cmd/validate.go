package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/config"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/output"
	"github.com/mj1618/desktop-extract/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <page name>",
	Short: "Compare an accessibility extraction with the Notion API",
	Long: `Read a page through the Notion API as the baseline, then navigate to it and
extract it from the accessibility tree, and score the extraction: recall of
baseline blocks, precision of extracted blocks, and the similarity of matched
text. Needs a Notion token. The page ID is looked up by title unless --id is
given.

Examples:
  desktop-extract validate "Weekly Plan"
  desktop-extract validate Recipes --id 1a2b3c4d --output both
  desktop-extract validate Recipes --min-accuracy 0.9 --out -`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addOutputFlags(validateCmd)
	validateCmd.Flags().String("id", "", "Notion page ID (default: found by title)")
	validateCmd.Flags().Float64("threshold", validate.DefaultThreshold, "Minimum text similarity for two blocks to match")
	validateCmd.Flags().Float64("min-accuracy", 0, "Fail when accuracy is below this fraction (0 = never)")
	validateCmd.Flags().Bool("no-ocr", false, "Skip OCR of images and canvases")
}

// validateOutput is printed after a validation.
type validateOutput struct {
	PageID     string               `yaml:"page_id"         json:"page_id"`
	Summary    string               `yaml:"summary"         json:"summary"`
	Files      []string             `yaml:"files,omitempty" json:"files,omitempty"`
	Comparison *validate.Comparison `yaml:"comparison,omitempty" json:"comparison,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	name := args[0]
	id, _ := cmd.Flags().GetString("id")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	minAccuracy, _ := cmd.Flags().GetFloat64("min-accuracy")
	files, err := outputFiles(cmd)
	if err != nil {
		return err
	}
	if threshold <= 0 || threshold > 1 {
		return fmt.Errorf("--threshold must be in (0, 1]")
	}

	ctx := cmd.Context()
	e, err := newEngine(ctx, engineConfig(cmd), logger)
	if err != nil {
		return err
	}
	if e.api == nil {
		return fmt.Errorf("validate needs a Notion token (%s or notion.token in the config)", config.EnvNotionToken)
	}
	if id == "" {
		if id, err = e.api.FindPage(ctx, name); err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("no page titled %q in the Notion API: %w", name, model.ErrTargetNotFound)
		}
		e.log.Info().Str("page", name).Str("id", id).Msg("found page")
	}

	baseline, err := e.api.Extract(ctx, id)
	if err != nil {
		return fmt.Errorf("reading baseline: %w", err)
	}
	e.log.Info().Int("blocks", len(baseline.Blocks)).Msg("read baseline")

	ax := acquire.New([]acquire.Strategy{&acquire.AccessibilityStrategy{Nav: e.sidebar, Extractor: e.ext}}, e.sidebar, nil, e.log)
	rep, err := ax.Run(ctx, []model.NavigationTarget{model.NamedTarget(name)})
	if err != nil {
		return err
	}
	if len(rep.Results) == 0 {
		return fmt.Errorf("extracting %q: %v", name, rep.Targets[0].Errors)
	}

	c := validate.Compare(baseline, rep.Results[0], threshold)
	e.log.Info().Float64("accuracy", c.Accuracy).Int("missing", len(c.Missing)).Int("extra", len(c.Extra)).Msg("compared")

	out := validateOutput{PageID: id, Summary: c.Summary(), Comparison: c}
	if dir := outDir(cmd); dir != "" {
		if out.Files, err = output.WriteComparison(dir, c, files); err != nil {
			return err
		}
		out.Comparison = nil
	}
	if err := output.Fprint(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if c.Accuracy < minAccuracy {
		return fmt.Errorf("accuracy %.1f%% is below %.1f%%", c.Accuracy*100, minAccuracy*100)
	}
	return nil
}
