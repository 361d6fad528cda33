package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/config"
	"github.com/mj1618/desktop-extract/internal/output"
)

var extractCmd = &cobra.Command{
	Use:   "extract [page names...]",
	Short: "Navigate to pages and extract their content",
	Long: `Navigate to each target and extract the page content as ordered blocks.

Targets are page names (fuzzy-matched against the sidebar), sidebar positions
(--index), Notion page IDs (--id), or every sidebar page (--all). Each target
runs the strategy cascade: the Notion API when a token is configured and the
page ID is given or found by title, then the accessibility tree, then a
vision model over a screenshot. A failed target is recorded and the batch
continues.

Examples:
  desktop-extract extract "Weekly Plan" Recipes
  desktop-extract extract --index 0 --index 2 --out notes/
  desktop-extract extract --all --output both --no-ocr
  desktop-extract extract --id 1a2b3c4d5e6f --out -`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addBatchFlags(extractCmd)
	extractCmd.Flags().IntSlice("index", nil, "Sidebar position of a page (repeatable, 0-based)")
	extractCmd.Flags().StringSlice("id", nil, "Notion page ID (repeatable)")
	extractCmd.Flags().Bool("all", false, "Extract every page in the sidebar")
}

// addBatchFlags adds the flags shared by extract and rows.
func addBatchFlags(cmd *cobra.Command) {
	addOutputFlags(cmd)
	cmd.Flags().BoolP("interactive", "i", false, "Ask for a replacement target when every strategy fails")
	cmd.Flags().Bool("no-ocr", false, "Skip OCR of images and canvases")
}

// addOutputFlags adds the flags choosing where and how results are written.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", "", "Output directory (default from config; - prints results instead)")
	cmd.Flags().String("output", "json", "Files to write per result: json, csv, both")
}

// outputFiles parses --output.
func outputFiles(cmd *cobra.Command) (output.Files, error) {
	s, _ := cmd.Flags().GetString("output")
	return output.ParseFiles(s)
}

// engineConfig is the configuration with the command's overrides applied.
func engineConfig(cmd *cobra.Command) config.Config {
	c := cfg
	if noOCR, _ := cmd.Flags().GetBool("no-ocr"); noOCR {
		c.OCRBackend = "none"
	}
	return c
}

// outDir resolves --out against the configured output directory. "-" means
// print to stdout.
func outDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("out")
	switch dir {
	case "":
		return cfg.OutputDir
	case "-":
		return ""
	default:
		return dir
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	indexes, _ := cmd.Flags().GetIntSlice("index")
	ids, _ := cmd.Flags().GetStringSlice("id")
	all, _ := cmd.Flags().GetBool("all")
	interactive, _ := cmd.Flags().GetBool("interactive")
	files, err := outputFiles(cmd)
	if err != nil {
		return err
	}

	targets := buildTargets(args, indexes, ids)
	switch {
	case all && len(targets) > 0:
		return fmt.Errorf("--all cannot be combined with page names, --index, or --id")
	case !all && len(targets) == 0:
		return fmt.Errorf("give at least one page name, --index, --id, or --all")
	}

	ctx := cmd.Context()
	e, err := newEngine(ctx, engineConfig(cmd), logger)
	if err != nil {
		return err
	}
	if all {
		names, err := e.sidebar.Pages()
		if err != nil {
			return err
		}
		if targets = acquire.ListTargets(names, 0); len(targets) == 0 {
			return fmt.Errorf("no pages in the sidebar")
		}
	}
	e.nameByID(ctx, targets)
	e.idByName(ctx, targets)

	rep, runErr := e.orchestrator(e.sidebar, stdinClarifier(interactive)).Run(ctx, targets)
	return finishBatch(cmd.OutOrStdout(), outDir(cmd), files, rep, runErr)
}
