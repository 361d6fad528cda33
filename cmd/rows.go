package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/acquire"
)

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Extract every row of the open collection",
	Long: `Open each row of the collection (database) shown in the current page and
extract it, returning to the collection between rows.

Rows are listed through the Notion API when a token and --collection are set,
else read from the accessibility tree of the open page.

Examples:
  desktop-extract rows --limit 10
  desktop-extract rows --collection 8e2c9a1b --out recipes/`,
	RunE: runRows,
}

func init() {
	rootCmd.AddCommand(rowsCmd)
	addBatchFlags(rowsCmd)
	rowsCmd.Flags().Int("limit", 0, "Maximum rows to extract (0 = all)")
	rowsCmd.Flags().String("collection", "", "Notion database ID (default from config)")
}

func runRows(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	collection, _ := cmd.Flags().GetString("collection")
	interactive, _ := cmd.Flags().GetBool("interactive")
	files, err := outputFiles(cmd)
	if err != nil {
		return err
	}
	if collection == "" {
		collection = cfg.NotionCollection
	}
	if limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}

	ctx := cmd.Context()
	e, err := newEngine(ctx, engineConfig(cmd), logger)
	if err != nil {
		return err
	}
	targets, err := acquire.ExpandCollection(ctx, e.itemLister(), collection, e.rows, limit)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no collection rows found")
	}

	rep, runErr := e.orchestrator(e.rows, stdinClarifier(interactive)).Run(ctx, targets)
	return finishBatch(cmd.OutOrStdout(), outDir(cmd), files, rep, runErr)
}
