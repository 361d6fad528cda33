package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/output"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the pages in the sidebar",
	Long:  "List the page names in the app's sidebar, top to bottom. Use the position with extract --index.",
	RunE:  runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}

// pageEntry is one sidebar page.
type pageEntry struct {
	Index int    `yaml:"index" json:"index"`
	Name  string `yaml:"name"  json:"name"`
}

func runPages(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	names, err := e.sidebar.Pages()
	if err != nil {
		return err
	}
	entries := make([]pageEntry, len(names))
	for i, n := range names {
		entries[i] = pageEntry{Index: i, Name: n}
	}
	return output.Fprint(cmd.OutOrStdout(), entries)
}
