package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/config"
	"github.com/mj1618/desktop-extract/internal/logging"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/output"
	"github.com/mj1618/desktop-extract/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "desktop-extract",
	Short: "Extract page content from the Notion desktop app",
	Long: `Navigate the Notion desktop app through the macOS accessibility tree and
extract page content as ordered blocks. Pages are read through the Notion API
when a token and page ID are available, then through the accessibility tree,
then by locating the target on a screenshot with a vision model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Resolved by the root command before any subcommand runs.
var (
	cfg    config.Config
	logger zerolog.Logger
)

// Execute runs the root command. Errors are printed once; permission
// denial exits 2, any other failure 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, model.ErrPermissionDenied) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "", "Output format: yaml, json (default from config, else yaml)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/desktop-extract/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().String("app", "", "Application name to attach to (default Notion)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		flags := rootCmd.PersistentFlags()
		verbose, _ := flags.GetBool("verbose")
		logger = logging.New(os.Stderr, verbose)

		path, _ := flags.GetString("config")
		explicit := path != ""
		if !explicit {
			path = config.DefaultPath()
		}
		c, err := config.Load(path, explicit)
		if err != nil {
			return err
		}
		if app, _ := flags.GetString("app"); app != "" {
			c.App = app
			c.BundleID = ""
			c.Extract.AppName = app
			c.Navigate.AppName = app
		}
		cfg = c

		// The root persistent flag wins over the config file.
		format, _ := flags.GetString("format")
		if format == "" {
			format = cfg.Format
		}
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = flags.GetBool("pretty")
		return nil
	}
}
