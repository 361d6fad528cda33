package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/output"
)

var checkPermissionsCmd = &cobra.Command{
	Use:   "check-permissions",
	Short: "Check accessibility permission and that the app is running",
	Long: `Report whether this process holds macOS accessibility permission and whether
the target application has a window to read. Exits 2 without permission.`,
	RunE: runCheckPermissions,
}

func init() {
	rootCmd.AddCommand(checkPermissionsCmd)
}

// permissionReport is printed by check-permissions.
type permissionReport struct {
	Trusted  bool   `yaml:"accessibility_trusted" json:"accessibility_trusted"`
	App      string `yaml:"app"                   json:"app"`
	AppFound bool   `yaml:"app_found"             json:"app_found"`
	Error    string `yaml:"error,omitempty"       json:"error,omitempty"`
}

func runCheckPermissions(cmd *cobra.Command, args []string) error {
	rep := permissionReport{App: cfg.App}
	p, err := newProvider(cfg)
	switch {
	case errors.Is(err, model.ErrPermissionDenied):
	case err != nil:
		// Attaching checks permission first, so any other failure means the
		// app was not found.
		rep.Trusted = true
		rep.Error = err.Error()
	default:
		rep.Trusted = p.Tree.IsTrusted()
		if _, aerr := p.Tree.Application(); aerr != nil {
			rep.Error = aerr.Error()
		} else {
			rep.AppFound = true
		}
	}
	if err := output.Fprint(cmd.OutOrStdout(), rep); err != nil {
		return err
	}
	switch {
	case !rep.Trusted:
		return model.PermissionError("accessibility permission required")
	case !rep.AppFound:
		return fmt.Errorf("%s has no window to read: %s", rep.App, rep.Error)
	}
	return nil
}
