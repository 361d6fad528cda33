package model

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is returned when the process lacks accessibility
// permission. It is the only fatal error: callers must surface it instead of
// retrying.
var ErrPermissionDenied = errors.New("accessibility permission denied")

// Recoverable failures. The orchestrator folds these into per-target status.
var (
	ErrNoContentArea      = errors.New("no content area")
	ErrTargetNotFound     = errors.New("target not found")
	ErrLoadTimeout        = errors.New("load timeout")
	ErrOCRFailure         = errors.New("ocr failure")
	ErrStaleTreeReference = errors.New("stale tree reference")
)

// PermissionRemediation is shown to users when ErrPermissionDenied surfaces.
const PermissionRemediation = "Grant permission at: System Settings > Privacy & Security > Accessibility\n" +
	"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n" +
	"Then restart the terminal and try again."

// PermissionError wraps ErrPermissionDenied with remediation text.
func PermissionError(what string) error {
	return fmt.Errorf("%w: %s\n\n%s", ErrPermissionDenied, what, PermissionRemediation)
}

// IsFatal reports whether err must abort processing rather than be recorded
// against a single target.
func IsFatal(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
