//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation
#include <ApplicationServices/ApplicationServices.h>

static int is_trusted() {
    return AXIsProcessTrusted();
}
*/
import "C"

import "github.com/mj1618/desktop-extract/internal/model"

// CheckAccessibilityPermission checks if the process has macOS accessibility permission.
// Returns model.ErrPermissionDenied with remediation text if permission is not granted.
func CheckAccessibilityPermission() error {
	if C.is_trusted() == 0 {
		return model.PermissionError("accessibility permission required")
	}
	return nil
}

// IsAccessibilityTrusted returns true if the process has accessibility permission.
func IsAccessibilityTrusted() bool {
	return C.is_trusted() != 0
}
