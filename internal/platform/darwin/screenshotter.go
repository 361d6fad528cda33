//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ImageIO
#include <CoreGraphics/CoreGraphics.h>
#include <ImageIO/ImageIO.h>

static int cg_check_screen_recording() {
    return CGPreflightScreenCaptureAccess();
}

// Returns PNG data (+1 retained) or NULL.
static CFDataRef cg_capture_png(double x, double y, double w, double h) {
    CGImageRef img = CGWindowListCreateImage(CGRectMake(x, y, w, h),
        kCGWindowListOptionOnScreenOnly, kCGNullWindowID, kCGWindowImageBestResolution);
    if (!img) return NULL;
    CFMutableDataRef data = CFDataCreateMutable(NULL, 0);
    CGImageDestinationRef dest = CGImageDestinationCreateWithData(data, CFSTR("public.png"), 1, NULL);
    if (!dest) {
        CGImageRelease(img);
        CFRelease(data);
        return NULL;
    }
    CGImageDestinationAddImage(dest, img, NULL);
    bool ok = CGImageDestinationFinalize(dest);
    CFRelease(dest);
    CGImageRelease(img);
    if (!ok) {
        CFRelease(data);
        return NULL;
    }
    return data;
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/mj1618/desktop-extract/internal/model"
)

// CheckScreenRecordingPermission checks if the process has macOS screen recording permission.
func CheckScreenRecordingPermission() error {
	if C.cg_check_screen_recording() == 0 {
		return fmt.Errorf(
			"screen recording permission required\n\n" +
				"Grant permission at: System Settings > Privacy & Security > Screen Recording\n" +
				"Add your terminal app (e.g. Terminal.app, iTerm2, or the IDE running this command).\n" +
				"Then restart the terminal and try again.")
	}
	return nil
}

// DarwinScreenshotter implements platform.Screenshotter for macOS.
type DarwinScreenshotter struct{}

// NewScreenshotter creates a new macOS screenshotter.
func NewScreenshotter() *DarwinScreenshotter {
	return &DarwinScreenshotter{}
}

// CaptureRegion captures a screen rectangle as PNG.
func (s *DarwinScreenshotter) CaptureRegion(region model.Bounds) ([]byte, error) {
	if err := CheckScreenRecordingPermission(); err != nil {
		return nil, err
	}
	if region.Area() == 0 {
		return nil, fmt.Errorf("empty capture region %v", region.Array())
	}
	data := C.cg_capture_png(C.double(region.X), C.double(region.Y), C.double(region.Width), C.double(region.Height))
	if data == 0 {
		return nil, fmt.Errorf("failed to capture region %v", region.Array())
	}
	defer C.CFRelease(C.CFTypeRef(data))
	n := C.CFDataGetLength(data)
	return C.GoBytes(unsafe.Pointer(C.CFDataGetBytePtr(data)), C.int(n)), nil
}
