//go:build darwin && cgo

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation -framework Foundation -framework AppKit
#include <ApplicationServices/ApplicationServices.h>
#import <AppKit/AppKit.h>
#include <stdlib.h>

static pid_t ax_find_pid(const char *name, const char *bundle) {
    pid_t found = 0;
    @autoreleasepool {
        NSArray *apps = [[NSWorkspace sharedWorkspace] runningApplications];
        NSString *n = [NSString stringWithUTF8String:name];
        NSString *b = [NSString stringWithUTF8String:bundle];
        for (NSRunningApplication *app in apps) {
            if (b.length > 0 && [app.bundleIdentifier isEqualToString:b]) {
                found = app.processIdentifier;
                break;
            }
        }
        if (found == 0 && n.length > 0) {
            for (NSRunningApplication *app in apps) {
                if (app.localizedName && [app.localizedName caseInsensitiveCompare:n] == NSOrderedSame) {
                    found = app.processIdentifier;
                    break;
                }
            }
        }
    }
    return found;
}

// Focused window, else main window, of pid (+1 retained) or NULL.
static AXUIElementRef ax_window(pid_t pid) {
    AXUIElementRef app = AXUIElementCreateApplication(pid);
    if (!app) return NULL;
    CFTypeRef win = NULL;
    if (AXUIElementCopyAttributeValue(app, kAXFocusedWindowAttribute, &win) != kAXErrorSuccess || !win) {
        win = NULL;
        if (AXUIElementCopyAttributeValue(app, kAXMainWindowAttribute, &win) != kAXErrorSuccess) win = NULL;
    }
    CFRelease(app);
    return (AXUIElementRef)win;
}

static char *cf_to_cstring(CFStringRef s) {
    CFIndex len = CFStringGetMaximumSizeForEncoding(CFStringGetLength(s), kCFStringEncodingUTF8) + 1;
    char *out = malloc(len);
    if (!CFStringGetCString(s, out, len, kCFStringEncodingUTF8)) {
        free(out);
        return NULL;
    }
    return out;
}

// String or number attribute as malloc'd UTF-8, or NULL when absent.
static char *ax_string_attr(AXUIElementRef el, const char *name) {
    CFStringRef attr = CFStringCreateWithCString(NULL, name, kCFStringEncodingUTF8);
    CFTypeRef v = NULL;
    AXError err = AXUIElementCopyAttributeValue(el, attr, &v);
    CFRelease(attr);
    if (err != kAXErrorSuccess || !v) return NULL;
    char *out = NULL;
    if (CFGetTypeID(v) == CFStringGetTypeID()) {
        out = cf_to_cstring((CFStringRef)v);
    } else if (CFGetTypeID(v) == CFNumberGetTypeID()) {
        double d = 0;
        CFNumberGetValue((CFNumberRef)v, kCFNumberDoubleType, &d);
        out = malloc(64);
        snprintf(out, 64, "%g", d);
    }
    CFRelease(v);
    return out;
}

static int ax_frame(AXUIElementRef el, double *x, double *y, double *w, double *h) {
    CFTypeRef pos = NULL, size = NULL;
    if (AXUIElementCopyAttributeValue(el, kAXPositionAttribute, &pos) != kAXErrorSuccess || !pos) return -1;
    if (AXUIElementCopyAttributeValue(el, kAXSizeAttribute, &size) != kAXErrorSuccess || !size) {
        CFRelease(pos);
        return -1;
    }
    CGPoint p = CGPointZero;
    CGSize s = CGSizeZero;
    AXValueGetValue((AXValueRef)pos, kAXValueCGPointType, &p);
    AXValueGetValue((AXValueRef)size, kAXValueCGSizeType, &s);
    CFRelease(pos);
    CFRelease(size);
    *x = p.x; *y = p.y; *w = s.width; *h = s.height;
    return 0;
}

// Action names joined by newlines (malloc'd), or NULL.
static char *ax_actions(AXUIElementRef el) {
    CFArrayRef names = NULL;
    if (AXUIElementCopyActionNames(el, &names) != kAXErrorSuccess || !names) return NULL;
    CFStringRef joined = CFStringCreateByCombiningStrings(NULL, names, CFSTR("\n"));
    CFRelease(names);
    if (!joined) return NULL;
    char *out = cf_to_cstring(joined);
    CFRelease(joined);
    return out;
}

static CFArrayRef ax_children(AXUIElementRef el) {
    CFTypeRef v = NULL;
    if (AXUIElementCopyAttributeValue(el, kAXChildrenAttribute, &v) != kAXErrorSuccess || !v) return NULL;
    if (CFGetTypeID(v) != CFArrayGetTypeID()) {
        CFRelease(v);
        return NULL;
    }
    return (CFArrayRef)v;
}

static long ax_array_count(CFArrayRef a) { return a ? CFArrayGetCount(a) : 0; }

static AXUIElementRef ax_array_at(CFArrayRef a, long i) {
    return (AXUIElementRef)CFRetain(CFArrayGetValueAtIndex(a, i));
}

static int ax_perform(AXUIElementRef el, const char *action) {
    CFStringRef a = CFStringCreateWithCString(NULL, action, kCFStringEncodingUTF8);
    AXError err = AXUIElementPerformAction(el, a);
    CFRelease(a);
    return (int)err;
}

static AXUIElementRef ax_vertical_scroll_bar(AXUIElementRef el) {
    CFTypeRef bar = NULL;
    if (AXUIElementCopyAttributeValue(el, kAXVerticalScrollBarAttribute, &bar) != kAXErrorSuccess) return NULL;
    return (AXUIElementRef)bar;
}

// Scroll bar value in [0,1], or -1 when the area has no vertical scroll bar.
static double ax_scroll_position(AXUIElementRef el) {
    AXUIElementRef bar = ax_vertical_scroll_bar(el);
    if (!bar) return -1;
    CFTypeRef v = NULL;
    double d = -1;
    if (AXUIElementCopyAttributeValue(bar, kAXValueAttribute, &v) == kAXErrorSuccess && v) {
        if (CFGetTypeID(v) == CFNumberGetTypeID()) CFNumberGetValue((CFNumberRef)v, kCFNumberDoubleType, &d);
        CFRelease(v);
    }
    CFRelease(bar);
    return d;
}

static int ax_set_scroll_position(AXUIElementRef el, double pos) {
    AXUIElementRef bar = ax_vertical_scroll_bar(el);
    if (!bar) return -1;
    CFNumberRef n = CFNumberCreate(NULL, kCFNumberDoubleType, &pos);
    AXError err = AXUIElementSetAttributeValue(bar, kAXValueAttribute, n);
    CFRelease(n);
    CFRelease(bar);
    return (int)err;
}

static void ax_release(AXUIElementRef el) {
    if (el) CFRelease(el);
}

static void cf_release_array(CFArrayRef a) {
    if (a) CFRelease(a);
}
*/
import "C"

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/mj1618/desktop-extract/internal/model"
)

const kAXErrorActionUnsupported = -25206

// Tree implements platform.Tree over the macOS Accessibility API. Element
// handles are kept in a registry keyed by NodeRef and released on
// Invalidate, which the serialization guard calls after every mutation.
type Tree struct {
	app      string
	bundleID string

	mu      sync.Mutex
	pid     C.pid_t
	handles map[model.NodeRef]C.AXUIElementRef
	next    model.NodeRef
}

// NewTree attaches to the running application named app (or with the given
// bundle identifier).
func NewTree(app, bundleID string) (*Tree, error) {
	t := &Tree{app: app, bundleID: bundleID, handles: make(map[model.NodeRef]C.AXUIElementRef)}
	if err := t.resolvePID(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) resolvePID() error {
	cName := C.CString(t.app)
	defer C.free(unsafe.Pointer(cName))
	cBundle := C.CString(t.bundleID)
	defer C.free(unsafe.Pointer(cBundle))
	pid := C.ax_find_pid(cName, cBundle)
	if pid == 0 {
		return fmt.Errorf("application %q is not running", t.app)
	}
	t.pid = pid
	return nil
}

// Invalidate releases every registered handle.
func (t *Tree) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, h := range t.handles {
		C.ax_release(h)
	}
	t.handles = make(map[model.NodeRef]C.AXUIElementRef)
	t.next = 0
}

func (t *Tree) register(el C.AXUIElementRef) model.NodeRef {
	t.next++
	t.handles[t.next] = el
	return t.next
}

func (t *Tree) handle(ref model.NodeRef) (C.AXUIElementRef, error) {
	el, ok := t.handles[ref]
	if !ok {
		return el, fmt.Errorf("no element for ref %d: %w", ref, model.ErrStaleTreeReference)
	}
	return el, nil
}

func stringAttr(el C.AXUIElementRef, name string) (string, bool) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	cs := C.ax_string_attr(el, cName)
	if cs == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(cs))
	return C.GoString(cs), true
}

func frameOf(el C.AXUIElementRef) (model.Bounds, bool) {
	var x, y, w, h C.double
	if C.ax_frame(el, &x, &y, &w, &h) != 0 {
		return model.Bounds{}, false
	}
	return model.Bounds{X: int(x), Y: int(y), Width: int(w), Height: int(h)}, true
}

func actionsOf(el C.AXUIElementRef) []string {
	cs := C.ax_actions(el)
	if cs == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(cs))
	s := C.GoString(cs)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// snapshot builds a node for a registered element. Caller holds mu.
func (t *Tree) snapshot(ref model.NodeRef, el C.AXUIElementRef) model.Node {
	role, _ := stringAttr(el, "AXRole")
	frame, _ := frameOf(el)
	n := model.NewNode(ref, role, frame, actionsOf(el))

	title, _ := stringAttr(el, model.AttrTitle)
	value, _ := stringAttr(el, model.AttrValue)
	desc, _ := stringAttr(el, "AXDescription")
	if title != "" || value != "" || desc != "" {
		n.Text = &model.TextAttrs{Value: value, Title: title, Description: desc}
	}
	if n.Role == "scroll" {
		pos := float64(C.ax_scroll_position(el))
		n.Scroll = &model.ScrollAttrs{Position: pos, HasPosition: pos >= 0}
	}
	return n
}

// Application returns the focused (or main) window of the target app.
func (t *Tree) Application() (model.Node, error) {
	if !IsAccessibilityTrusted() {
		return model.Node{}, model.PermissionError("reading application tree")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	win := C.ax_window(t.pid)
	if win == 0 {
		// The app may have been relaunched.
		if err := t.resolvePID(); err != nil {
			return model.Node{}, err
		}
		if win = C.ax_window(t.pid); win == 0 {
			return model.Node{}, fmt.Errorf("application %q has no window", t.app)
		}
	}
	ref := t.register(win)
	return t.snapshot(ref, win), nil
}

// Children returns snapshots of the element's children.
func (t *Tree) Children(ref model.NodeRef) ([]model.Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, err := t.handle(ref)
	if err != nil {
		return nil, err
	}
	arr := C.ax_children(el)
	defer C.cf_release_array(arr)
	count := int(C.ax_array_count(arr))
	out := make([]model.Node, 0, count)
	for i := 0; i < count; i++ {
		child := C.ax_array_at(arr, C.long(i))
		out = append(out, t.snapshot(t.register(child), child))
	}
	return out, nil
}

// Attribute reads one attribute. AXScrollPosition is synthesized from the
// vertical scroll bar.
func (t *Tree) Attribute(ref model.NodeRef, name string) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, err := t.handle(ref)
	if err != nil {
		return "", false, err
	}
	if name == model.AttrScrollPosition {
		pos := float64(C.ax_scroll_position(el))
		if pos < 0 {
			return "", false, nil
		}
		return strconv.FormatFloat(pos, 'f', 4, 64), true, nil
	}
	v, ok := stringAttr(el, name)
	return v, ok, nil
}

// Frame returns the element's screen rectangle.
func (t *Tree) Frame(ref model.NodeRef) (model.Bounds, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, err := t.handle(ref)
	if err != nil {
		return model.Bounds{}, err
	}
	b, ok := frameOf(el)
	if !ok {
		return model.Bounds{}, fmt.Errorf("element %d has no frame", ref)
	}
	return b, nil
}

// PerformAction invokes an AX action. AXScrollToTop falls back to resetting
// the vertical scroll bar when the element does not support it natively.
func (t *Tree) PerformAction(ref model.NodeRef, action string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	el, err := t.handle(ref)
	if err != nil {
		return err
	}
	cAction := C.CString(action)
	defer C.free(unsafe.Pointer(cAction))
	rc := int(C.ax_perform(el, cAction))
	if rc == kAXErrorActionUnsupported && action == model.ActionScrollToTop {
		rc = int(C.ax_set_scroll_position(el, 0))
	}
	if rc != 0 {
		return fmt.Errorf("action %s failed (AXError %d)", action, rc)
	}
	return nil
}

// IsTrusted reports whether the process holds accessibility permission.
func (t *Tree) IsTrusted() bool {
	return IsAccessibilityTrusted()
}
