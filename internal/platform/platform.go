package platform

import "github.com/mj1618/desktop-extract/internal/model"

// Tree reads and acts on the OS accessibility tree of the target application.
// Node refs handed out by a Tree become stale after any UI-mutating call.
type Tree interface {
	// Application returns the top-level element (the app's main window).
	Application() (model.Node, error)

	// Children returns snapshots of the direct children of ref.
	Children(ref model.NodeRef) ([]model.Node, error)

	// Attribute reads a single attribute. ok is false when the element does
	// not expose it.
	Attribute(ref model.NodeRef, name string) (value string, ok bool, err error)

	// Frame returns the element's on-screen rectangle.
	Frame(ref model.NodeRef) (model.Bounds, error)

	// PerformAction invokes an accessibility action such as AXPress.
	PerformAction(ref model.NodeRef, action string) error

	// IsTrusted reports whether the process holds accessibility permission.
	IsTrusted() bool
}

// Inputter simulates mouse and keyboard input.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	Scroll(x, y int, dx, dy int) error
	KeyCombo(keys []string) error
}

// Screenshotter captures screen regions.
type Screenshotter interface {
	// CaptureRegion returns a PNG of the given screen rectangle.
	CaptureRegion(region model.Bounds) ([]byte, error)
}
