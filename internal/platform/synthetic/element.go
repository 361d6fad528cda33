// Package synthetic is an in-memory accessibility tree with the same
// contract as the macOS backend. Scroll areas clip and shift their
// descendants, presses and clicks run hooks, and screenshots encode the
// visible text so recognizers can be faked deterministically.
package synthetic

import "github.com/mj1618/desktop-extract/internal/model"

// Element is one node of a synthetic tree. Frames are in layout coordinates:
// the screen position the element would have if every enclosing scroll area
// were scrolled to the top.
type Element struct {
	AXRole      string
	Frame       model.Bounds
	Title       string
	Value       string
	Description string
	Actions     []string
	Children    []*Element

	// OCRText is text painted inside an element that exposes none.
	OCRText string

	// OnPress runs when AXPress is performed on the element or a click
	// lands inside it.
	OnPress func(app *App)

	// Offset is the current scroll offset of a scroll area. PageStep is the
	// distance moved by one AXScrollDownByPage; zero means the area height.
	Offset         int
	PageStep       int
	ExposePosition bool

	id     int
	parent *Element
}

func (e *Element) isScroll() bool {
	return e.AXRole == "AXScrollArea"
}

// Add appends children and returns e.
func (e *Element) Add(kids ...*Element) *Element {
	e.Children = append(e.Children, kids...)
	return e
}

// Window builds a top-level window.
func Window(title string, frame model.Bounds, kids ...*Element) *Element {
	return &Element{AXRole: "AXWindow", Title: title, Frame: frame, Actions: []string{model.ActionRaise}, Children: kids}
}

// Group builds a plain container.
func Group(frame model.Bounds, kids ...*Element) *Element {
	return &Element{AXRole: "AXGroup", Frame: frame, Children: kids}
}

// ScrollArea builds a scrollable container.
func ScrollArea(frame model.Bounds, kids ...*Element) *Element {
	return &Element{
		AXRole:   "AXScrollArea",
		Frame:    frame,
		Actions:  []string{model.ActionScrollDown, model.ActionScrollToTop},
		Children: kids,
	}
}

// Text builds a static text element.
func Text(frame model.Bounds, value string) *Element {
	return &Element{AXRole: "AXStaticText", Frame: frame, Value: value}
}

// Heading builds a heading element.
func Heading(frame model.Bounds, title string) *Element {
	return &Element{AXRole: "AXHeading", Frame: frame, Title: title}
}

// Link builds a pressable link.
func Link(frame model.Bounds, title string, onPress func(*App)) *Element {
	return &Element{AXRole: "AXLink", Frame: frame, Title: title, Actions: []string{model.ActionPress}, OnPress: onPress}
}

// Row builds a collection row.
func Row(frame model.Bounds, title string, onPress func(*App), kids ...*Element) *Element {
	return &Element{AXRole: "AXRow", Frame: frame, Title: title, Actions: []string{model.ActionPress}, OnPress: onPress, Children: kids}
}

// Image builds an element that exposes no text but paints ocrText.
func Image(frame model.Bounds, ocrText string) *Element {
	return &Element{AXRole: "AXImage", Frame: frame, OCRText: ocrText}
}

// Progress builds a loading indicator.
func Progress(frame model.Bounds) *Element {
	return &Element{AXRole: "AXProgressIndicator", Frame: frame}
}
