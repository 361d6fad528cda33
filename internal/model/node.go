package model

import "strings"

// NodeRef is an opaque handle to an accessibility element. A ref is only
// valid until the next UI-mutating action; after that every lookup through it
// fails with ErrStaleTreeReference.
type NodeRef uint64

// Node is a read-only snapshot of one accessibility element.
//
// Role-specific attributes are explicit optional fields: Text is set only for
// text-bearing roles and Scroll only for scroll areas.
type Node struct {
	Ref     NodeRef  `json:"-"`
	Role    string   `json:"r"`
	AXRole  string   `json:"ax,omitempty"`
	Frame   Bounds   `json:"b"`
	Actions []string `json:"a,omitempty"`

	Text   *TextAttrs   `json:"text,omitempty"`
	Scroll *ScrollAttrs `json:"scroll,omitempty"`
}

// TextAttrs holds the string attributes of a text-bearing element.
type TextAttrs struct {
	Value       string `json:"v,omitempty"`
	Title       string `json:"t,omitempty"`
	Description string `json:"d,omitempty"`
}

// ScrollAttrs holds the position of a scroll area, when the app exposes one.
type ScrollAttrs struct {
	Position    float64 `json:"pos"`
	HasPosition bool    `json:"has_pos"`
}

// NewNode builds a snapshot for a raw AX role. Attributes for the role's
// variant are attached by the caller.
func NewNode(ref NodeRef, axRole string, frame Bounds, actions []string) Node {
	return Node{
		Ref:     ref,
		Role:    MapRole(axRole),
		AXRole:  axRole,
		Frame:   frame,
		Actions: actions,
	}
}

// Content returns the first non-empty text attribute: value, then title,
// then description. Whitespace is trimmed.
func (n Node) Content() string {
	if n.Text == nil {
		return ""
	}
	for _, s := range []string{n.Text.Value, n.Text.Title, n.Text.Description} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Label returns the best stable label for matching: title, then value, then
// description.
func (n Node) Label() string {
	if n.Text == nil {
		return ""
	}
	for _, s := range []string{n.Text.Title, n.Text.Value, n.Text.Description} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// HasAction reports whether the element advertises the given AX action.
func (n Node) HasAction(action string) bool {
	for _, a := range n.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// IsScrollable reports whether the node is a scroll area or can be scrolled.
func (n Node) IsScrollable() bool {
	return n.Role == "scroll" || n.Scroll != nil || n.HasAction(ActionScrollDown)
}
