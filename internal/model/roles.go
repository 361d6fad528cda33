package model

// RoleMap maps macOS AXRole values to compact role codes.
var RoleMap = map[string]string{
	"AXButton":            "btn",
	"AXStaticText":        "txt",
	"AXHeading":           "heading",
	"AXLink":              "lnk",
	"AXImage":             "img",
	"AXTextField":         "input",
	"AXTextArea":          "input",
	"AXCheckBox":          "chk",
	"AXList":              "list",
	"AXOutline":           "list",
	"AXTable":             "list",
	"AXRow":               "row",
	"AXCell":              "cell",
	"AXGroup":             "group",
	"AXSplitGroup":        "group",
	"AXScrollArea":        "scroll",
	"AXToolbar":           "toolbar",
	"AXTabGroup":          "tab",
	"AXWebArea":           "web",
	"AXWindow":            "window",
	"AXApplication":       "app",
	"AXProgressIndicator": "progress",
	"AXBusyIndicator":     "progress",
	"AXUnknown":           "unknown",
}

// MapRole converts a raw accessibility role to a compact code.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	return "other"
}

// TextRoles are roles whose text attributes carry page content.
var TextRoles = map[string]bool{
	"txt":     true,
	"heading": true,
	"lnk":     true,
	"input":   true,
	"cell":    true,
	"btn":     true,
}

// OpaqueRoles are roles that render text the accessibility layer does not
// expose. Empty nodes with these roles are recovered through OCR.
var OpaqueRoles = map[string]bool{
	"img":     true,
	"unknown": true,
}

// IsTextRole reports whether a compact role code is text-bearing.
func IsTextRole(role string) bool {
	return TextRoles[role]
}

// IsOpaqueRole reports whether a compact role code needs OCR when empty.
func IsOpaqueRole(role string) bool {
	return OpaqueRoles[role]
}

// blockTypes maps compact role codes to block types.
var blockTypes = map[string]string{
	"heading": "heading",
	"txt":     "text",
	"input":   "text",
	"cell":    "text",
	"lnk":     "link",
	"list":    "list",
	"img":     "image",
	"btn":     "button",
}

// BlockType returns the block type for a compact role code.
func BlockType(role string) string {
	if t, ok := blockTypes[role]; ok {
		return t
	}
	return "text"
}

// Accessibility actions and pseudo-attributes used by the engine.
const (
	ActionPress       = "AXPress"
	ActionScrollDown  = "AXScrollDownByPage"
	ActionScrollToTop = "AXScrollToTop"
	ActionRaise       = "AXRaise"

	AttrTitle          = "AXTitle"
	AttrValue          = "AXValue"
	AttrScrollPosition = "AXScrollPosition"
)
