package model

import "strconv"

// Resolution records how a navigation target was matched to a node.
type Resolution string

const (
	ResolveExact  Resolution = "exact"
	ResolveFuzzy  Resolution = "fuzzy"
	ResolveIndex  Resolution = "index"
	ResolveVision Resolution = "vision"
)

// NavigationTarget identifies a page or collection row to acquire. Exactly one
// of Name or Index is meaningful; ID is an optional structured-API identity.
type NavigationTarget struct {
	Name  string `yaml:"name,omitempty"  json:"name,omitempty"`
	Index *int   `yaml:"index,omitempty" json:"index,omitempty"`
	ID    string `yaml:"id,omitempty"    json:"id,omitempty"`

	ResolvedRef *NodeRef   `yaml:"-" json:"-"`
	Resolution  Resolution `yaml:"resolution,omitempty" json:"resolution,omitempty"`
}

// NamedTarget returns a target matched by name.
func NamedTarget(name string) NavigationTarget {
	return NavigationTarget{Name: name}
}

// IndexTarget returns a target matched by position in the candidate list.
func IndexTarget(i int) NavigationTarget {
	return NavigationTarget{Index: &i}
}

// String returns the identifier used in logs and reports.
func (t NavigationTarget) String() string {
	switch {
	case t.Name != "":
		return t.Name
	case t.Index != nil:
		return "#" + strconv.Itoa(*t.Index)
	case t.ID != "":
		return t.ID
	default:
		return "(empty target)"
	}
}
