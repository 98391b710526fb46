package branch

import (
	"github.com/matzehuels/mindweave/pkg/errors"
)

// Kind classifies the relationship a branch expresses.
type Kind string

const (
	KindHierarchical Kind = "hierarchical"
	KindAssociative  Kind = "associative"
	KindDependency   Kind = "dependency"
	KindSequence     Kind = "sequence"
	KindConflict     Kind = "conflict"
	KindReference    Kind = "reference"
)

// Kinds lists every known branch kind.
var Kinds = []Kind{
	KindHierarchical,
	KindAssociative,
	KindDependency,
	KindSequence,
	KindConflict,
	KindReference,
}

// DefaultWeight is assigned to branches created without an explicit weight.
const DefaultWeight = 1.0

// Style is the visual treatment of a branch line.
type Style struct {
	Color string  `json:"color,omitempty" bson:"color,omitempty"`
	Width float64 `json:"width,omitempty" bson:"width,omitempty"`
	Dash  string  `json:"dash,omitempty" bson:"dash,omitempty"`
	Arrow bool    `json:"arrow,omitempty" bson:"arrow,omitempty"`
}

var defaultStyles = map[Kind]Style{
	KindHierarchical: {Color: "#64748b", Width: 2},
	KindAssociative:  {Color: "#3b82f6", Width: 1.5, Dash: "6,4"},
	KindDependency:   {Color: "#f59e0b", Width: 1.5, Arrow: true},
	KindSequence:     {Color: "#10b981", Width: 1.5, Arrow: true},
	KindConflict:     {Color: "#ef4444", Width: 2, Dash: "2,3"},
	KindReference:    {Color: "#8b5cf6", Width: 1, Dash: "1,3", Arrow: true},
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := defaultStyles[k]
	return ok
}

// DefaultStyle returns the style implied by the kind.
func (k Kind) DefaultStyle() Style {
	return defaultStyles[k]
}

// Branch is a typed edge between two nodes. Hierarchical branches mirror the
// parent/child links of the tree; the other kinds connect arbitrary nodes.
type Branch struct {
	ID     string  `json:"id" bson:"id"`
	Source string  `json:"source" bson:"source"`
	Target string  `json:"target" bson:"target"`
	Kind   Kind    `json:"kind" bson:"kind"`
	Weight float64 `json:"weight" bson:"weight"`
	Style  Style   `json:"style" bson:"style"`
	Label  string  `json:"label,omitempty" bson:"label,omitempty"`
}

// New returns a branch of the given kind with the default weight and the
// kind's default style.
func New(id, source, target string, kind Kind) Branch {
	return Branch{
		ID:     id,
		Source: source,
		Target: target,
		Kind:   kind,
		Weight: DefaultWeight,
		Style:  kind.DefaultStyle(),
	}
}

// Touches reports whether the branch has id as either endpoint.
func (b Branch) Touches(id string) bool {
	return b.Source == id || b.Target == id
}

// Validate checks the fields that do not depend on the surrounding map.
func (b Branch) Validate() error {
	if err := errors.ValidateID(b.ID); err != nil {
		return err
	}
	if b.Source == "" || b.Target == "" {
		return errors.New(errors.ErrCodeInvalidInput, "branch %q needs both endpoints", b.ID)
	}
	if b.Source == b.Target {
		return errors.New(errors.ErrCodeInvalidInput, "branch %q connects %q to itself", b.ID, b.Source)
	}
	if !b.Kind.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown branch kind %q", b.Kind)
	}
	if b.Weight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "branch %q has negative weight %g", b.ID, b.Weight)
	}
	return nil
}
