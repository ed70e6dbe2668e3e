// Package formtree declares the instance tree boundary the navigation
// engine consumes.
//
// The engine never owns tree nodes. It asks a Model about positions
// (formindex.Index values) and receives topology, kinds and relevance
// back. Implementations must answer relevance fresh on every call: the
// external evaluator may have changed it since the previous one.
package formtree

import (
	"errors"

	"github.com/HendryAvila/formnav/internal/formindex"
)

var (
	// ErrNoSuchNode is returned when an index does not resolve to a node.
	ErrNoSuchNode = errors.New("no such node")

	// ErrNotRepeat is returned by repeat operations on non-repeat indices.
	ErrNotRepeat = errors.New("index does not address a repeat")

	// ErrRepeatFull is returned when a repeat cannot take another instance.
	ErrRepeatFull = errors.New("repeat cannot grow")
)

// Kind is the closed set of node kinds. The unexported marker keeps
// other packages from adding variants; switches over Kind are expected
// to be exhaustive.
type Kind interface {
	isKind()
	String() string
}

// Question is a leaf the user answers.
type Question struct{}

// Group is an ordered container. Paginated groups render all their
// descendant questions on one screen (a field list).
type Group struct {
	Paginated bool
}

// RepeatInstance is one materialized instance of a repeat. It behaves
// like a Group.
type RepeatInstance struct {
	Paginated bool
}

// RepeatPrompt is the un-instantiated position one past a repeat's last
// instance. CanGrow is false when the repeat has reached its maximum.
type RepeatPrompt struct {
	CanGrow bool
}

func (Question) isKind()       {}
func (Group) isKind()          {}
func (RepeatInstance) isKind() {}
func (RepeatPrompt) isKind()   {}

func (Question) String() string { return "question" }

func (g Group) String() string {
	if g.Paginated {
		return "field-list"
	}
	return "group"
}

func (r RepeatInstance) String() string {
	if r.Paginated {
		return "field-list-repeat"
	}
	return "repeat"
}

func (RepeatPrompt) String() string { return "repeat-prompt" }

// IsContainer reports whether k has children.
func IsContainer(k Kind) bool {
	switch k.(type) {
	case Group, RepeatInstance:
		return true
	}
	return false
}

// IsPaginated reports whether k is a container rendered as a field list.
func IsPaginated(k Kind) bool {
	switch v := k.(type) {
	case Group:
		return v.Paginated
	case RepeatInstance:
		return v.Paginated
	}
	return false
}

// Model is the instance tree as seen by the navigation engine.
//
// formindex.Start stands for the tree root: FirstChild(Start) is the
// first top-level element. Parent of a top-level element reports false.
type Model interface {
	Kind(i formindex.Index) (Kind, error)
	IsRelevant(i formindex.Index) bool

	FirstChild(i formindex.Index) (formindex.Index, bool)
	NextSibling(i formindex.Index) (formindex.Index, bool)
	Parent(i formindex.Index) (formindex.Index, bool)

	// AddRepeatInstance materializes a new instance at the prompt position
	// i and returns the index of the new instance.
	AddRepeatInstance(prompt formindex.Index) (formindex.Index, error)
	// RemoveRepeatInstance deletes the instance at i; later instances
	// shift down by one.
	RemoveRepeatInstance(instance formindex.Index) error
	// RepeatInstanceCount accepts any index whose last step addresses the
	// repeat (an instance or its prompt).
	RepeatInstanceCount(repeat formindex.Index) (int, error)
}
