package navigation

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/formnav/internal/formindex"
)

// ScreenKind is what the user sees for one navigation step.
type ScreenKind string

const (
	ScreenStart           ScreenKind = "start"
	ScreenEnd             ScreenKind = "end"
	ScreenQuestion        ScreenKind = "question"
	ScreenFieldList       ScreenKind = "field-list"
	ScreenNewRepeatPrompt ScreenKind = "new-repeat-prompt"
)

// Screen is derived on every navigation call and never stored.
//
// Index is the canonical index of the screen: the question, the
// field-list anchor (outermost paginated container), the repeat prompt,
// or a sentinel. The engine's current index is always some screen's
// Index.
type Screen struct {
	Kind  ScreenKind      `json:"kind"`
	Index formindex.Index `json:"index"`
	// Questions lists the relevant questions of a field list in document
	// order.
	Questions []formindex.Index `json:"questions,omitempty"`
	// Prompts lists growable repeat prompts folded into a field list.
	Prompts []formindex.Index `json:"prompts,omitempty"`
}

func startScreen() Screen { return Screen{Kind: ScreenStart, Index: formindex.Start} }
func endScreen() Screen   { return Screen{Kind: ScreenEnd, Index: formindex.End} }

// Anchor returns the paginated container of a field-list screen.
func (s Screen) Anchor() (formindex.Index, bool) {
	if s.Kind != ScreenFieldList {
		return formindex.Start, false
	}
	return s.Index, true
}

// Indices returns every index the screen covers: the field-list
// questions and prompts, or the single screen index.
func (s Screen) Indices() []formindex.Index {
	if s.Kind != ScreenFieldList {
		return []formindex.Index{s.Index}
	}
	out := make([]formindex.Index, 0, len(s.Questions)+len(s.Prompts))
	out = append(out, s.Questions...)
	return append(out, s.Prompts...)
}

// Contains reports whether i is one of the screen's indices.
func (s Screen) Contains(i formindex.Index) bool {
	for _, c := range s.Indices() {
		if c.Equal(i) {
			return true
		}
	}
	return false
}

func (s Screen) String() string {
	if s.Kind != ScreenFieldList {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Index)
	}
	parts := make([]string, 0, len(s.Questions)+len(s.Prompts))
	for _, q := range s.Questions {
		parts = append(parts, q.String())
	}
	for _, p := range s.Prompts {
		parts = append(parts, "+"+p.String())
	}
	return fmt.Sprintf("%s(%s: %s)", s.Kind, s.Index, strings.Join(parts, " "))
}
