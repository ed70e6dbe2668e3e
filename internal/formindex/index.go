// Package formindex defines the immutable path value that addresses a
// position in a form instance tree.
//
// An Index is a sequence of steps from the root down to the addressed
// node. Each step holds the element position within its parent and, for
// repeat instances, the repeat multiplicity. Two sentinels, Start and
// End, sort before and after every real index.
package formindex

import (
	"fmt"
	"strconv"
	"strings"
)

// NoMultiplicity marks a step that does not address a repeat instance.
const NoMultiplicity = -1

// Step is one level of an Index.
type Step struct {
	Position     int
	Multiplicity int
}

// Pos returns a step without a repeat multiplicity.
func Pos(position int) Step {
	return Step{Position: position, Multiplicity: NoMultiplicity}
}

// Rep returns a step addressing instance (or prompt) mult of the repeat
// at position.
func Rep(position, mult int) Step {
	return Step{Position: position, Multiplicity: mult}
}

// HasMultiplicity reports whether the step addresses a repeat.
func (s Step) HasMultiplicity() bool {
	return s.Multiplicity != NoMultiplicity
}

func (s Step) String() string {
	if !s.HasMultiplicity() {
		return strconv.Itoa(s.Position)
	}
	return strconv.Itoa(s.Position) + "_" + strconv.Itoa(s.Multiplicity)
}

func (s Step) compare(o Step) int {
	switch {
	case s.Position < o.Position:
		return -1
	case s.Position > o.Position:
		return 1
	case s.Multiplicity < o.Multiplicity:
		return -1
	case s.Multiplicity > o.Multiplicity:
		return 1
	}
	return 0
}

type sentinel uint8

const (
	atStart sentinel = iota
	concrete
	atEnd
)

// Index is an immutable position in the instance tree. The zero value is
// Start.
type Index struct {
	kind  sentinel
	steps []Step
}

var (
	// Start sorts before every other index.
	Start = Index{kind: atStart}
	// End sorts after every other index.
	End = Index{kind: atEnd}
)

// New builds a real index from steps. It panics on an empty path, which
// would be indistinguishable from the tree root.
func New(steps ...Step) Index {
	if len(steps) == 0 {
		panic("formindex: empty path")
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Index{kind: concrete, steps: cp}
}

// IsStart reports whether i is the Start sentinel.
func (i Index) IsStart() bool { return i.kind == atStart }

// IsEnd reports whether i is the End sentinel.
func (i Index) IsEnd() bool { return i.kind == atEnd }

// IsSentinel reports whether i is Start or End.
func (i Index) IsSentinel() bool { return i.IsStart() || i.IsEnd() }

// Depth is the number of steps; sentinels have depth 0.
func (i Index) Depth() int {
	if i.IsSentinel() {
		return 0
	}
	return len(i.steps)
}

// Steps returns a copy of the path.
func (i Index) Steps() []Step {
	if i.IsSentinel() {
		return nil
	}
	cp := make([]Step, len(i.steps))
	copy(cp, i.steps)
	return cp
}

// Last returns the deepest step. It panics on sentinels.
func (i Index) Last() Step {
	if i.IsSentinel() {
		panic("formindex: Last on sentinel")
	}
	return i.steps[len(i.steps)-1]
}

// Parent drops the last step. The parent of a top-level index is Start,
// which doubles as the tree root.
func (i Index) Parent() Index {
	if i.Depth() <= 1 {
		return Start
	}
	return New(i.steps[:len(i.steps)-1]...)
}

// Child appends a step. The child of Start is a top-level index.
func (i Index) Child(s Step) Index {
	if i.IsEnd() {
		panic("formindex: Child of End")
	}
	steps := make([]Step, 0, i.Depth()+1)
	steps = append(steps, i.Steps()...)
	return New(append(steps, s)...)
}

// WithLast replaces the last step.
func (i Index) WithLast(s Step) Index {
	steps := i.Steps()
	if len(steps) == 0 {
		panic("formindex: WithLast on sentinel")
	}
	steps[len(steps)-1] = s
	return New(steps...)
}

// IsPrefixOf reports whether i is a strict ancestor of o. Start is the
// ancestor of every real index.
func (i Index) IsPrefixOf(o Index) bool {
	if o.IsSentinel() {
		return false
	}
	if i.IsStart() {
		return true
	}
	if i.IsEnd() || len(i.steps) >= len(o.steps) {
		return false
	}
	for n, s := range i.steps {
		if s != o.steps[n] {
			return false
		}
	}
	return true
}

// Compare orders indices in document (pre-order) order: -1, 0 or 1.
func (i Index) Compare(o Index) int {
	switch {
	case i.IsStart() && o.IsStart(), i.IsEnd() && o.IsEnd():
		return 0
	case i.IsStart(), o.IsEnd():
		return -1
	case i.IsEnd(), o.IsStart():
		return 1
	}
	for n := 0; n < len(i.steps) && n < len(o.steps); n++ {
		if c := i.steps[n].compare(o.steps[n]); c != 0 {
			return c
		}
	}
	switch {
	case len(i.steps) < len(o.steps):
		return -1
	case len(i.steps) > len(o.steps):
		return 1
	}
	return 0
}

// Equal reports whether i and o address the same position.
func (i Index) Equal(o Index) bool { return i.Compare(o) == 0 }

// String renders the comma-separated persistence form, e.g. "0,2_1,3".
func (i Index) String() string {
	switch {
	case i.IsStart():
		return "START"
	case i.IsEnd():
		return "END"
	}
	parts := make([]string, len(i.steps))
	for n, s := range i.steps {
		parts[n] = s.String()
	}
	return strings.Join(parts, ",")
}

// Parse is the inverse of String.
func Parse(s string) (Index, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "START", "":
		return Start, nil
	case "END":
		return End, nil
	}
	parts := strings.Split(s, ",")
	steps := make([]Step, len(parts))
	for n, p := range parts {
		pos, mult, hasMult := strings.Cut(strings.TrimSpace(p), "_")
		position, err := strconv.Atoi(pos)
		if err != nil || position < 0 {
			return Start, fmt.Errorf("invalid position %q in index %q", pos, s)
		}
		steps[n] = Pos(position)
		if hasMult {
			m, err := strconv.Atoi(mult)
			if err != nil || m < 0 {
				return Start, fmt.Errorf("invalid multiplicity %q in index %q", mult, s)
			}
			steps[n].Multiplicity = m
		}
	}
	return New(steps...), nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Index {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

// MarshalText implements encoding.TextMarshaler using String.
func (i Index) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse.
func (i *Index) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
