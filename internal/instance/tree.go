// Package instance is the in-memory instance tree built from a form
// definition. It implements formtree.Model.
//
// Relevance lives on the nodes as plain flags. The expression evaluator
// that would normally compute them is external; callers flip flags with
// SetRelevant or install a RelevanceFunc.
package instance

import (
	"fmt"

	"github.com/HendryAvila/formnav/internal/formdef"
	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/formtree"
)

// RelevanceFunc lets an external evaluator veto relevance. It is
// consulted on every IsRelevant call after the node's own flag.
type RelevanceFunc func(i formindex.Index) bool

type node struct {
	name      string
	label     string
	typ       formdef.ElementType
	paginated bool
	relevant  bool
	max       int

	children  []*node           // groups
	template  []formdef.Element // repeats: shape of each new instance
	instances []*repeatInstance // repeats
}

type repeatInstance struct {
	relevant bool
	children []*node
}

// Tree is a materialized form instance.
type Tree struct {
	def       *formdef.Definition
	root      []*node
	relevance RelevanceFunc
}

// Option configures a Tree.
type Option func(*Tree)

// WithRelevance installs an external relevance hook.
func WithRelevance(fn RelevanceFunc) Option {
	return func(t *Tree) { t.relevance = fn }
}

var _ formtree.Model = (*Tree)(nil)

// New materializes def, creating each repeat's initial instances.
func New(def *formdef.Definition, opts ...Option) *Tree {
	t := &Tree{def: def, root: build(def.Children)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Definition returns the definition the tree was built from.
func (t *Tree) Definition() *formdef.Definition { return t.def }

func build(elems []formdef.Element) []*node {
	nodes := make([]*node, len(elems))
	for i, e := range elems {
		n := &node{
			name:      e.Name,
			label:     e.DisplayLabel(),
			typ:       e.Type,
			paginated: e.FieldList,
			relevant:  e.IsRelevant(),
			max:       e.Max,
		}
		if e.Type == formdef.TypeRepeat {
			n.template = e.Children
			for k := 0; k < e.Count; k++ {
				n.instances = append(n.instances, newInstance(e.Children))
			}
		} else {
			n.children = build(e.Children)
		}
		nodes[i] = n
	}
	return nodes
}

func newInstance(template []formdef.Element) *repeatInstance {
	return &repeatInstance{relevant: true, children: build(template)}
}

func (n *node) canGrow() bool {
	return n.max == 0 || len(n.instances) < n.max
}

// stepFor is the index step of the first position of n at pos: instance
// 0 for repeats (which is the prompt when there are no instances).
func stepFor(n *node, pos int) formindex.Step {
	if n.typ == formdef.TypeRepeat {
		return formindex.Rep(pos, 0)
	}
	return formindex.Pos(pos)
}

// ref is a resolved index.
type ref struct {
	node     *node
	inst     *repeatInstance
	prompt   bool
	children []*node
}

func (t *Tree) resolve(i formindex.Index) (ref, error) {
	if i.IsSentinel() {
		return ref{}, fmt.Errorf("%w: %s", formtree.ErrNoSuchNode, i)
	}
	children := t.root
	steps := i.Steps()
	var r ref
	for d, s := range steps {
		if s.Position < 0 || s.Position >= len(children) {
			return ref{}, fmt.Errorf("%w: %s", formtree.ErrNoSuchNode, i)
		}
		n := children[s.Position]
		r = ref{node: n}
		if n.typ != formdef.TypeRepeat {
			if s.HasMultiplicity() {
				return ref{}, fmt.Errorf("%w: %s: multiplicity on non-repeat %q", formtree.ErrNoSuchNode, i, n.name)
			}
			children = n.children
			continue
		}
		switch {
		case !s.HasMultiplicity():
			return ref{}, fmt.Errorf("%w: %s: repeat %q needs a multiplicity", formtree.ErrNoSuchNode, i, n.name)
		case s.Multiplicity < len(n.instances):
			r.inst = n.instances[s.Multiplicity]
			children = r.inst.children
		case s.Multiplicity == len(n.instances) && d == len(steps)-1:
			r.prompt = true
			children = nil
		default:
			return ref{}, fmt.Errorf("%w: %s", formtree.ErrNoSuchNode, i)
		}
	}
	r.children = children
	return r, nil
}

// childrenOf returns the children of a container index, Start being the
// root.
func (t *Tree) childrenOf(i formindex.Index) ([]*node, error) {
	if i.IsStart() {
		return t.root, nil
	}
	r, err := t.resolve(i)
	if err != nil {
		return nil, err
	}
	return r.children, nil
}

// Kind implements formtree.Model.
func (t *Tree) Kind(i formindex.Index) (formtree.Kind, error) {
	r, err := t.resolve(i)
	if err != nil {
		return nil, err
	}
	switch {
	case r.prompt:
		return formtree.RepeatPrompt{CanGrow: r.node.canGrow()}, nil
	case r.inst != nil:
		return formtree.RepeatInstance{Paginated: r.node.paginated}, nil
	case r.node.typ == formdef.TypeGroup:
		return formtree.Group{Paginated: r.node.paginated}, nil
	}
	return formtree.Question{}, nil
}

// IsRelevant implements formtree.Model. Unresolvable indices are not
// relevant.
func (t *Tree) IsRelevant(i formindex.Index) bool {
	r, err := t.resolve(i)
	if err != nil {
		return false
	}
	if !r.node.relevant || (r.inst != nil && !r.inst.relevant) {
		return false
	}
	if t.relevance != nil {
		return t.relevance(i)
	}
	return true
}

// FirstChild implements formtree.Model.
func (t *Tree) FirstChild(i formindex.Index) (formindex.Index, bool) {
	children, err := t.childrenOf(i)
	if err != nil || len(children) == 0 {
		return formindex.Start, false
	}
	return i.Child(stepFor(children[0], 0)), true
}

// NextSibling implements formtree.Model. The siblings of a repeat
// instance are the following instances, then the prompt, then the next
// element.
func (t *Tree) NextSibling(i formindex.Index) (formindex.Index, bool) {
	r, err := t.resolve(i)
	if err != nil {
		return formindex.Start, false
	}
	last := i.Last()
	if r.inst != nil {
		return i.WithLast(formindex.Rep(last.Position, last.Multiplicity+1)), true
	}
	siblings, err := t.childrenOf(i.Parent())
	if err != nil {
		return formindex.Start, false
	}
	next := last.Position + 1
	if next >= len(siblings) {
		return formindex.Start, false
	}
	return i.WithLast(stepFor(siblings[next], next)), true
}

// Parent implements formtree.Model. Parents are derived from the index
// path; nodes keep no back-pointers.
func (t *Tree) Parent(i formindex.Index) (formindex.Index, bool) {
	if i.Depth() <= 1 {
		return formindex.Start, false
	}
	return i.Parent(), true
}

// AddRepeatInstance implements formtree.Model.
func (t *Tree) AddRepeatInstance(prompt formindex.Index) (formindex.Index, error) {
	r, err := t.resolve(prompt)
	if err != nil {
		return formindex.Start, err
	}
	if !r.prompt {
		return formindex.Start, fmt.Errorf("%w: %s is not a repeat prompt", formtree.ErrNotRepeat, prompt)
	}
	if !r.node.canGrow() {
		return formindex.Start, fmt.Errorf("%w: %q has %d of %d instances", formtree.ErrRepeatFull, r.node.name, len(r.node.instances), r.node.max)
	}
	r.node.instances = append(r.node.instances, newInstance(r.node.template))
	return prompt, nil
}

// RemoveRepeatInstance implements formtree.Model.
func (t *Tree) RemoveRepeatInstance(i formindex.Index) error {
	r, err := t.resolve(i)
	if err != nil {
		return err
	}
	if r.inst == nil {
		return fmt.Errorf("%w: %s is not a repeat instance", formtree.ErrNotRepeat, i)
	}
	k := i.Last().Multiplicity
	r.node.instances = append(r.node.instances[:k], r.node.instances[k+1:]...)
	return nil
}

// RepeatInstanceCount implements formtree.Model.
func (t *Tree) RepeatInstanceCount(i formindex.Index) (int, error) {
	r, err := t.resolve(i)
	if err != nil {
		return 0, err
	}
	if r.node.typ != formdef.TypeRepeat {
		return 0, fmt.Errorf("%w: %s", formtree.ErrNotRepeat, i)
	}
	return len(r.node.instances), nil
}

// SetRelevant flips the relevance flag of the node (or repeat instance)
// at i. On a prompt it flips the whole repeat.
func (t *Tree) SetRelevant(i formindex.Index, relevant bool) error {
	r, err := t.resolve(i)
	if err != nil {
		return err
	}
	if r.inst != nil {
		r.inst.relevant = relevant
		return nil
	}
	r.node.relevant = relevant
	return nil
}

// Label is the human-readable text for i.
func (t *Tree) Label(i formindex.Index) string {
	r, err := t.resolve(i)
	if err != nil {
		return i.String()
	}
	switch {
	case r.prompt:
		return fmt.Sprintf("Add %s?", r.node.label)
	case r.inst != nil:
		return fmt.Sprintf("%s #%d", r.node.label, i.Last().Multiplicity+1)
	}
	return r.node.label
}

// Name is the definition name of the element at i.
func (t *Tree) Name(i formindex.Index) string {
	r, err := t.resolve(i)
	if err != nil {
		return ""
	}
	return r.node.name
}
