// Package navigation turns a relevance-filtered walk of a form instance
// tree into user-facing screens and keeps the current position valid
// while the user steps, jumps, and adds or deletes repeat instances.
package navigation

import (
	"fmt"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/formtree"
)

// Walker provides the pre-order leaf walk over a formtree.Model.
//
// Leaves are questions and growable repeat prompts. A node that is not
// relevant is skipped together with its subtree. A Walker memoizes
// relevance answers, so it must live for one navigation operation only:
// create a new one for every call that may observe an answer change.
type Walker struct {
	model    formtree.Model
	relevant map[string]bool
}

// NewWalker returns a walker with an empty relevance memo.
func NewWalker(model formtree.Model) *Walker {
	return &Walker{model: model, relevant: make(map[string]bool)}
}

func (w *Walker) isRelevant(i formindex.Index) bool {
	key := i.String()
	if v, ok := w.relevant[key]; ok {
		return v
	}
	v := w.model.IsRelevant(i)
	w.relevant[key] = v
	return v
}

func (w *Walker) kind(i formindex.Index) (formtree.Kind, error) {
	k, err := w.model.Kind(i)
	if err != nil {
		return nil, fmt.Errorf("%w: kind of %s: %v", ErrInconsistentTree, i, err)
	}
	return k, nil
}

func isLeaf(k formtree.Kind) bool {
	switch v := k.(type) {
	case formtree.Question:
		return true
	case formtree.RepeatPrompt:
		return v.CanGrow
	}
	return false
}

// firstChild checks that the child extends p by exactly one step.
func (w *Walker) firstChild(p formindex.Index) (formindex.Index, bool, error) {
	c, ok := w.model.FirstChild(p)
	if !ok {
		return formindex.Start, false, nil
	}
	if c.Depth() != p.Depth()+1 || !p.IsPrefixOf(c) {
		return formindex.Start, false, fmt.Errorf("%w: first child %s of %s", ErrInconsistentTree, c, p)
	}
	return c, true, nil
}

// nextSibling checks that the sibling shares the parent and sorts after i.
func (w *Walker) nextSibling(i formindex.Index) (formindex.Index, bool, error) {
	s, ok := w.model.NextSibling(i)
	if !ok {
		return formindex.Start, false, nil
	}
	if s.Depth() != i.Depth() || !s.Parent().Equal(i.Parent()) || s.Compare(i) <= 0 {
		return formindex.Start, false, fmt.Errorf("%w: next sibling %s of %s", ErrInconsistentTree, s, i)
	}
	return s, true, nil
}

// parent reports Start (the root) for top-level indices.
func (w *Walker) parent(i formindex.Index) (formindex.Index, error) {
	p, ok := w.model.Parent(i)
	switch {
	case !ok && i.Depth() <= 1:
		return formindex.Start, nil
	case !ok:
		return formindex.Start, fmt.Errorf("%w: %s reports no parent", ErrInconsistentTree, i)
	case p.Depth() != i.Depth()-1 || !p.IsPrefixOf(i):
		return formindex.Start, fmt.Errorf("%w: parent %s of %s", ErrInconsistentTree, p, i)
	}
	return p, nil
}

func (w *Walker) children(p formindex.Index) ([]formindex.Index, error) {
	var out []formindex.Index
	c, ok, err := w.firstChild(p)
	for ; ok && err == nil; c, ok, err = w.nextSibling(c) {
		out = append(out, c)
	}
	return out, err
}

// hiddenRoot returns the outermost index at or above i that is not
// relevant. A walk starting inside it must leave it as a whole.
func (w *Walker) hiddenRoot(i formindex.Index) (formindex.Index, bool, error) {
	var root formindex.Index
	found := false
	for a := i; !a.IsSentinel(); {
		if !w.isRelevant(a) {
			root, found = a, true
		}
		p, err := w.parent(a)
		if err != nil {
			return formindex.Start, false, err
		}
		a = p
	}
	return root, found, nil
}

// after is the first position following the subtree of i, or End.
func (w *Walker) after(i formindex.Index) (formindex.Index, error) {
	for !i.IsStart() {
		s, ok, err := w.nextSibling(i)
		if err != nil {
			return formindex.End, err
		}
		if ok {
			return s, nil
		}
		if i, err = w.parent(i); err != nil {
			return formindex.End, err
		}
	}
	return formindex.End, nil
}

// scan walks forward in pre-order from candidate (inclusive) to the
// first relevant leaf.
func (w *Walker) scan(candidate formindex.Index) (formindex.Index, error) {
	for !candidate.IsEnd() {
		var err error
		if !w.isRelevant(candidate) {
			if candidate, err = w.after(candidate); err != nil {
				return formindex.End, err
			}
			continue
		}
		k, err := w.kind(candidate)
		if err != nil {
			return formindex.End, err
		}
		if isLeaf(k) {
			return candidate, nil
		}
		if formtree.IsContainer(k) {
			c, ok, err := w.firstChild(candidate)
			if err != nil {
				return formindex.End, err
			}
			if ok {
				candidate = c
				continue
			}
		}
		if candidate, err = w.after(candidate); err != nil {
			return formindex.End, err
		}
	}
	return formindex.End, nil
}

// NextLeaf returns the first relevant leaf after i in pre-order. The
// descendants of a container i come after it. NextLeaf(Start) is the
// first leaf of the form; NextLeaf(End) fails with ErrNoSuchElement.
func (w *Walker) NextLeaf(i formindex.Index) (formindex.Index, error) {
	if i.IsEnd() {
		return formindex.End, fmt.Errorf("next leaf: %w", ErrNoSuchElement)
	}
	if !i.IsStart() {
		_, hidden, err := w.hiddenRoot(i)
		if err != nil {
			return formindex.End, err
		}
		if hidden {
			return w.NextLeafAfter(i)
		}
		k, err := w.kind(i)
		if err != nil {
			return formindex.End, err
		}
		if !formtree.IsContainer(k) {
			return w.NextLeafAfter(i)
		}
	}
	c, ok, err := w.firstChild(i)
	if err != nil {
		return formindex.End, err
	}
	if !ok {
		return w.NextLeafAfter(i)
	}
	return w.scan(c)
}

// NextLeafAfter returns the first relevant leaf outside and after the
// subtree of i. When i lies inside an irrelevant container the walk
// resumes after that whole container.
func (w *Walker) NextLeafAfter(i formindex.Index) (formindex.Index, error) {
	if i.IsEnd() {
		return formindex.End, fmt.Errorf("next leaf: %w", ErrNoSuchElement)
	}
	if i.IsStart() {
		return formindex.End, nil
	}
	root, hidden, err := w.hiddenRoot(i)
	if err != nil {
		return formindex.End, err
	}
	if hidden {
		i = root
	}
	next, err := w.after(i)
	if err != nil {
		return formindex.End, err
	}
	return w.scan(next)
}

// FirstLeafIn returns the first relevant leaf in the subtree rooted at i
// (i itself when it is a leaf). ok is false when the subtree holds none.
func (w *Walker) FirstLeafIn(i formindex.Index) (leaf formindex.Index, ok bool, err error) {
	if i.IsSentinel() || !w.isRelevant(i) {
		return formindex.Start, false, nil
	}
	k, err := w.kind(i)
	if err != nil {
		return formindex.Start, false, err
	}
	if isLeaf(k) {
		return i, true, nil
	}
	if !formtree.IsContainer(k) {
		return formindex.Start, false, nil
	}
	return w.lastOrFirstIn(i, false)
}

// lastLeafIn returns the last relevant leaf of the subtree rooted at i.
func (w *Walker) lastLeafIn(i formindex.Index) (formindex.Index, bool, error) {
	if !w.isRelevant(i) {
		return formindex.Start, false, nil
	}
	k, err := w.kind(i)
	if err != nil {
		return formindex.Start, false, err
	}
	if isLeaf(k) {
		return i, true, nil
	}
	if !formtree.IsContainer(k) {
		return formindex.Start, false, nil
	}
	return w.lastOrFirstIn(i, true)
}

// lastOrFirstIn searches the children of a relevant container.
func (w *Walker) lastOrFirstIn(i formindex.Index, last bool) (formindex.Index, bool, error) {
	kids, err := w.children(i)
	if err != nil {
		return formindex.Start, false, err
	}
	for n := range kids {
		c := kids[n]
		if last {
			c = kids[len(kids)-1-n]
		}
		var leaf formindex.Index
		var ok bool
		if last {
			leaf, ok, err = w.lastLeafIn(c)
		} else {
			leaf, ok, err = w.FirstLeafIn(c)
		}
		if err != nil || ok {
			return leaf, ok, err
		}
	}
	return formindex.Start, false, nil
}

// PreviousLeaf returns the last relevant leaf before i in pre-order, or
// Start. When i lies inside an irrelevant container the search starts
// before that whole container. PreviousLeaf(End) is the last leaf of
// the form; PreviousLeaf(Start) fails with ErrNoSuchElement.
func (w *Walker) PreviousLeaf(i formindex.Index) (formindex.Index, error) {
	if i.IsStart() {
		return formindex.Start, fmt.Errorf("previous leaf: %w", ErrNoSuchElement)
	}
	if i.IsEnd() {
		leaf, ok, err := w.lastOrFirstIn(formindex.Start, true)
		if err != nil || !ok {
			return formindex.Start, err
		}
		return leaf, nil
	}

	root, hidden, err := w.hiddenRoot(i)
	if err != nil {
		return formindex.Start, err
	}
	if hidden {
		i = root
	}
	for cur := i; !cur.IsStart(); {
		p, err := w.parent(cur)
		if err != nil {
			return formindex.Start, err
		}
		siblings, err := w.children(p)
		if err != nil {
			return formindex.Start, err
		}
		at := -1
		for n, s := range siblings {
			if s.Equal(cur) {
				at = n
				break
			}
		}
		if at < 0 {
			return formindex.Start, fmt.Errorf("%w: %s is not listed under its parent %s", ErrInconsistentTree, cur, p)
		}
		for n := at - 1; n >= 0; n-- {
			leaf, ok, err := w.lastLeafIn(siblings[n])
			if err != nil {
				return formindex.Start, err
			}
			if ok {
				return leaf, nil
			}
		}
		cur = p
	}
	return formindex.Start, nil
}
