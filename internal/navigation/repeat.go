package navigation

import (
	"fmt"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/formtree"
)

// PromptNewRepeat accepts the repeat prompt on the current screen: a
// new-repeat prompt screen, or a field list that folds exactly one
// prompt. It fails with ErrNotAtRepeatPrompt otherwise.
func (e *Engine) PromptNewRepeat() (Screen, error) {
	cur, err := e.resolve(NewWalker(e.model), e.current)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	switch {
	case cur.Kind == ScreenNewRepeatPrompt:
		return e.addRepeat(cur.Index)
	case cur.Kind == ScreenFieldList && len(cur.Prompts) == 1:
		return e.addRepeat(cur.Prompts[0])
	case cur.Kind == ScreenFieldList && len(cur.Prompts) > 1:
		return Screen{}, fmt.Errorf("%w: field list %s offers %d prompts, pick one", ErrNotAtRepeatPrompt, cur.Index, len(cur.Prompts))
	}
	return Screen{}, fmt.Errorf("%w: at %s", ErrNotAtRepeatPrompt, cur)
}

// PromptNewRepeatAt accepts a specific prompt of the current screen.
func (e *Engine) PromptNewRepeatAt(prompt formindex.Index) (Screen, error) {
	cur, err := e.resolve(NewWalker(e.model), e.current)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	offered := (cur.Kind == ScreenNewRepeatPrompt && cur.Index.Equal(prompt)) ||
		(cur.Kind == ScreenFieldList && containsIndex(cur.Prompts, prompt))
	if !offered {
		return Screen{}, fmt.Errorf("%w: %s is not offered by %s", ErrNotAtRepeatPrompt, prompt, cur)
	}
	return e.addRepeat(prompt)
}

// addRepeat materializes an instance at prompt and lands on the first
// screen inside it. An instance without relevant content lands where a
// forward step from it would.
func (e *Engine) addRepeat(prompt formindex.Index) (Screen, error) {
	from := e.current
	inst, err := e.model.AddRepeatInstance(prompt)
	if err != nil {
		return Screen{}, fmt.Errorf("adding repeat instance at %s: %w", prompt, err)
	}

	// Materializing can cascade into relevance changes: walk fresh.
	w := NewWalker(e.model)
	leaf, ok, err := w.FirstLeafIn(inst)
	if err == nil && !ok {
		leaf, err = w.NextLeafAfter(inst)
	}
	if err != nil {
		return Screen{}, e.fail(err)
	}
	s, err := NewClassifier(w).Classify(leaf)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	e.moveTo(Transition{Op: OpAddRepeat, From: from, Target: inst, Screen: s})
	return s, nil
}

// DeleteCurrentRepeat removes the repeat instance enclosing the current
// index (the index itself when the screen is a field-list instance). On
// a field list outside any instance, the single instance whose questions
// the list shows is removed. It lands on the screen now occupying the
// vacated position, or the screen before it when nothing follows, or End
// when the form has no screens left. It fails with ErrNoEnclosingRepeat
// when no instance, or more than one, is on screen.
func (e *Engine) DeleteCurrentRepeat() (Screen, error) {
	w := NewWalker(e.model)

	inst, ok, err := e.enclosingInstance(w, e.current)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	if ok {
		return e.deleteRepeat(w, inst)
	}

	cur, err := e.resolve(w, e.current)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	inner, err := e.instancesShown(w, cur)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	switch len(inner) {
	case 0:
		return Screen{}, fmt.Errorf("%w: at %s", ErrNoEnclosingRepeat, e.current)
	case 1:
		return e.deleteRepeat(w, inner[0])
	}
	return Screen{}, fmt.Errorf("%w: field list %s shows %d repeat instances, pick one", ErrNoEnclosingRepeat, cur.Index, len(inner))
}

// DeleteRepeatAt removes a specific repeat instance of the current
// screen: one enclosing the current index, or one whose questions the
// current field list shows.
func (e *Engine) DeleteRepeatAt(inst formindex.Index) (Screen, error) {
	w := NewWalker(e.model)

	for a := e.current; !a.IsSentinel(); {
		if a.Equal(inst) {
			return e.deleteRepeatIfInstance(w, inst)
		}
		p, err := w.parent(a)
		if err != nil {
			return Screen{}, e.fail(err)
		}
		a = p
	}

	cur, err := e.resolve(w, e.current)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	inner, err := e.instancesShown(w, cur)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	if !containsIndex(inner, inst) {
		return Screen{}, fmt.Errorf("%w: %s is not on %s", ErrNoEnclosingRepeat, inst, cur)
	}
	return e.deleteRepeat(w, inst)
}

func (e *Engine) deleteRepeatIfInstance(w *Walker, i formindex.Index) (Screen, error) {
	k, err := w.kind(i)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	if _, ok := k.(formtree.RepeatInstance); !ok {
		return Screen{}, fmt.Errorf("%w: %s is not a repeat instance", ErrNoEnclosingRepeat, i)
	}
	return e.deleteRepeat(w, i)
}

// deleteRepeat removes inst and moves to the screen taking its place.
func (e *Engine) deleteRepeat(w *Walker, inst formindex.Index) (Screen, error) {
	from := e.current

	// Everything before the instance keeps its index across the removal.
	before, err := w.PreviousLeaf(inst)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	if err := e.model.RemoveRepeatInstance(inst); err != nil {
		return Screen{}, fmt.Errorf("removing repeat instance %s: %w", inst, err)
	}

	w = NewWalker(e.model)
	leaf, err := w.NextLeaf(before)
	if err == nil && leaf.IsEnd() {
		leaf, err = w.PreviousLeaf(formindex.End)
		if err == nil && leaf.IsStart() {
			leaf = formindex.End
		}
	}
	if err != nil {
		return Screen{}, e.fail(err)
	}
	s, err := NewClassifier(w).Classify(leaf)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	e.moveTo(Transition{Op: OpDeleteRepeat, From: from, Target: inst, Screen: s})
	return s, nil
}

// enclosingInstance finds the nearest repeat instance at or above i.
func (e *Engine) enclosingInstance(w *Walker, i formindex.Index) (formindex.Index, bool, error) {
	for a := i; !a.IsSentinel(); {
		k, err := w.kind(a)
		if err != nil {
			return formindex.Start, false, err
		}
		if _, ok := k.(formtree.RepeatInstance); ok {
			return a, true, nil
		}
		if a, err = w.parent(a); err != nil {
			return formindex.Start, false, err
		}
	}
	return formindex.Start, false, nil
}

// instancesShown lists, in document order, the repeat instances below a
// field-list anchor that hold at least one of the screen's questions.
func (e *Engine) instancesShown(w *Walker, s Screen) ([]formindex.Index, error) {
	if s.Kind != ScreenFieldList {
		return nil, nil
	}
	var out []formindex.Index
	for _, q := range s.Questions {
		var chain []formindex.Index
		for a := q; !a.Equal(s.Index) && !a.IsStart(); {
			k, err := w.kind(a)
			if err != nil {
				return nil, err
			}
			if _, ok := k.(formtree.RepeatInstance); ok {
				chain = append(chain, a)
			}
			p, err := w.parent(a)
			if err != nil {
				return nil, err
			}
			a = p
		}
		for n := len(chain) - 1; n >= 0; n-- {
			if !containsIndex(out, chain[n]) {
				out = append(out, chain[n])
			}
		}
	}
	return out, nil
}

func containsIndex(list []formindex.Index, i formindex.Index) bool {
	for _, c := range list {
		if c.Equal(i) {
			return true
		}
	}
	return false
}
