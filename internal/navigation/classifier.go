package navigation

import (
	"fmt"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/formtree"
)

// Classifier maps a leaf produced by the Walker to the Screen it belongs
// to. It shares the walker's relevance memo.
type Classifier struct {
	w *Walker
}

// NewClassifier returns a classifier bound to w.
func NewClassifier(w *Walker) *Classifier {
	return &Classifier{w: w}
}

// Classify returns the screen owning leaf. The outermost paginated
// ancestor, if any, absorbs the leaf into a field list; otherwise a
// question is its own screen and a growable prompt is a new-repeat
// prompt.
func (c *Classifier) Classify(leaf formindex.Index) (Screen, error) {
	switch {
	case leaf.IsStart():
		return startScreen(), nil
	case leaf.IsEnd():
		return endScreen(), nil
	}

	anchor, ok, err := c.outermostPaginated(leaf)
	if err != nil {
		return Screen{}, err
	}
	if ok {
		return c.fieldList(anchor)
	}

	k, err := c.w.kind(leaf)
	if err != nil {
		return Screen{}, err
	}
	switch v := k.(type) {
	case formtree.Question:
		return Screen{Kind: ScreenQuestion, Index: leaf}, nil
	case formtree.RepeatPrompt:
		if v.CanGrow {
			return Screen{Kind: ScreenNewRepeatPrompt, Index: leaf}, nil
		}
		return Screen{}, fmt.Errorf("%w: repeat at %s cannot grow", ErrUnreachableIndex, leaf)
	case formtree.Group, formtree.RepeatInstance:
		return Screen{}, fmt.Errorf("%w: %s is a container, not a screen leaf", ErrUnreachableIndex, leaf)
	default:
		return Screen{}, fmt.Errorf("%w: unknown kind %T at %s", ErrInconsistentTree, k, leaf)
	}
}

// outermostPaginated walks the ancestors of i (i excluded) and returns
// the one closest to the root that renders as a field list.
func (c *Classifier) outermostPaginated(i formindex.Index) (formindex.Index, bool, error) {
	var anchor formindex.Index
	found := false
	for {
		p, err := c.w.parent(i)
		if err != nil {
			return formindex.Start, false, err
		}
		if p.IsStart() {
			return anchor, found, nil
		}
		k, err := c.w.kind(p)
		if err != nil {
			return formindex.Start, false, err
		}
		if formtree.IsPaginated(k) {
			anchor, found = p, true
		}
		i = p
	}
}

// fieldList flattens every relevant question under anchor, through
// plain groups, nested field lists and repeat instances alike.
func (c *Classifier) fieldList(anchor formindex.Index) (Screen, error) {
	s := Screen{Kind: ScreenFieldList, Index: anchor}
	if err := c.collect(anchor, &s); err != nil {
		return Screen{}, err
	}
	return s, nil
}

func (c *Classifier) collect(container formindex.Index, s *Screen) error {
	kids, err := c.w.children(container)
	if err != nil {
		return err
	}
	for _, kid := range kids {
		if !c.w.isRelevant(kid) {
			continue
		}
		k, err := c.w.kind(kid)
		if err != nil {
			return err
		}
		switch v := k.(type) {
		case formtree.Question:
			s.Questions = append(s.Questions, kid)
		case formtree.RepeatPrompt:
			if v.CanGrow {
				s.Prompts = append(s.Prompts, kid)
			}
		case formtree.Group, formtree.RepeatInstance:
			if err := c.collect(kid, s); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown kind %T at %s", ErrInconsistentTree, k, kid)
		}
	}
	return nil
}
