package navigation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/formtree"
)

// Op names a navigation operation that changed the current index.
type Op string

const (
	OpStepForward  Op = "step-forward"
	OpStepBackward Op = "step-backward"
	OpJump         Op = "jump"
	OpAddRepeat    Op = "add-repeat"
	OpDeleteRepeat Op = "delete-repeat"
)

// Transition describes one successful navigation operation.
type Transition struct {
	Op   Op
	From formindex.Index
	// Target is the requested jump index, or the added or deleted repeat
	// instance. It is Start for plain steps.
	Target formindex.Index
	Screen Screen
}

// Observer is notified synchronously after every transition. It's an
// optional dependency; the engine works with a nil observer.
type Observer interface {
	OnTransition(t Transition)
}

func notifyObserver(obs Observer, t Transition) {
	if obs == nil {
		return
	}
	obs.OnTransition(t)
}

// Engine holds the current position of one form-entry session.
//
// Engine is not safe for concurrent use. Callers serialize navigation
// calls and finish saving answers (and any relevance recomputation they
// trigger) before stepping.
type Engine struct {
	model    formtree.Model
	observer Observer
	logger   *slog.Logger
	current  formindex.Index
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver installs the transition observer.
func WithObserver(obs Observer) EngineOption {
	return func(e *Engine) { e.observer = obs }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an engine positioned at Start.
func NewEngine(model formtree.Model, opts ...EngineOption) *Engine {
	e := &Engine{model: model, current: formindex.Start, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "navigation")
	return e
}

// SetObserver replaces the observer after construction.
func (e *Engine) SetObserver(obs Observer) { e.observer = obs }

// CurrentIndex returns the held index: a screen's canonical index or a
// sentinel.
func (e *Engine) CurrentIndex() formindex.Index { return e.current }

// AtStart reports whether the engine is before the first screen.
func (e *Engine) AtStart() bool { return e.current.IsStart() }

// AtEnd reports whether the engine is past the last screen.
func (e *Engine) AtEnd() bool { return e.current.IsEnd() }

// CurrentScreen re-derives the screen at the current index. If relevance
// changes removed it, the engine moves to the first screen after the
// vacated position without emitting a transition.
func (e *Engine) CurrentScreen() (Screen, error) {
	w := NewWalker(e.model)
	s, err := e.resolve(w, e.current)
	if errors.Is(err, ErrUnreachableIndex) {
		e.logger.Debug("current index unreachable, moving forward", "index", e.current.String())
		leaf, err := w.NextLeafAfter(e.current)
		if err != nil {
			return Screen{}, e.fail(err)
		}
		s, err = NewClassifier(w).Classify(leaf)
		if err != nil {
			return Screen{}, e.fail(err)
		}
		e.current = s.Index
		return s, nil
	}
	if err != nil {
		return Screen{}, e.fail(err)
	}
	return s, nil
}

// StepForward moves to the next screen. A field list is left in one
// step: the whole subtree of its anchor is skipped. At End it is a no-op
// that returns the End screen.
func (e *Engine) StepForward() (Screen, error) {
	if e.current.IsEnd() {
		return endScreen(), nil
	}
	w := NewWalker(e.model)
	from := e.current

	var leaf formindex.Index
	var err error
	if from.IsStart() {
		leaf, err = w.NextLeaf(from)
	} else {
		leaf, err = w.NextLeafAfter(from)
	}
	if err != nil {
		return Screen{}, e.fail(err)
	}
	s, err := NewClassifier(w).Classify(leaf)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	e.moveTo(Transition{Op: OpStepForward, From: from, Target: formindex.Start, Screen: s})
	return s, nil
}

// StepBackward moves to the start of the previous screen. At Start it
// is a no-op that returns the Start screen.
func (e *Engine) StepBackward() (Screen, error) {
	if e.current.IsStart() {
		return startScreen(), nil
	}
	w := NewWalker(e.model)
	from := e.current

	leaf, err := w.PreviousLeaf(from)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	s, err := NewClassifier(w).Classify(leaf)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	e.moveTo(Transition{Op: OpStepBackward, From: from, Target: formindex.Start, Screen: s})
	return s, nil
}

// JumpTo moves to the screen owning i. It fails with ErrUnreachableIndex
// when i, or any ancestor of it, is not relevant or does not exist; the
// current index is unchanged in that case.
func (e *Engine) JumpTo(i formindex.Index) (Screen, error) {
	w := NewWalker(e.model)
	s, err := e.resolve(w, i)
	if err != nil {
		return Screen{}, e.fail(err)
	}
	e.moveTo(Transition{Op: OpJump, From: e.current, Target: i, Screen: s})
	return s, nil
}

// resolve derives the screen owning i under current relevance.
func (e *Engine) resolve(w *Walker, i formindex.Index) (Screen, error) {
	switch {
	case i.IsStart():
		return startScreen(), nil
	case i.IsEnd():
		return endScreen(), nil
	}
	if _, err := e.model.Kind(i); err != nil {
		return Screen{}, fmt.Errorf("%w: %s: %v", ErrUnreachableIndex, i, err)
	}
	for a := i; !a.IsStart(); {
		if !w.isRelevant(a) {
			return Screen{}, fmt.Errorf("%w: %s is not relevant", ErrUnreachableIndex, a)
		}
		p, err := w.parent(a)
		if err != nil {
			return Screen{}, err
		}
		a = p
	}
	leaf, ok, err := w.FirstLeafIn(i)
	if err != nil {
		return Screen{}, err
	}
	if !ok {
		return Screen{}, fmt.Errorf("%w: nothing to show under %s", ErrUnreachableIndex, i)
	}
	return NewClassifier(w).Classify(leaf)
}

func (e *Engine) moveTo(t Transition) {
	e.current = t.Screen.Index
	e.logger.Debug("transition",
		"op", string(t.Op),
		"from", t.From.String(),
		"to", t.Screen.Index.String(),
		"screen", string(t.Screen.Kind),
	)
	notifyObserver(e.observer, t)
}

// fail logs tree inconsistencies, which end the session, and passes the
// error through.
func (e *Engine) fail(err error) error {
	if errors.Is(err, ErrInconsistentTree) {
		e.logger.Error("instance tree is inconsistent", "index", e.current.String(), "error", err)
	}
	return err
}
