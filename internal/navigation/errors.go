package navigation

import "errors"

var (
	// ErrNoSuchElement is returned when advancing past End or retreating
	// before Start. Callers check the boundary before walking.
	ErrNoSuchElement = errors.New("no such element")

	// ErrAtEndOfForm and ErrAtStartOfForm describe boundary no-ops. The
	// engine reports boundaries as state (the End or Start screen), so
	// these only surface from callers that insist on movement.
	ErrAtEndOfForm   = errors.New("at end of form")
	ErrAtStartOfForm = errors.New("at start of form")

	// ErrUnreachableIndex is returned when a jump target (or the held
	// position) is not relevant or no longer exists. Callers fall back
	// to a screen derived from Start.
	ErrUnreachableIndex = errors.New("index is not reachable")

	// ErrNotAtRepeatPrompt is a contract violation: PromptNewRepeat was
	// called while the current screen offers no repeat prompt.
	ErrNotAtRepeatPrompt = errors.New("current screen is not a repeat prompt")

	// ErrNoEnclosingRepeat is a contract violation: DeleteCurrentRepeat
	// was called outside any repeat instance.
	ErrNoEnclosingRepeat = errors.New("current screen is not inside a repeat instance")

	// ErrInconsistentTree is fatal for the form-entry session: the tree
	// model reported a topology that cannot be right.
	ErrInconsistentTree = errors.New("inconsistent instance tree")
)
