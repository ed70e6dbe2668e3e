// Package audit records navigation events for form-entry sessions.
//
// The Emitter turns navigation transitions into Events and hands them to
// a Sink. Sink failures are logged and swallowed: an audit trail that
// cannot be written never blocks the user from moving through a form.
package audit

import (
	"log/slog"
	"time"

	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/navigation"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Kind is the audit event type.
type Kind string

const (
	KindQuestion        Kind = "question"
	KindGroup           Kind = "group"
	KindPromptNewRepeat Kind = "prompt-new-repeat"
	KindEndScreen       Kind = "end-screen"
	KindBeginning       Kind = "beginning-of-form"
	KindJump            Kind = "jump"
	KindAddRepeat       Kind = "add-repeat"
	KindDeleteRepeat    Kind = "delete-repeat"

	// Session lifecycle, emitted by the session layer.
	KindFormStart  Kind = "form-start"
	KindFormResume Kind = "form-resume"
	KindFormExit   Kind = "form-exit"
)

// Event is one audit record.
type Event struct {
	SessionID string    `json:"session_id"`
	Kind      Kind      `json:"kind"`
	Indices   []string  `json:"indices,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink stores events. Implementations must be safe for concurrent use:
// one sink is shared by every session of a server.
type Sink interface {
	Append(e Event) error
	Close() error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Append(Event) error { return nil }
func (NopSink) Close() error       { return nil }

// Emitter is a navigation.Observer bound to one session.
type Emitter struct {
	sessionID string
	sink      Sink
	logger    *slog.Logger
}

var _ navigation.Observer = (*Emitter)(nil)

// NewEmitter returns an emitter writing to sink. A nil logger means
// slog.Default().
func NewEmitter(sessionID string, sink Sink, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NopSink{}
	}
	return &Emitter{
		sessionID: sessionID,
		sink:      sink,
		logger:    logger.With("component", "audit", "session_id", sessionID),
	}
}

// OnTransition implements navigation.Observer.
func (em *Emitter) OnTransition(t navigation.Transition) {
	kind, indices := classify(t)
	em.Emit(kind, indices...)
}

// Emit records an event of kind touching indices. It never fails.
func (em *Emitter) Emit(kind Kind, indices ...formindex.Index) {
	e := Event{
		SessionID: em.sessionID,
		Kind:      kind,
		Timestamp: timeNow().UTC(),
	}
	for _, i := range indices {
		e.Indices = append(e.Indices, i.String())
	}
	if err := em.sink.Append(e); err != nil {
		em.logger.Warn("audit event dropped", "kind", string(kind), "error", err)
	}
}

// classify maps a transition to its event kind. Steps are described by
// the screen they land on; jumps and repeat changes by the operation.
// A jump records the requested index first, then the indices of the
// screen it resolved to.
func classify(t navigation.Transition) (Kind, []formindex.Index) {
	switch t.Op {
	case navigation.OpJump:
		out := []formindex.Index{t.Target}
		for _, i := range t.Screen.Indices() {
			if !i.Equal(t.Target) {
				out = append(out, i)
			}
		}
		return KindJump, out
	case navigation.OpAddRepeat:
		return KindAddRepeat, []formindex.Index{t.Target}
	case navigation.OpDeleteRepeat:
		return KindDeleteRepeat, []formindex.Index{t.Target}
	}
	switch t.Screen.Kind {
	case navigation.ScreenQuestion:
		return KindQuestion, t.Screen.Indices()
	case navigation.ScreenFieldList:
		return KindGroup, t.Screen.Indices()
	case navigation.ScreenNewRepeatPrompt:
		return KindPromptNewRepeat, t.Screen.Indices()
	case navigation.ScreenEnd:
		return KindEndScreen, nil
	}
	return KindBeginning, nil
}
