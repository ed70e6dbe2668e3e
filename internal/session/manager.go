package session

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/HendryAvila/formnav/internal/audit"
	"github.com/HendryAvila/formnav/internal/formdef"
	"github.com/HendryAvila/formnav/internal/formindex"
	"github.com/HendryAvila/formnav/internal/instance"
	"github.com/HendryAvila/formnav/internal/navigation"
)

// Live is an open session: the instance tree and the engine walking it.
// All access goes through Manager.Do, which holds mu for the whole
// operation.
type Live struct {
	mu sync.Mutex

	ID             string
	FormID         string
	DefinitionPath string
	Tree           *instance.Tree
	Engine         *navigation.Engine

	emitter *audit.Emitter
}

// Manager owns the live sessions of one process.
type Manager struct {
	store   *Store
	sink    audit.Sink
	logger  *slog.Logger
	defsDir string

	mu   sync.Mutex
	live map[string]*Live
}

// NewManager returns a manager persisting to store and auditing to sink.
// Relative definition paths are resolved against defsDir.
func NewManager(store *Store, sink audit.Sink, defsDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Manager{
		store:   store,
		sink:    sink,
		logger:  logger.With("component", "session"),
		defsDir: defsDir,
		live:    make(map[string]*Live),
	}
}

func (m *Manager) resolvePath(p string) string {
	if filepath.IsAbs(p) || m.defsDir == "" {
		return p
	}
	return filepath.Join(m.defsDir, p)
}

func (m *Manager) build(id, defPath string, def *formdef.Definition) *Live {
	tree := instance.New(def)
	return &Live{
		ID:             id,
		FormID:         def.ID,
		DefinitionPath: defPath,
		Tree:           tree,
		Engine:         navigation.NewEngine(tree, navigation.WithLogger(m.logger.With("session_id", id))),
		emitter:        audit.NewEmitter(id, m.sink, m.logger),
	}
}

// Open starts a new session on the definition at defPath.
func (m *Manager) Open(defPath string) (*Live, error) {
	path := m.resolvePath(defPath)
	def, err := formdef.Load(path)
	if err != nil {
		return nil, err
	}
	rec, err := m.store.Create(def.ID, path)
	if err != nil {
		return nil, err
	}

	l := m.build(rec.ID, path, def)
	l.Engine.SetObserver(l.emitter)
	l.emitter.Emit(audit.KindFormStart)

	m.mu.Lock()
	m.live[l.ID] = l
	m.mu.Unlock()

	m.logger.Info("session opened", "session_id", l.ID, "form_id", l.FormID)
	return l, nil
}

// Resume reattaches to a persisted open session. The saved index is
// restored with a jump; when it no longer resolves (the instance tree
// is rebuilt from the definition) the session restarts at Start.
func (m *Manager) Resume(id string) (*Live, error) {
	m.mu.Lock()
	if l, ok := m.live[id]; ok {
		m.mu.Unlock()
		return l, nil
	}
	m.mu.Unlock()

	rec, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusOpen {
		return nil, fmt.Errorf("%w: %s", ErrClosed, id)
	}
	def, err := formdef.Load(rec.DefinitionPath)
	if err != nil {
		return nil, err
	}

	l := m.build(rec.ID, rec.DefinitionPath, def)
	saved, err := formindex.Parse(rec.CurrentIndex)
	if err == nil {
		_, err = l.Engine.JumpTo(saved)
	}
	switch {
	case errors.Is(err, navigation.ErrInconsistentTree):
		return nil, err
	case err != nil:
		m.logger.Info("saved position unavailable, restarting form",
			"session_id", id, "index", rec.CurrentIndex, "error", err)
	}
	l.Engine.SetObserver(l.emitter)

	// Only the caller that publishes the session reports the resume, and
	// it does so before anyone else can navigate it.
	l.mu.Lock()
	defer l.mu.Unlock()
	m.mu.Lock()
	if existing, ok := m.live[id]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.live[id] = l
	m.mu.Unlock()

	l.emitter.Emit(audit.KindFormResume, l.Engine.CurrentIndex())
	return l, nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Live, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.live[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not open", ErrNotFound, id)
	}
	return l, nil
}

// Do runs fn with the session locked and saves the resulting index. A
// failed save is logged; the in-memory position stays authoritative.
// An inconsistent instance tree closes the session.
func (m *Manager) Do(id string, fn func(l *Live) (navigation.Screen, error)) (navigation.Screen, error) {
	l, err := m.Get(id)
	if err != nil {
		return navigation.Screen{}, err
	}

	l.mu.Lock()
	s, err := fn(l)
	current := l.Engine.CurrentIndex()
	l.mu.Unlock()

	if errors.Is(err, navigation.ErrInconsistentTree) {
		if cerr := m.Close(id); cerr != nil {
			m.logger.Warn("closing broken session failed", "session_id", id, "error", cerr)
		}
		return s, err
	}
	if serr := m.store.SaveIndex(id, current); serr != nil {
		m.logger.Warn("saving session position failed", "session_id", id, "error", serr)
	}
	return s, err
}

// Close ends a live session and marks it closed in the store.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	l, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s is not open", ErrNotFound, id)
	}

	l.mu.Lock()
	l.emitter.Emit(audit.KindFormExit, l.Engine.CurrentIndex())
	l.mu.Unlock()

	if err := m.store.SetStatus(id, StatusClosed); err != nil {
		return err
	}
	m.logger.Info("session closed", "session_id", id)
	return nil
}

// Summary describes a live session.
type Summary struct {
	ID           string `json:"id"`
	FormID       string `json:"form_id"`
	CurrentIndex string `json:"current_index"`
}

// Active lists live sessions ordered by id.
func (m *Manager) Active() []Summary {
	m.mu.Lock()
	sessions := make([]*Live, 0, len(m.live))
	for _, l := range m.live {
		sessions = append(sessions, l)
	}
	m.mu.Unlock()

	out := make([]Summary, 0, len(sessions))
	for _, l := range sessions {
		l.mu.Lock()
		out = append(out, Summary{ID: l.ID, FormID: l.FormID, CurrentIndex: l.Engine.CurrentIndex().String()})
		l.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
