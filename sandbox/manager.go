package sandbox

import (
	"fmt"
	"os"
	"sync"

	"github.com/fenwick-systems/missioncore/runtime"
)

// Manager owns every session created under a process-scoped base
// directory, mirroring rustchain's SandboxManager/EnhancedSandbox
// session map. Concurrent reads are allowed; create/destroy take the
// exclusive lock, per spec.md §5's shared-resource policy.
type Manager struct {
	mu       sync.RWMutex
	baseDir  string
	sessions map[string]*Session
}

// NewManager creates a Manager rooted at baseDir, creating it if
// necessary.
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, runtime.NewMissionError("sandbox.NewManager", runtime.KindInternal, "", err)
	}
	return &Manager{baseDir: baseDir, sessions: make(map[string]*Session)}, nil
}

// CreateSession starts a new isolated session with cfg.
func (m *Manager) CreateSession(cfg Config) (*Session, error) {
	s, err := newSession(m.baseDir, cfg)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s, nil
}

// Session looks up a live session by id.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, runtime.NewMissionError("sandbox.Session", runtime.KindSandbox, id,
			fmt.Errorf("session not found: %s", id))
	}
	return s, nil
}

// DestroySession tears down and forgets a session.
func (m *Manager) DestroySession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return runtime.NewMissionError("sandbox.DestroySession", runtime.KindSandbox, id,
			fmt.Errorf("session not found: %s", id))
	}
	return s.Destroy()
}

// Sessions returns every currently-tracked session id.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}
