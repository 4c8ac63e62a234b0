// Package registry is the in-memory session store, the single source of
// truth for everything except liveness and effective status. Update
// persists the record to meta.json; Insert and Load expect records already on
// disk, and Touch changes memory only.
package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/JhihJian/SUMM-Daemon/pkg/session"
)

// timeNow is replaced in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// Registry maps session ids to session records behind a readers-writer
// lock. Lookup and list take the read lock; insert, update and delete take
// the write lock, which also serializes meta.json writes per session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	// skipReconcile marks sessions whose next reconciliation tick is
	// suppressed. Stop is write-through: the kill may not yet be visible
	// to tmux, and one skipped tick keeps reconciliation from briefly
	// resurrecting a stopped session.
	skipReconcile map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		sessions:      make(map[string]*session.Session),
		skipReconcile: make(map[string]struct{}),
	}
}

// Load replaces the registry contents, used at startup recovery.
func (r *Registry) Load(sessions map[string]*session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*session.Session, len(sessions))
	for id, s := range sessions {
		copied := *s
		r.sessions[id] = &copied
	}
}

// Insert adds a new session record. Ids must not collide.
func (r *Registry) Insert(s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.SessionID]; exists {
		return fmt.Errorf("session id collision: %s", s.SessionID)
	}
	copied := *s
	r.sessions[s.SessionID] = &copied
	return nil
}

// Get returns a copy of the session record, if present.
func (r *Registry) Get(sessionID string) (session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return session.Session{}, false
	}
	return *s, true
}

// List returns projections of all sessions matching the optional status
// filter, sorted by creation time descending. An unknown filter value
// yields an empty result.
func (r *Registry) List(statusFilter string) []session.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filter session.Status
	filtered := statusFilter != ""
	if filtered {
		parsed, ok := session.ParseStatus(statusFilter)
		if !ok {
			return []session.Info{}
		}
		filter = parsed
	}

	infos := make([]session.Info, 0, len(r.sessions))
	for _, s := range r.sessions {
		if filtered && s.Status != filter {
			continue
		}
		infos = append(infos, s.ToInfo())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// Snapshot returns copies of all session records.
func (r *Registry) Snapshot() []session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

// Count returns the number of sessions satisfying the predicate.
func (r *Registry) Count(pred func(*session.Session) bool) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sessions {
		if pred(s) {
			n++
		}
	}
	return n
}

// Update applies mutate to the session under the write lock and persists
// the record to meta.json.
func (r *Registry) Update(sessionID string, mutate func(*session.Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	mutate(s)
	return s.SaveMetadata()
}

// Touch refreshes the session's last-activity timestamp in memory. The new
// value rides along with the next persisted update.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		s.LastActivity = timeNow()
	}
}

// Delete removes the session record and its on-disk directory tree.
func (r *Registry) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	delete(r.sessions, sessionID)
	delete(r.skipReconcile, sessionID)
	if err := os.RemoveAll(s.Workdir); err != nil {
		return fmt.Errorf("failed to remove session directory %s: %w", s.Workdir, err)
	}
	return nil
}

// SkipNextReconcile suppresses the next reconciliation tick for the session.
func (r *Registry) SkipNextReconcile(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipReconcile[sessionID] = struct{}{}
}

// ConsumeSkip reports and clears the session's skip flag.
func (r *Registry) ConsumeSkip(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.skipReconcile[sessionID]; ok {
		delete(r.skipReconcile, sessionID)
		return true
	}
	return false
}
