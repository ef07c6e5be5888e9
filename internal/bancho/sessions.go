package bancho

import (
	"sync"

	"github.com/osukon/banchod/internal/model"
)

// SessionManager owns every logged-in session.
// Provides token/id/name lookup and presence broadcast.
// Thread-safe for concurrent access.
type SessionManager struct {
	mu      sync.RWMutex
	byToken map[string]*model.Session
	byID    map[int32]*model.Session
	byName  map[string]*model.Session // key: safe name
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		byToken: make(map[string]*model.Session, 512),
		byID:    make(map[int32]*model.Session, 512),
		byName:  make(map[string]*model.Session, 512),
	}
}

// Register adds a session to all indexes.
func (sm *SessionManager) Register(s *model.Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.byToken[s.Token] = s
	sm.byID[s.ID] = s
	sm.byName[s.SafeName] = s
}

// Unregister removes a session from all indexes. Returns false if the
// session was already gone (e.g. evicted by a ghost takeover).
func (sm *SessionManager) Unregister(s *model.Session) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.byToken[s.Token] != s {
		return false
	}
	delete(sm.byToken, s.Token)
	delete(sm.byID, s.ID)
	delete(sm.byName, s.SafeName)
	return true
}

// GetByToken returns the session holding token, or nil.
func (sm *SessionManager) GetByToken(token string) *model.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.byToken[token]
}

// GetByID returns the session for a user id, or nil.
func (sm *SessionManager) GetByID(id int32) *model.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.byID[id]
}

// GetByName returns the session for a username (any casing), or nil.
func (sm *SessionManager) GetByName(name string) *model.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.byName[model.MakeSafeName(name)]
}

// All returns a snapshot of every session.
func (sm *SessionManager) All() []*model.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*model.Session, 0, len(sm.byID))
	for _, s := range sm.byID {
		out = append(out, s)
	}
	return out
}

// Unrestricted returns a snapshot of sessions visible to normal players.
func (sm *SessionManager) Unrestricted() []*model.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*model.Session, 0, len(sm.byID))
	for _, s := range sm.byID {
		if !s.Restricted() {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.byID)
}

// EnqueueAll appends data to every session's queue.
func (sm *SessionManager) EnqueueAll(data []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, s := range sm.byID {
		s.Enqueue(data)
	}
}

// EnqueueUnrestricted appends data to every unrestricted session's queue,
// skipping ids in skip.
func (sm *SessionManager) EnqueueUnrestricted(data []byte, skip ...int32) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
outer:
	for _, s := range sm.byID {
		if s.Restricted() {
			continue
		}
		for _, id := range skip {
			if s.ID == id {
				continue outer
			}
		}
		s.Enqueue(data)
	}
}
