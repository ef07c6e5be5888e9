package bancho

import (
	"sync"

	"github.com/osukon/banchod/internal/model"
)

// MatchManager owns the fixed table of multiplayer rooms. Room ids are
// their table indexes; ids at or above the table size are menu keys.
type MatchManager struct {
	mu      sync.RWMutex
	matches [model.MaxMatches]*model.Match
}

// NewMatchManager creates an empty match table.
func NewMatchManager() *MatchManager {
	return &MatchManager{}
}

// Create claims the first free id and installs a new match there.
// Returns nil when the table is full.
func (mm *MatchManager) Create() *model.Match {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	for i := range mm.matches {
		if mm.matches[i] == nil {
			m := model.NewMatch(int32(i))
			mm.matches[i] = m
			return m
		}
	}
	return nil
}

// Get returns the match with the given id, or nil.
func (mm *MatchManager) Get(id int32) *model.Match {
	if id < 0 || id >= model.MaxMatches {
		return nil
	}
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.matches[id]
}

// Remove frees a match's table slot.
func (mm *MatchManager) Remove(m *model.Match) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.matches[m.ID] == m {
		mm.matches[m.ID] = nil
	}
}

// All returns a snapshot of the active matches.
func (mm *MatchManager) All() []*model.Match {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	out := make([]*model.Match, 0, 8)
	for _, m := range mm.matches {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Len returns the number of active matches.
func (mm *MatchManager) Len() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	n := 0
	for _, m := range mm.matches {
		if m != nil {
			n++
		}
	}
	return n
}
