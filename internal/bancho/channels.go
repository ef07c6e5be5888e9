package bancho

import (
	"sync"

	"github.com/osukon/banchod/internal/model"
)

// ChannelManager owns every chat channel, persisted and instance alike.
// Thread-safe for concurrent access.
type ChannelManager struct {
	mu       sync.RWMutex
	channels map[string]*model.Channel // key: real name
}

// NewChannelManager creates an empty channel manager.
func NewChannelManager() *ChannelManager {
	return &ChannelManager{
		channels: make(map[string]*model.Channel, 32),
	}
}

// Add registers a channel under its real name.
func (cm *ChannelManager) Add(c *model.Channel) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.channels[c.RealName] = c
}

// Remove drops a channel.
func (cm *ChannelManager) Remove(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.channels, name)
}

// Get returns the channel with the given real name, or nil.
func (cm *ChannelManager) Get(name string) *model.Channel {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.channels[name]
}

// Resolve maps a client-facing channel name to the channel a session
// means by it: "#spectator" and "#multiplayer" are contextual aliases
// for the session's instance channels.
func (cm *ChannelManager) Resolve(name string, s *model.Session) *model.Channel {
	switch name {
	case "#spectator":
		var hostID int32
		if s.Spectating != nil {
			hostID = s.Spectating.ID
		} else if len(s.Spectators) > 0 {
			hostID = s.ID
		} else {
			return nil
		}
		return cm.Get(model.SpecChannelName(hostID))
	case "#multiplayer":
		if s.Match == nil {
			return nil
		}
		return s.Match.Chat
	}
	return cm.Get(name)
}

// All returns a snapshot of every channel.
func (cm *ChannelManager) All() []*model.Channel {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	out := make([]*model.Channel, 0, len(cm.channels))
	for _, c := range cm.channels {
		out = append(out, c)
	}
	return out
}
