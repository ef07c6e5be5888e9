package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osukon/banchod/internal/constants"
)

// Channel is a chat channel. Instance channels (#spec_<id>, #multi_<id>)
// live only as long as their owning spectator group or match, and their
// member counts are broadcast to members only.
type Channel struct {
	RealName  string // e.g. #spec_1001
	Topic     string
	ReadPriv  constants.Privileges
	WritePriv constants.Privileges
	AutoJoin  bool
	Instance  bool

	mu      sync.RWMutex
	players []*Session
}

// SpecChannelName is the real name of a host's spectator channel.
func SpecChannelName(hostID int32) string {
	return fmt.Sprintf("#spec_%d", hostID)
}

// MultiChannelName is the real name of a match's chat channel.
func MultiChannelName(matchID int32) string {
	return fmt.Sprintf("#multi_%d", matchID)
}

// NewChannel creates a channel with no members.
func NewChannel(name, topic string, readPriv, writePriv constants.Privileges, autoJoin, instance bool) *Channel {
	return &Channel{
		RealName:  name,
		Topic:     topic,
		ReadPriv:  readPriv,
		WritePriv: writePriv,
		AutoJoin:  autoJoin,
		Instance:  instance,
	}
}

// Name returns the client-facing channel name: spectator and multiplayer
// instance channels are presented under their generic aliases.
func (c *Channel) Name() string {
	if strings.HasPrefix(c.RealName, "#spec_") {
		return "#spectator"
	}
	if strings.HasPrefix(c.RealName, "#multi_") {
		return "#multiplayer"
	}
	return c.RealName
}

// CanRead reports whether priv satisfies the channel's read requirement.
func (c *Channel) CanRead(priv constants.Privileges) bool {
	return c.ReadPriv == constants.PrivAnyone || priv.HasAny(c.ReadPriv)
}

// CanWrite reports whether priv satisfies the channel's write requirement.
func (c *Channel) CanWrite(priv constants.Privileges) bool {
	return c.WritePriv == constants.PrivAnyone || priv.HasAny(c.WritePriv)
}

// Contains reports whether s is a member of the channel.
func (c *Channel) Contains(s *Session) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.players {
		if p == s {
			return true
		}
	}
	return false
}

// Append adds s to the channel's member list.
func (c *Channel) Append(s *Session) {
	c.mu.Lock()
	c.players = append(c.players, s)
	c.mu.Unlock()
}

// Remove drops s from the channel's member list.
func (c *Channel) Remove(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.players {
		if p == s {
			c.players = append(c.players[:i], c.players[i+1:]...)
			return
		}
	}
}

// Len returns the current member count.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.players)
}

// Players returns a snapshot of the channel's members.
func (c *Channel) Players() []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Session, len(c.players))
	copy(out, c.players)
	return out
}

// Enqueue appends data to every member's queue, skipping ids in skip.
func (c *Channel) Enqueue(data []byte, skip ...int32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
outer:
	for _, p := range c.players {
		for _, id := range skip {
			if p.ID == id {
				continue outer
			}
		}
		p.Enqueue(data)
	}
}
