package model

import "github.com/osukon/banchod/internal/constants"

// Action is the client's current activity as shown to other players.
type Action uint8

const (
	ActionIdle Action = iota
	ActionAfk
	ActionPlaying
	ActionEditing
	ActionModding
	ActionMultiplayer
	ActionWatching
	ActionUnknown
	ActionTesting
	ActionSubmitting
	ActionPaused
	ActionLobby
	ActionMultiplaying
	ActionOsuDirect
)

// PresenceFilter is the client-side filter for which users the player sees.
type PresenceFilter int32

const (
	PresenceFilterNil PresenceFilter = iota
	PresenceFilterAll
	PresenceFilterFriends
)

// Status is the player's current in-game status, broadcast via user_stats.
type Status struct {
	Action   Action
	InfoText string
	MapMD5   string
	Mods     constants.Mods
	Mode     constants.GameMode
	MapID    int32
}
