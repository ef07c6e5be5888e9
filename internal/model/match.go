package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/osukon/banchod/internal/constants"
)

// MaxMatches is the size of the match registry; match ids are 0-63.
const MaxMatches = 64

// SlotStatus is the state bitfield of a multiplayer slot.
type SlotStatus uint8

const (
	SlotOpen     SlotStatus = 1 << 0
	SlotLocked   SlotStatus = 1 << 1
	SlotNotReady SlotStatus = 1 << 2
	SlotReady    SlotStatus = 1 << 3
	SlotNoMap    SlotStatus = 1 << 4
	SlotPlaying  SlotStatus = 1 << 5
	SlotComplete SlotStatus = 1 << 6

	// SlotHasPlayer masks every occupied state.
	SlotHasPlayer = SlotNotReady | SlotReady | SlotNoMap | SlotPlaying | SlotComplete

	// SlotQuit marks a mid-game leaver in the playing-slot bitmask
	// of the match start packet.
	SlotQuit SlotStatus = 1 << 7
)

// MatchTeam is a slot's team assignment.
type MatchTeam uint8

const (
	TeamNeutral MatchTeam = iota
	TeamBlue
	TeamRed
)

func (t MatchTeam) String() string {
	switch t {
	case TeamBlue:
		return "Blue"
	case TeamRed:
		return "Red"
	default:
		return "Neutral"
	}
}

// MatchTeamType is the room's team arrangement.
type MatchTeamType uint8

const (
	TeamTypeHeadToHead MatchTeamType = iota
	TeamTypeTagCoop
	TeamTypeTeamVS
	TeamTypeTagTeamVS
)

// MatchWinCondition decides how scores are compared.
type MatchWinCondition uint8

const (
	WinConditionScore MatchWinCondition = iota
	WinConditionAccuracy
	WinConditionCombo
	WinConditionScoreV2
)

// Slot is one of a match's 16 player slots.
type Slot struct {
	Session *Session
	Status  SlotStatus
	Team    MatchTeam
	Mods    constants.Mods
	Loaded  bool
	Skipped bool
}

// Empty reports whether no player occupies the slot.
func (s *Slot) Empty() bool {
	return s.Session == nil
}

// CopyFrom moves another slot's occupant and per-player state into s.
func (s *Slot) CopyFrom(other *Slot) {
	s.Session = other.Session
	s.Status = other.Status
	s.Team = other.Team
	s.Mods = other.Mods
}

// Reset returns the slot to an unoccupied state.
func (s *Slot) Reset(status SlotStatus) {
	s.Session = nil
	s.Status = status
	s.Team = TeamNeutral
	s.Mods = constants.ModNoMod
	s.Loaded = false
	s.Skipped = false
}

// StartCountdown is a pending timed match start (!mp start <seconds>).
type StartCountdown struct {
	EndsAt time.Time
	Cancel func()
}

// MapBan is a map banned from a scrimmage.
type MapBan struct {
	Mods  constants.Mods
	MapID int32
}

// Match is a multiplayer room. The embedded mutex guards all mutable state;
// packet handlers lock it for the duration of the operation.
type Match struct {
	sync.Mutex

	ID     int32
	Name   string
	Passwd string
	HostID int32

	MapID   int32
	MapMD5  string
	MapName string
	// Previously picked map, restored when the host aborts map selection.
	PrevMapID int32

	Mode         constants.GameMode
	Mods         constants.Mods
	Freemods     bool
	TeamType     MatchTeamType
	WinCondition MatchWinCondition

	InProgress bool
	StartedAt  time.Time
	Starting   *StartCountdown
	Seed       int32

	Chat  *Channel
	Slots [16]Slot

	UsePPScoring bool

	// Scrimmage state.
	IsScrimming    bool
	WinningPts     int
	UseScrimBans   bool
	Bans           []MapBan
	PointsByTeam   map[MatchTeam]int
	PointsByPlayer map[int32]int
	// One entry per completed scrim map; a nil-player neutral entry is a tie.
	Winners []ScrimWinner

	// Extra session ids allowed in (tourney manager clients).
	TourneyClients map[int32]struct{}
}

// ScrimWinner records the outcome of one scrimmage map.
type ScrimWinner struct {
	PlayerID   int32
	PlayerName string
	Team       MatchTeam
	Tie        bool
}

// NewMatch initialises a room with all slots open and empty scrim state.
func NewMatch(id int32) *Match {
	m := &Match{
		ID:             id,
		PrevMapID:      -1,
		PointsByTeam:   make(map[MatchTeam]int),
		PointsByPlayer: make(map[int32]int),
		TourneyClients: make(map[int32]struct{}),
	}
	for i := range m.Slots {
		m.Slots[i].Reset(SlotOpen)
	}
	return m
}

// Embed returns the osu! chat embed for the match.
func (m *Match) Embed() string {
	return fmt.Sprintf("[osump://%d/%s %s]", m.ID, m.Passwd, m.Name)
}

// Host returns the session occupying the host's slot, or nil if the host
// is not seated (tourney-managed rooms).
func (m *Match) Host() *Session {
	for i := range m.Slots {
		if s := m.Slots[i].Session; s != nil && s.ID == m.HostID {
			return s
		}
	}
	return nil
}

// SlotOf returns the slot and its index for a seated session, or (nil, -1).
func (m *Match) SlotOf(sess *Session) (*Slot, int) {
	for i := range m.Slots {
		if m.Slots[i].Session == sess {
			return &m.Slots[i], i
		}
	}
	return nil, -1
}

// FreeSlotID returns the index of the first open slot, or -1 if full.
func (m *Match) FreeSlotID() int {
	for i := range m.Slots {
		if m.Slots[i].Status == SlotOpen {
			return i
		}
	}
	return -1
}

// Players returns every seated session.
func (m *Match) Players() []*Session {
	out := make([]*Session, 0, len(m.Slots))
	for i := range m.Slots {
		if s := m.Slots[i].Session; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// UnreadyPlayers flips slots in expectedStatus back to not-ready.
func (m *Match) UnreadyPlayers(expectedStatus SlotStatus) {
	for i := range m.Slots {
		if m.Slots[i].Status == expectedStatus {
			m.Slots[i].Status = SlotNotReady
		}
	}
}

// ResetPlayersLoadedStatuses clears the per-map load/skip barriers.
func (m *Match) ResetPlayersLoadedStatuses() {
	for i := range m.Slots {
		m.Slots[i].Loaded = false
		m.Slots[i].Skipped = false
	}
}

// ResetScrim clears all scrimmage bookkeeping.
func (m *Match) ResetScrim() {
	m.PointsByTeam = make(map[MatchTeam]int)
	m.PointsByPlayer = make(map[int32]int)
	m.Winners = nil
	m.Bans = nil
}

// Enqueue sends data to the match chat members, skipping ids in skip.
// Tourney manager clients observing the match receive everything sent to
// its chat, so this reaches them as well.
func (m *Match) Enqueue(data []byte, skip ...int32) {
	m.Chat.Enqueue(data, skip...)
}

// EnqueueState fans gameplay traffic (score frames, start/load/skip/
// complete barriers) through the match chat: seated players plus any
// tourney observers, never the lobby.
func (m *Match) EnqueueState(data []byte) {
	m.Chat.Enqueue(data)
}

// EnqueuePlayers sends data to seated players only. Used for the state
// copy that carries the password; observers get a stripped copy.
func (m *Match) EnqueuePlayers(data []byte) {
	for i := range m.Slots {
		if s := m.Slots[i].Session; s != nil {
			s.Enqueue(data)
		}
	}
}
