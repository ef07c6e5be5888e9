package model

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osukon/banchod/internal/constants"
)

// Country is the resolved country of a session's IP.
type Country struct {
	Acronym string
	Numeric uint8
}

// Geolocation is the resolved location of a session's IP.
type Geolocation struct {
	Latitude  float64
	Longitude float64
	Country   Country
}

// OsuVersion is the parsed client version, e.g. b20200201.2cuttingedge.
type OsuVersion struct {
	Date     time.Time
	Revision int    // 0 when absent
	Stream   string // stable, beta, cuttingedge, tourney, dev
}

// ClientDetails is the hardware fingerprint submitted at login.
type ClientDetails struct {
	OsuVersion       OsuVersion
	OsuPathMD5       string
	AdaptersMD5      string
	UninstallMD5     string
	DiskSignatureMD5 string
	Adapters         []string
	IP               string
}

// LastNp is the most recent /np'd beatmap, kept briefly for chat commands.
type LastNp struct {
	Beatmap *Beatmap
	ModeVN  uint8
	Timeout time.Time
}

// ModeStats is a player's stats in a single game mode.
type ModeStats struct {
	TotalScore  int64
	RankedScore int64
	PP          int32
	Accuracy    float32 // 0-100
	Plays       int32
	MaxCombo    int32
	Rank        int32 // global
}

// Session is a logged-in client. The session registry exclusively owns the
// set of live sessions; other subsystems hold *Session pointers that become
// inert once the session is ejected.
//
// The outbound byte queue has its own lock and may be appended to from any
// goroutine. The remaining mutable fields are only touched while handling
// the session's own requests or under the registry's write lock.
type Session struct {
	ID       int32
	Name     string
	SafeName string
	Token    string
	Priv     constants.Privileges
	PwBcrypt []byte

	Friends map[int32]struct{}
	Blocks  map[int32]struct{}

	Geoloc        Geolocation
	ClientDetails *ClientDetails

	Status Status
	Stats  [9]ModeStats

	UTCOffset  int
	PMPrivate  bool
	AwayMsg    string
	SilenceEnd int64 // unix seconds
	InLobby    bool
	PresFilter PresenceFilter
	Stealth    bool

	BotClient     bool
	TourneyClient bool

	LoginTime time.Time
	lastRecv  atomic.Int64 // unix nanos

	Channels   []*Channel
	Spectators []*Session
	Spectating *Session
	Match      *Match

	LastNp      *LastNp
	CurrentMenu int32

	queueMu sync.Mutex
	queue   []byte
}

// MakeSafeName derives the case-insensitive lookup key for a username.
func MakeSafeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Enqueue appends raw packet data to the session's outbound queue.
func (s *Session) Enqueue(data []byte) {
	if len(data) == 0 {
		return
	}
	s.queueMu.Lock()
	s.queue = append(s.queue, data...)
	s.queueMu.Unlock()
}

// Dequeue drains the outbound queue, returning everything enqueued so far,
// or nil if the queue is empty.
func (s *Session) Dequeue() []byte {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	data := s.queue
	s.queue = nil
	return data
}

// QueueLen returns the number of bytes pending for the client.
func (s *Session) QueueLen() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.queue)
}

// LastRecvTime returns the time of the last request from this session.
func (s *Session) LastRecvTime() time.Time {
	return time.Unix(0, s.lastRecv.Load())
}

// SetLastRecvTime records request activity.
func (s *Session) SetLastRecvTime(t time.Time) {
	s.lastRecv.Store(t.UnixNano())
}

// Online reports whether the session holds a live token.
func (s *Session) Online() bool {
	return s.Token != ""
}

// Restricted reports whether the session lacks the unrestricted bit.
func (s *Session) Restricted() bool {
	return !s.Priv.HasAny(constants.PrivUnrestricted)
}

// RemainingSilence returns the seconds left on the session's silence.
func (s *Session) RemainingSilence(now time.Time) int32 {
	remaining := s.SilenceEnd - now.Unix()
	if remaining < 0 {
		return 0
	}
	return int32(remaining)
}

// Silenced reports whether the session is currently silenced.
func (s *Session) Silenced(now time.Time) bool {
	return s.RemainingSilence(now) != 0
}

// BanchoPriv returns the client-facing privilege bits.
func (s *Session) BanchoPriv() constants.ClientPrivileges {
	return constants.ClientPrivs(s.Priv)
}

// GMStats returns the stats for the session's currently selected mode.
func (s *Session) GMStats() *ModeStats {
	return &s.Stats[s.Status.Mode]
}

// IsFriend reports whether id is in the session's friends set.
func (s *Session) IsFriend(id int32) bool {
	_, ok := s.Friends[id]
	return ok
}

// HasBlocked reports whether id is in the session's blocks set.
func (s *Session) HasBlocked(id int32) bool {
	_, ok := s.Blocks[id]
	return ok
}

// FriendIDs returns the friends set as a slice for the friends_list packet.
func (s *Session) FriendIDs() []int32 {
	ids := make([]int32, 0, len(s.Friends))
	for id := range s.Friends {
		ids = append(ids, id)
	}
	return ids
}
