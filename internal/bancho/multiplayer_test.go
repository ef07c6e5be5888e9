package bancho

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/config"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/metrics"
	"github.com/osukon/banchod/internal/model"
)

func newMPServer() *Server {
	s := &Server{
		cfg:      config.DefaultServer(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: NewSessionManager(),
		channels: NewChannelManager(),
		matches:  NewMatchManager(),
		metrics:  metrics.NewRegistry(),
		bot:      newTestSession(1, "Aoba", "tok-bot"),
	}
	s.bot.BotClient = true
	s.sessions.Register(s.bot)
	s.registerHandlers()
	return s
}

// newTestMatchWith creates a room and seats the given sessions in order.
func newTestMatchWith(s *Server, host *model.Session, others ...*model.Session) *model.Match {
	m := s.matches.Create()
	m.Name = "room"
	m.HostID = host.ID
	m.Chat = model.NewChannel(model.MultiChannelName(m.ID), "",
		constants.PrivAnyone, constants.PrivUnrestricted, false, true)
	s.channels.Add(m.Chat)

	for _, p := range append([]*model.Session{host}, others...) {
		s.joinMatch(context.Background(), p, m, m.Passwd)
		p.Dequeue()
	}
	return m
}

func le32(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestJoinMatch(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	s.sessions.Register(host)

	m := s.matches.Create()
	m.Name = "room"
	m.Passwd = "pw"
	m.HostID = host.ID
	m.TeamType = model.TeamTypeTeamVS
	m.Chat = model.NewChannel(model.MultiChannelName(m.ID), "",
		constants.PrivAnyone, constants.PrivUnrestricted, false, true)
	s.channels.Add(m.Chat)

	s.joinMatch(context.Background(), host, m, "pw")

	slot, idx := m.SlotOf(host)
	require.NotNil(t, slot)
	assert.Equal(t, 0, idx)
	assert.Equal(t, model.SlotNotReady, slot.Status)
	assert.Equal(t, model.TeamRed, slot.Team, "versus rooms default joiners to red")
	assert.Same(t, m, host.Match)
	assert.True(t, m.Chat.Contains(host))
	assert.NotZero(t, host.QueueLen())

	// Wrong password is rejected for non-staff.
	joiner := newTestSession(1002, "joiner", "tok-j")
	s.sessions.Register(joiner)
	s.joinMatch(context.Background(), joiner, m, "wrong")
	_, idx = m.SlotOf(joiner)
	assert.Equal(t, -1, idx)
	assert.Nil(t, joiner.Match)

	// Staff override.
	staff := newTestSession(1003, "staff", "tok-s")
	staff.Priv |= constants.PrivAdministrator
	s.sessions.Register(staff)
	s.joinMatch(context.Background(), staff, m, "")
	_, idx = m.SlotOf(staff)
	assert.NotEqual(t, -1, idx)
}

func TestJoinMatch_SilencedRejected(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	s.sessions.Register(host)
	m := newTestMatchWith(s, host)

	silenced := newTestSession(1002, "quiet", "tok-q")
	silenced.SilenceEnd = time.Now().Add(time.Hour).Unix()
	s.sessions.Register(silenced)

	w := packet.NewWriter(16)
	w.WriteInt32(m.ID)
	w.WriteString("")
	require.NoError(t, s.handleJoinMatch(context.Background(), silenced, w.Bytes()))

	_, idx := m.SlotOf(silenced)
	assert.Equal(t, -1, idx)
	assert.Nil(t, silenced.Match)

	ids := drainPacketIDs(t, silenced)
	assert.Contains(t, ids, packet.ServerMatchJoinFail)
	assert.Contains(t, ids, packet.ServerNotification)
}

func TestMatchStart_RequiresReadySlot(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	player := newTestSession(1002, "player", "tok-p")
	s.sessions.Register(host)
	s.sessions.Register(player)
	m := newTestMatchWith(s, host, player)

	ctx := context.Background()

	require.NoError(t, s.handleMatchStart(ctx, host, nil))
	assert.False(t, m.InProgress, "nobody readied up")

	require.NoError(t, s.handleMatchReady(ctx, player, nil))
	require.NoError(t, s.handleMatchStart(ctx, host, nil))
	assert.True(t, m.InProgress)
	assert.Equal(t, model.SlotPlaying, m.Slots[0].Status, "unready host is dragged in")
	assert.Equal(t, model.SlotPlaying, m.Slots[1].Status)
}

func TestMatchGameplayReachesTourneyObservers(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	s.sessions.Register(host)
	m := newTestMatchWith(s, host)

	observer := newTestSession(1002, "observer", "tok-o")
	observer.TourneyClient = true
	s.sessions.Register(observer)
	require.NoError(t, s.handleTournamentJoinMatchChannel(context.Background(), observer, le32(m.ID)))
	require.True(t, m.Chat.Contains(observer))

	s.StartMatch(m)
	ids := drainPacketIDs(t, observer)
	assert.Contains(t, ids, packet.ServerMatchStart)

	frame := make([]byte, 16)
	require.NoError(t, s.handleMatchScoreUpdate(context.Background(), host, frame))
	assert.Contains(t, drainPacketIDs(t, observer), packet.ServerMatchScoreUpdate)
}

func TestMatchLock(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	player := newTestSession(1002, "player", "tok-p")
	s.sessions.Register(host)
	s.sessions.Register(player)
	m := newTestMatchWith(s, host, player)

	ctx := context.Background()

	// Locking an open slot.
	require.NoError(t, s.handleMatchLock(ctx, host, le32(5)))
	assert.Equal(t, model.SlotLocked, m.Slots[5].Status)

	// Unlocking it again.
	require.NoError(t, s.handleMatchLock(ctx, host, le32(5)))
	assert.Equal(t, model.SlotOpen, m.Slots[5].Status)

	// Locking an occupied slot keeps the occupant but marks it locked.
	require.NoError(t, s.handleMatchLock(ctx, host, le32(1)))
	assert.Equal(t, model.SlotLocked, m.Slots[1].Status)
	assert.Same(t, player, m.Slots[1].Session)

	// The occupant of a locked seat leaves it locked behind them.
	s.leaveMatch(ctx, player)
	assert.Equal(t, model.SlotLocked, m.Slots[1].Status)
	assert.Nil(t, m.Slots[1].Session)

	// The host cannot lock themselves out.
	require.NoError(t, s.handleMatchLock(ctx, host, le32(0)))
	assert.Equal(t, model.SlotNotReady, m.Slots[0].Status)

	// Non-host lock requests are ignored.
	s.joinMatch(ctx, player, m, "")
	_, idx := m.SlotOf(player)
	require.NotEqual(t, -1, idx)
	require.NoError(t, s.handleMatchLock(ctx, player, le32(7)))
	assert.Equal(t, model.SlotOpen, m.Slots[7].Status)
}

func TestMatchStartFlow(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	player := newTestSession(1002, "player", "tok-p")
	s.sessions.Register(host)
	s.sessions.Register(player)
	m := newTestMatchWith(s, host, player)

	ctx := context.Background()

	require.NoError(t, s.handleMatchReady(ctx, host, nil))
	require.NoError(t, s.handleMatchReady(ctx, player, nil))
	assert.Equal(t, model.SlotReady, m.Slots[0].Status)

	// Only the host may start.
	require.NoError(t, s.handleMatchStart(ctx, player, nil))
	assert.False(t, m.InProgress)

	require.NoError(t, s.handleMatchStart(ctx, host, nil))
	assert.True(t, m.InProgress)
	assert.Equal(t, model.SlotPlaying, m.Slots[0].Status)
	assert.Equal(t, model.SlotPlaying, m.Slots[1].Status)

	// Load barrier: released only once every playing slot loaded.
	host.Dequeue()
	player.Dequeue()
	require.NoError(t, s.handleMatchLoadComplete(ctx, host, nil))
	assert.Zero(t, player.QueueLen())
	require.NoError(t, s.handleMatchLoadComplete(ctx, player, nil))
	assert.NotZero(t, player.QueueLen())

	// Completion barrier: the round ends when the last player finishes.
	require.NoError(t, s.handleMatchComplete(ctx, host, nil))
	assert.True(t, m.InProgress)
	assert.Equal(t, model.SlotComplete, m.Slots[0].Status)

	require.NoError(t, s.handleMatchComplete(ctx, player, nil))
	assert.False(t, m.InProgress)
	assert.Equal(t, model.SlotNotReady, m.Slots[0].Status)
	assert.Equal(t, model.SlotNotReady, m.Slots[1].Status)
}

func TestMatchSkipBarrier(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	player := newTestSession(1002, "player", "tok-p")
	s.sessions.Register(host)
	s.sessions.Register(player)
	m := newTestMatchWith(s, host, player)

	ctx := context.Background()
	s.StartMatch(m)
	host.Dequeue()
	player.Dequeue()

	require.NoError(t, s.handleMatchSkipRequest(ctx, host, nil))
	assert.True(t, m.Slots[0].Skipped)
	assert.False(t, m.Slots[1].Skipped)

	require.NoError(t, s.handleMatchSkipRequest(ctx, player, nil))
	assert.True(t, m.Slots[1].Skipped)
}

func TestMatchChangeMods_Freemods(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	player := newTestSession(1002, "player", "tok-p")
	s.sessions.Register(host)
	s.sessions.Register(player)
	m := newTestMatchWith(s, host, player)
	m.Freemods = true

	ctx := context.Background()

	// Host: speed mods go room-wide, the rest onto the host's own slot.
	mods := constants.ModDoubleTime | constants.ModHidden
	require.NoError(t, s.handleMatchChangeMods(ctx, host, le32(int32(mods))))
	assert.Equal(t, constants.ModDoubleTime, m.Mods)
	assert.Equal(t, constants.ModHidden, m.Slots[0].Mods)

	// Non-host: only their slot changes.
	mods = constants.ModHardRock | constants.ModDoubleTime
	require.NoError(t, s.handleMatchChangeMods(ctx, player, le32(int32(mods))))
	assert.Equal(t, constants.ModDoubleTime, m.Mods, "room mods untouched")
	assert.Equal(t, constants.ModHardRock, m.Slots[1].Mods)
}

func TestMatchChangeMods_HostOnlyWithoutFreemods(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	player := newTestSession(1002, "player", "tok-p")
	s.sessions.Register(host)
	s.sessions.Register(player)
	m := newTestMatchWith(s, host, player)

	ctx := context.Background()

	require.NoError(t, s.handleMatchChangeMods(ctx, player, le32(int32(constants.ModHidden))))
	assert.Equal(t, constants.ModNoMod, m.Mods)

	require.NoError(t, s.handleMatchChangeMods(ctx, host, le32(int32(constants.ModHidden))))
	assert.Equal(t, constants.ModHidden, m.Mods)
}

func TestLeaveMatch_HostTransferAndDispose(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	player := newTestSession(1002, "player", "tok-p")
	lurker := newTestSession(1003, "lurker", "tok-l")
	lurker.InLobby = true
	s.sessions.Register(host)
	s.sessions.Register(player)
	s.sessions.Register(lurker)
	m := newTestMatchWith(s, host, player)

	ctx := context.Background()

	s.leaveMatch(ctx, host)
	assert.Equal(t, player.ID, m.HostID, "host moves to the lowest occupied slot")
	assert.Nil(t, host.Match)

	lurker.Dequeue()
	s.leaveMatch(ctx, player)
	assert.Nil(t, s.matches.Get(m.ID), "empty room is disposed")
	assert.Nil(t, s.channels.Get(m.Chat.RealName))
	assert.NotZero(t, lurker.QueueLen(), "lobby hears the disposal")
}

func TestMatchChangeTeam(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	s.sessions.Register(host)
	m := newTestMatchWith(s, host)

	ctx := context.Background()

	// Ignored outside versus team types.
	require.NoError(t, s.handleMatchChangeTeam(ctx, host, nil))
	assert.Equal(t, model.TeamNeutral, m.Slots[0].Team)

	m.TeamType = model.TeamTypeTeamVS
	m.Slots[0].Team = model.TeamRed
	require.NoError(t, s.handleMatchChangeTeam(ctx, host, nil))
	assert.Equal(t, model.TeamBlue, m.Slots[0].Team)
	require.NoError(t, s.handleMatchChangeTeam(ctx, host, nil))
	assert.Equal(t, model.TeamRed, m.Slots[0].Team)
}

func TestMatchChangeSlot(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	s.sessions.Register(host)
	m := newTestMatchWith(s, host)

	ctx := context.Background()

	require.NoError(t, s.handleMatchChangeSlot(ctx, host, le32(7)))
	assert.Nil(t, m.Slots[0].Session)
	assert.Equal(t, model.SlotOpen, m.Slots[0].Status)
	assert.Same(t, host, m.Slots[7].Session)

	// Moving onto a locked slot is refused.
	m.Slots[3].Status = model.SlotLocked
	require.NoError(t, s.handleMatchChangeSlot(ctx, host, le32(3)))
	assert.Same(t, host, m.Slots[7].Session)
}
