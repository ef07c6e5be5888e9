package bancho

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/model"
)

// drainPacketIDs decodes the frame ids queued for a session.
func drainPacketIDs(t *testing.T, s *model.Session) []packet.ServerPacketID {
	t.Helper()
	r := packet.NewReader(s.Dequeue())

	var ids []packet.ServerPacketID
	for r.Remaining() > 0 {
		h, err := r.ReadHeader()
		require.NoError(t, err)
		require.NoError(t, r.Skip(int(h.Length)))
		ids = append(ids, packet.ServerPacketID(h.ID))
	}
	return ids
}

func TestSpectatorLifecycle(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	watcher := newTestSession(1002, "watcher", "tok-w")
	fellow := newTestSession(1003, "fellow", "tok-f")
	s.sessions.Register(host)
	s.sessions.Register(watcher)
	s.sessions.Register(fellow)

	ctx := context.Background()
	specChan := model.SpecChannelName(host.ID)

	require.NoError(t, s.handleStartSpectating(ctx, watcher, le32(host.ID)))

	assert.Same(t, host, watcher.Spectating)
	require.Len(t, host.Spectators, 1)
	c := s.channels.Get(specChan)
	require.NotNil(t, c, "first spectator creates the instance channel")
	assert.True(t, c.Contains(host), "host sits in their own channel")
	assert.True(t, c.Contains(watcher))

	require.NoError(t, s.handleStartSpectating(ctx, fellow, le32(host.ID)))
	assert.Len(t, host.Spectators, 2)

	// Replay frames fan out to the whole group.
	host.Dequeue()
	watcher.Dequeue()
	fellow.Dequeue()
	require.NoError(t, s.handleSpectateFrames(ctx, host, []byte{1, 2, 3}))
	assert.NotZero(t, watcher.QueueLen())
	assert.NotZero(t, fellow.QueueLen())
	assert.Zero(t, host.QueueLen())

	require.NoError(t, s.handleStopSpectating(ctx, watcher, nil))
	assert.Nil(t, watcher.Spectating)
	assert.Len(t, host.Spectators, 1)
	assert.NotNil(t, s.channels.Get(specChan), "channel survives while spectators remain")

	require.NoError(t, s.handleStopSpectating(ctx, fellow, nil))
	assert.Empty(t, host.Spectators)
	assert.Nil(t, s.channels.Get(specChan), "last spectator dissolves the channel")
}

func TestSpectate_RejoinSameHost(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	watcher := newTestSession(1002, "watcher", "tok-w")
	s.sessions.Register(host)
	s.sessions.Register(watcher)

	ctx := context.Background()
	require.NoError(t, s.handleStartSpectating(ctx, watcher, le32(host.ID)))
	// Map change: the client re-sends the spectate request.
	require.NoError(t, s.handleStartSpectating(ctx, watcher, le32(host.ID)))

	assert.Same(t, host, watcher.Spectating)
	assert.Len(t, host.Spectators, 1)
}

func TestSpectate_SwitchHosts(t *testing.T) {
	s := newMPServer()
	first := newTestSession(1001, "first", "tok-1")
	second := newTestSession(1002, "second", "tok-2")
	watcher := newTestSession(1003, "watcher", "tok-w")
	s.sessions.Register(first)
	s.sessions.Register(second)
	s.sessions.Register(watcher)

	ctx := context.Background()
	require.NoError(t, s.handleStartSpectating(ctx, watcher, le32(first.ID)))
	require.NoError(t, s.handleStartSpectating(ctx, watcher, le32(second.ID)))

	assert.Same(t, second, watcher.Spectating)
	assert.Empty(t, first.Spectators)
	assert.Len(t, second.Spectators, 1)
	assert.Nil(t, s.channels.Get(model.SpecChannelName(first.ID)))
}

func TestSpectate_StealthHidesJoin(t *testing.T) {
	s := newMPServer()
	host := newTestSession(1001, "host", "tok-h")
	watcher := newTestSession(1002, "watcher", "tok-w")
	sneak := newTestSession(1003, "sneak", "tok-s")
	sneak.Stealth = true
	s.sessions.Register(host)
	s.sessions.Register(watcher)
	s.sessions.Register(sneak)

	ctx := context.Background()
	require.NoError(t, s.handleStartSpectating(ctx, watcher, le32(host.ID)))

	host.Dequeue()
	watcher.Dequeue()
	require.NoError(t, s.handleStartSpectating(ctx, sneak, le32(host.ID)))

	// Neither the host nor the fellow hears a join announcement.
	assert.NotContains(t, drainPacketIDs(t, watcher), packet.ServerFellowSpectatorJoined)
	assert.NotContains(t, drainPacketIDs(t, host), packet.ServerSpectatorJoined)
	// The stealth spectator still learns who else is watching.
	assert.Contains(t, drainPacketIDs(t, sneak), packet.ServerFellowSpectatorJoined)
	assert.Len(t, host.Spectators, 2)
}

func TestSpectate_BotRejected(t *testing.T) {
	s := newMPServer()
	watcher := newTestSession(1002, "watcher", "tok-w")
	s.sessions.Register(watcher)

	require.NoError(t, s.handleStartSpectating(context.Background(), watcher, le32(s.bot.ID)))
	assert.Nil(t, watcher.Spectating)
}
