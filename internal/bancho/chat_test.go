package bancho

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

func TestPublicMessage_OverlongIsTruncatedWithNotice(t *testing.T) {
	s := newMPServer()
	sender := newTestSession(1001, "sender", "tok-s")
	member := newTestSession(1002, "member", "tok-m")
	s.sessions.Register(sender)
	s.sessions.Register(member)

	c := model.NewChannel("#osu", "main", constants.PrivAnyone, constants.PrivAnyone, true, false)
	s.channels.Add(c)
	require.True(t, s.joinChannel(sender, c))
	require.True(t, s.joinChannel(member, c))
	sender.Dequeue()
	member.Dequeue()

	long := strings.Repeat("a", maxMessageLength+500)
	require.NoError(t, s.handlePublicMessage(context.Background(), sender, messagePayload(long, "#osu")))

	msgs := drainMessages(t, member)
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasSuffix(msgs[0], "... (truncated)"))
	assert.Len(t, msgs[0], maxMessageLength+len("... (truncated)"))

	assert.Contains(t, drainPacketIDs(t, sender), packet.ServerNotification,
		"sender is told their message was cut")
}

func TestPublicMessage_ShortPassesUntouched(t *testing.T) {
	s := newMPServer()
	sender := newTestSession(1001, "sender", "tok-s")
	member := newTestSession(1002, "member", "tok-m")
	s.sessions.Register(sender)
	s.sessions.Register(member)

	c := model.NewChannel("#osu", "main", constants.PrivAnyone, constants.PrivAnyone, true, false)
	s.channels.Add(c)
	require.True(t, s.joinChannel(sender, c))
	require.True(t, s.joinChannel(member, c))
	sender.Dequeue()
	member.Dequeue()

	require.NoError(t, s.handlePublicMessage(context.Background(), sender, messagePayload("hello #osu", "#osu")))

	msgs := drainMessages(t, member)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello #osu", msgs[0])
	assert.Zero(t, sender.QueueLen(), "no notice for a normal-length message")
}
