package bancho

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

// clientFrame frames a raw client payload: id (u16), pad, length (u32).
func clientFrame(id packet.ClientPacketID, payload []byte) []byte {
	n := len(payload)
	out := []byte{
		byte(id), byte(id >> 8), 0,
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
	}
	return append(out, payload...)
}

func messagePayload(text, recipient string) []byte {
	w := packet.NewWriter(64)
	w.WriteString("")
	w.WriteString(text)
	w.WriteString(recipient)
	w.WriteInt32(0)
	return w.Bytes()
}

func TestHandleRequest_BadFrameOnlyLosesItself(t *testing.T) {
	s := newMPServer()
	sess := newTestSession(1001, "player", "tok-p")
	s.sessions.Register(sess)

	// A length-correct frame whose payload fails to parse (bad string
	// marker), followed by a valid one.
	body := clientFrame(packet.ClientSetAwayMessage, []byte{0x05})
	body = append(body, clientFrame(packet.ClientSetAwayMessage, messagePayload("hello", ""))...)

	s.HandleRequest(context.Background(), sess, body)

	assert.Equal(t, "hello", sess.AwayMsg, "frames after a bad one still dispatch")
}

func TestHandleRequest_TruncatedFrameAbortsBody(t *testing.T) {
	s := newMPServer()
	sess := newTestSession(1001, "player", "tok-p")
	s.sessions.Register(sess)

	// Declared length runs past the body; the cursor cannot be trusted.
	body := clientFrame(packet.ClientSetAwayMessage, messagePayload("hello", ""))
	body[3] = 0xff

	s.HandleRequest(context.Background(), sess, body)

	assert.Empty(t, sess.AwayMsg)
}

func TestChangeAction_OutOfRangeMode(t *testing.T) {
	s := newMPServer()
	sess := newTestSession(1001, "player", "tok-p")
	s.sessions.Register(sess)

	w := packet.NewWriter(32)
	w.WriteByte(byte(model.ActionPlaying))
	w.WriteString("")
	w.WriteString("")
	w.WriteInt32(0)
	w.WriteByte(99)
	w.WriteInt32(0)

	require.NotPanics(t, func() {
		require.NoError(t, s.handleChangeAction(context.Background(), sess, w.Bytes()))
	})
	assert.Equal(t, constants.ModeVanillaOsu, sess.Status.Mode)
	require.NotPanics(t, func() { serverpackets.UserStats(sess) })
}
