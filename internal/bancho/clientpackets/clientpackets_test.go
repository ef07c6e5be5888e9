package clientpackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

func TestParseChangeAction(t *testing.T) {
	w := packet.NewWriter(64)
	w.WriteByte(2) // playing
	w.WriteString("some map +HD")
	w.WriteString("1c1b67a5d78e1e423cbb2d9c2f55448f")
	w.WriteInt32(int32(constants.ModHidden))
	w.WriteByte(0)
	w.WriteInt32(741337)

	ca, err := ParseChangeAction(w.Bytes())
	require.NoError(t, err)

	assert.Equal(t, uint8(2), ca.Action)
	assert.Equal(t, "some map +HD", ca.InfoText)
	assert.Equal(t, "1c1b67a5d78e1e423cbb2d9c2f55448f", ca.MapMD5)
	assert.Equal(t, constants.ModHidden, ca.Mods)
	assert.Equal(t, uint8(0), ca.Mode)
	assert.Equal(t, int32(741337), ca.MapID)
}

func TestParseChangeAction_Truncated(t *testing.T) {
	w := packet.NewWriter(16)
	w.WriteByte(2)
	w.WriteString("text")

	_, err := ParseChangeAction(w.Bytes())
	assert.Error(t, err)
}

func TestParseMessage(t *testing.T) {
	w := packet.NewWriter(64)
	w.WriteString("junk sender")
	w.WriteString("hello there")
	w.WriteString("#osu")
	w.WriteInt32(999)

	msg, err := ParseMessage(w.Bytes())
	require.NoError(t, err)

	assert.Equal(t, "hello there", msg.Text)
	assert.Equal(t, "#osu", msg.Recipient)
}

func TestParseJoinMatch(t *testing.T) {
	w := packet.NewWriter(32)
	w.WriteInt32(17)
	w.WriteString("hunter2")

	jm, err := ParseJoinMatch(w.Bytes())
	require.NoError(t, err)

	assert.Equal(t, int32(17), jm.MatchID)
	assert.Equal(t, "hunter2", jm.Passwd)
}

// writeMatchPayload builds the wire layout the client sends for
// create-match and change-settings.
func writeMatchPayload(w *packet.Writer, statuses [16]byte, freemods bool) {
	w.WriteInt16(0) // match id (client junk)
	w.WriteByte(0)  // in_progress
	w.WriteByte(0)  // powerplay
	w.WriteInt32(int32(constants.ModDoubleTime))
	w.WriteString("my room")
	w.WriteString("secret")
	w.WriteString("Artist - Title [Diff]")
	w.WriteInt32(123456)
	w.WriteString("md5md5md5")
	for _, st := range statuses {
		w.WriteByte(st)
	}
	for range statuses {
		w.WriteByte(0) // teams
	}
	for _, st := range statuses {
		if model.SlotStatus(st)&model.SlotHasPlayer != 0 {
			w.WriteInt32(1001)
		}
	}
	w.WriteInt32(1001) // host
	w.WriteByte(0)     // mode
	w.WriteByte(1)     // win condition: accuracy
	w.WriteByte(2)     // team type: team vs
	w.WriteBool(freemods)
	if freemods {
		for range statuses {
			w.WriteInt32(0)
		}
	}
	w.WriteInt32(42) // seed
}

func TestParseMatch(t *testing.T) {
	var statuses [16]byte
	statuses[0] = byte(model.SlotNotReady)
	for i := 1; i < 16; i++ {
		statuses[i] = byte(model.SlotOpen)
	}

	for _, freemods := range []bool{false, true} {
		w := packet.NewWriter(256)
		writeMatchPayload(w, statuses, freemods)

		mp, err := ParseMatch(w.Bytes())
		require.NoError(t, err)

		assert.Equal(t, "my room", mp.Name)
		assert.Equal(t, "secret", mp.Passwd)
		assert.Equal(t, "Artist - Title [Diff]", mp.MapName)
		assert.Equal(t, int32(123456), mp.MapID)
		assert.Equal(t, "md5md5md5", mp.MapMD5)
		assert.Equal(t, int32(1001), mp.HostID)
		assert.Equal(t, constants.ModDoubleTime, mp.Mods)
		assert.Equal(t, model.WinConditionAccuracy, mp.WinCondition)
		assert.Equal(t, model.TeamTypeTeamVS, mp.TeamType)
		assert.Equal(t, freemods, mp.Freemods)
		assert.Equal(t, int32(42), mp.Seed)
	}
}
