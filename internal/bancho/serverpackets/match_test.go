package serverpackets

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

func testMatch() *model.Match {
	m := model.NewMatch(3)
	m.Name = "my room"
	m.Passwd = "secret"
	m.HostID = 1001
	m.MapID = 123456
	m.MapMD5 = "md5md5md5"
	m.MapName = "Artist - Title [Diff]"
	m.Mods = constants.ModHidden
	m.Seed = 42
	m.Slots[0].Session = &model.Session{ID: 1001}
	m.Slots[0].Status = model.SlotNotReady
	return m
}

// readMatchPasswd decodes a match frame far enough to return the password
// field bytes.
func readMatchPasswd(t *testing.T, frame []byte) []byte {
	t.Helper()
	r := packet.NewReader(frame)

	_, err := r.ReadHeader()
	require.NoError(t, err)
	_, err = r.ReadInt16() // id
	require.NoError(t, err)
	require.NoError(t, r.Skip(2)) // in_progress, powerplay
	_, err = r.ReadInt32()        // mods
	require.NoError(t, err)
	_, err = r.ReadString() // name
	require.NoError(t, err)

	start := r.Position()
	_, err = r.ReadString()
	require.NoError(t, err)
	return frame[start:r.Position()]
}

func TestUpdateMatch_PasswordHidden(t *testing.T) {
	m := testMatch()

	withPW := readMatchPasswd(t, UpdateMatch(m, true))
	assert.Equal(t, []byte{0x0b, 0x06, 's', 'e', 'c', 'r', 'e', 't'}, withPW)

	// Lobby copy: non-empty marker, zero length.
	hidden := readMatchPasswd(t, UpdateMatch(m, false))
	assert.Equal(t, []byte{0x0b, 0x00}, hidden)
}

func TestUpdateMatch_EmptyPasswordNotMasked(t *testing.T) {
	m := testMatch()
	m.Passwd = ""

	hidden := readMatchPasswd(t, UpdateMatch(m, false))
	assert.Equal(t, []byte{0x00}, hidden)
}

func TestUpdateMatch_RoundTripFields(t *testing.T) {
	m := testMatch()
	m.Freemods = true
	m.Slots[0].Mods = constants.ModHardRock

	frame := MatchJoinSuccess(m)
	r := packet.NewReader(frame)

	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, uint16(packet.ServerMatchJoinSuccess), uint16(h.ID))
	assert.Equal(t, int(h.Length), r.Remaining())

	id, err := r.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(3), id)

	require.NoError(t, r.Skip(2))
	mods, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, constants.ModHidden, constants.Mods(mods))

	name, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "my room", name)

	passwd, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "secret", passwd)

	mapName, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "Artist - Title [Diff]", mapName)

	mapID, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(123456), mapID)

	mapMD5, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "md5md5md5", mapMD5)

	// 16 statuses, 16 teams, one occupant id.
	require.NoError(t, r.Skip(32))
	occupant, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(1001), occupant)

	hostID, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(1001), hostID)

	require.NoError(t, r.Skip(3)) // mode, win condition, team type
	freemods, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, freemods)

	slotMods, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, constants.ModHardRock, constants.Mods(slotMods))
	require.NoError(t, r.Skip(15*4))

	seed, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(42), seed)
	assert.Equal(t, 0, r.Remaining())
}

func TestMatchScoreUpdate_PatchesSlot(t *testing.T) {
	// A client score frame starts with i32 time, u8 slot id.
	raw := make([]byte, 32)
	binary.LittleEndian.PutUint32(raw, 5000)
	raw[4] = 13 // client junk slot

	out := MatchScoreUpdate(raw, 6)

	assert.Equal(t, uint16(packet.ServerMatchScoreUpdate), binary.LittleEndian.Uint16(out))
	assert.Equal(t, uint32(len(raw)), binary.LittleEndian.Uint32(out[3:]))
	assert.Equal(t, byte(6), out[11])
}

func TestDisposeMatch(t *testing.T) {
	out := DisposeMatch(7)

	r := packet.NewReader(out)
	h, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, uint16(packet.ServerDisposeMatch), uint16(h.ID))

	id, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(7), id)
}
