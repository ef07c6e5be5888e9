package serverpackets

import (
	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/model"
)

// writeMatch serializes a match payload. The password is included only for
// recipients already inside the room (sendPW); lobby observers get a
// non-empty placeholder so the client still prompts for one.
func writeMatch(w *packet.Writer, m *model.Match, sendPW bool) {
	w.WriteInt16(int16(m.ID))
	w.WriteBool(m.InProgress)
	w.WriteByte(0) // powerplay
	w.WriteInt32(int32(m.Mods))
	w.WriteString(m.Name)

	if m.Passwd != "" && !sendPW {
		// Non-empty marker with zero length: "has a password".
		w.WriteBytes([]byte{0x0b, 0x00})
	} else {
		w.WriteString(m.Passwd)
	}

	w.WriteString(m.MapName)
	w.WriteInt32(m.MapID)
	w.WriteString(m.MapMD5)

	for i := range m.Slots {
		w.WriteByte(byte(m.Slots[i].Status))
	}
	for i := range m.Slots {
		w.WriteByte(byte(m.Slots[i].Team))
	}
	for i := range m.Slots {
		if m.Slots[i].Status&model.SlotHasPlayer != 0 && m.Slots[i].Session != nil {
			w.WriteInt32(m.Slots[i].Session.ID)
		}
	}

	w.WriteInt32(m.HostID)
	w.WriteByte(m.Mode.AsVanilla())
	w.WriteByte(byte(m.WinCondition))
	w.WriteByte(byte(m.TeamType))
	w.WriteBool(m.Freemods)
	if m.Freemods {
		for i := range m.Slots {
			w.WriteInt32(int32(m.Slots[i].Mods))
		}
	}
	w.WriteInt32(m.Seed)
}

// NewMatch announces a room's creation to the lobby.
func NewMatch(m *model.Match) []byte {
	return write(packet.ServerNewMatch, func(w *packet.Writer) {
		writeMatch(w, m, false)
	})
}

// UpdateMatch broadcasts a room's current state.
func UpdateMatch(m *model.Match, sendPW bool) []byte {
	return write(packet.ServerUpdateMatch, func(w *packet.Writer) {
		writeMatch(w, m, sendPW)
	})
}

// DisposeMatch removes a room from the lobby listing.
func DisposeMatch(id int32) []byte {
	return write(packet.ServerDisposeMatch, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// MatchJoinSuccess confirms a join with the room's full state.
func MatchJoinSuccess(m *model.Match) []byte {
	return write(packet.ServerMatchJoinSuccess, func(w *packet.Writer) {
		writeMatch(w, m, true)
	})
}

// MatchJoinFail rejects a join attempt.
func MatchJoinFail() []byte {
	return write(packet.ServerMatchJoinFail, nil)
}

// MatchStart pushes the starting room state to its players.
func MatchStart(m *model.Match) []byte {
	return write(packet.ServerMatchStart, func(w *packet.Writer) {
		writeMatch(w, m, true)
	})
}

// MatchTransferHost informs the new host.
func MatchTransferHost() []byte {
	return write(packet.ServerMatchTransferHost, nil)
}

// MatchAllPlayersLoaded releases the load barrier.
func MatchAllPlayersLoaded() []byte {
	return write(packet.ServerMatchAllPlayersLoaded, nil)
}

// MatchComplete ends gameplay for the room.
func MatchComplete() []byte {
	return write(packet.ServerMatchComplete, nil)
}

// MatchSkip releases the intro-skip barrier.
func MatchSkip() []byte {
	return write(packet.ServerMatchSkip, nil)
}

// MatchAbort aborts in-progress gameplay.
func MatchAbort() []byte {
	return write(packet.ServerMatchAbort, nil)
}

// MatchPlayerFailed reports a slot failing the current map.
func MatchPlayerFailed(slotID int32) []byte {
	return write(packet.ServerMatchPlayerFailed, func(w *packet.Writer) {
		w.WriteInt32(slotID)
	})
}

// MatchPlayerSkipped reports a player hitting the skip button.
func MatchPlayerSkipped(playerID int32) []byte {
	return write(packet.ServerMatchPlayerSkipped, func(w *packet.Writer) {
		w.WriteInt32(playerID)
	})
}

// MatchInvite carries a room invite to the target player.
func MatchInvite(senderName string, senderID int32, targetName, matchEmbed string) []byte {
	return write(packet.ServerMatchInvite, func(w *packet.Writer) {
		w.WriteString(senderName)
		w.WriteString("Come join my game: " + matchEmbed + ".")
		w.WriteString(targetName)
		w.WriteInt32(senderID)
	})
}

// MatchChangePassword pushes the room's new password to its members.
func MatchChangePassword(passwd string) []byte {
	return write(packet.ServerMatchChangePassword, func(w *packet.Writer) {
		w.WriteString(passwd)
	})
}

// scoreFrameSlotOffset is where the sender's slot id lives in a framed
// score update: 7 byte header + i32 time.
const scoreFrameSlotOffset = 11

// MatchScoreUpdate re-frames a raw client score frame, patching in the
// sender's slot id so recipients attribute it correctly.
func MatchScoreUpdate(frame []byte, slotID byte) []byte {
	out := write(packet.ServerMatchScoreUpdate, func(w *packet.Writer) {
		w.WriteBytes(frame)
	})
	if len(out) > scoreFrameSlotOffset {
		out[scoreFrameSlotOffset] = slotID
	}
	return out
}
