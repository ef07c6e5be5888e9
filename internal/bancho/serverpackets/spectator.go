package serverpackets

import (
	"github.com/osukon/banchod/internal/bancho/packet"
)

// SpectatorJoined tells the host a spectator arrived.
func SpectatorJoined(id int32) []byte {
	return write(packet.ServerSpectatorJoined, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// SpectatorLeft tells the host a spectator departed.
func SpectatorLeft(id int32) []byte {
	return write(packet.ServerSpectatorLeft, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// FellowSpectatorJoined tells co-spectators about a new arrival.
func FellowSpectatorJoined(id int32) []byte {
	return write(packet.ServerFellowSpectatorJoined, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// FellowSpectatorLeft tells co-spectators about a departure.
func FellowSpectatorLeft(id int32) []byte {
	return write(packet.ServerFellowSpectatorLeft, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// SpectatorCantSpectate reports a spectator who lacks the current map.
func SpectatorCantSpectate(id int32) []byte {
	return write(packet.ServerSpectatorCantSpectate, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// SpectateFrames re-frames a host's raw replay frame payload for fan-out.
func SpectateFrames(data []byte) []byte {
	return write(packet.ServerSpectateFrames, func(w *packet.Writer) {
		w.WriteBytes(data)
	})
}
