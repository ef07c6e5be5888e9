// Package serverpackets builds the server -> osu! packet frames. Every
// constructor returns a fresh byte slice ready to be enqueued to any
// number of sessions.
package serverpackets

import (
	"github.com/osukon/banchod/internal/bancho/packet"
)

// write frames a single packet, filling the payload via fill.
func write(id packet.ServerPacketID, fill func(w *packet.Writer)) []byte {
	w := packet.Get()
	defer w.Put()
	w.BeginFrame(id)
	if fill != nil {
		fill(w)
	}
	w.EndFrame()
	return w.Copy()
}

// Pong answers a client ping.
func Pong() []byte {
	return write(packet.ServerPong, nil)
}

// Notification shows a toast message on the client.
func Notification(msg string) []byte {
	return write(packet.ServerNotification, func(w *packet.Writer) {
		w.WriteString(msg)
	})
}

// ProtocolVersion announces the bancho protocol version (19).
func ProtocolVersion(version int32) []byte {
	return write(packet.ServerProtocolVersion, func(w *packet.Writer) {
		w.WriteInt32(version)
	})
}

// RestartServer tells the client to reconnect after ms milliseconds.
func RestartServer(ms int32) []byte {
	return write(packet.ServerRestart, func(w *packet.Writer) {
		w.WriteInt32(ms)
	})
}

// VersionUpdate prompts a non-forced client update check.
func VersionUpdate() []byte {
	return write(packet.ServerVersionUpdate, nil)
}

// VersionUpdateForced locks the client out until it updates.
func VersionUpdateForced() []byte {
	return write(packet.ServerVersionUpdateForced, nil)
}

// GetAttention flashes the client window.
func GetAttention() []byte {
	return write(packet.ServerGetAttention, nil)
}

// RTX shows an alarming centred message on the client. Rarely deserved.
func RTX(msg string) []byte {
	return write(packet.ServerRTX, func(w *packet.Writer) {
		w.WriteString(msg)
	})
}

// AccountRestricted tells the client its account is in restricted mode.
func AccountRestricted() []byte {
	return write(packet.ServerAccountRestricted, nil)
}

// SwitchTournamentServer redirects a tourney client to another endpoint.
func SwitchTournamentServer(ip string) []byte {
	return write(packet.ServerSwitchTournamentServer, func(w *packet.Writer) {
		w.WriteString(ip)
	})
}

// MainMenuIcon sets the main menu banner image and click target.
func MainMenuIcon(iconURL, onclickURL string) []byte {
	return write(packet.ServerMainMenuIcon, func(w *packet.Writer) {
		w.WriteString(iconURL + "|" + onclickURL)
	})
}

// Monitor is a legacy screenshot request. Unused, kept for completeness.
func Monitor() []byte {
	return write(packet.ServerMonitor, nil)
}
