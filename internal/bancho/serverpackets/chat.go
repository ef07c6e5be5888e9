package serverpackets

import (
	"github.com/osukon/banchod/internal/bancho/packet"
)

// SendMessage delivers a chat message to a client. recipient is a channel
// name or the receiving player's username.
func SendMessage(sender, text, recipient string, senderID int32) []byte {
	return write(packet.ServerSendMessage, func(w *packet.Writer) {
		w.WriteString(sender)
		w.WriteString(text)
		w.WriteString(recipient)
		w.WriteInt32(senderID)
	})
}

// ChannelInfo advertises a joinable channel and its member count.
func ChannelInfo(name, topic string, playerCount int) []byte {
	return write(packet.ServerChannelInfo, func(w *packet.Writer) {
		w.WriteString(name)
		w.WriteString(topic)
		w.WriteUint16(uint16(playerCount))
	})
}

// ChannelInfoEnd terminates the login-time channel listing.
func ChannelInfoEnd() []byte {
	return write(packet.ServerChannelInfoEnd, nil)
}

// ChannelJoinSuccess confirms a channel join.
func ChannelJoinSuccess(name string) []byte {
	return write(packet.ServerChannelJoinSuccess, func(w *packet.Writer) {
		w.WriteString(name)
	})
}

// ChannelAutoJoin advertises a channel the client joins automatically.
func ChannelAutoJoin(name, topic string, playerCount int) []byte {
	return write(packet.ServerChannelAutoJoin, func(w *packet.Writer) {
		w.WriteString(name)
		w.WriteString(topic)
		w.WriteUint16(uint16(playerCount))
	})
}

// ChannelKick forces the client out of a channel.
func ChannelKick(name string) []byte {
	return write(packet.ServerChannelKick, func(w *packet.Writer) {
		w.WriteString(name)
	})
}

// UserDMBlocked reports that the target only accepts mutual-friend DMs.
func UserDMBlocked(target string) []byte {
	return write(packet.ServerUserDmBlocked, func(w *packet.Writer) {
		w.WriteString("")
		w.WriteString("")
		w.WriteString(target)
		w.WriteInt32(0)
	})
}

// TargetSilenced reports that the DM target is silenced.
func TargetSilenced(target string) []byte {
	return write(packet.ServerTargetIsSilenced, func(w *packet.Writer) {
		w.WriteString("")
		w.WriteString("")
		w.WriteString(target)
		w.WriteInt32(0)
	})
}
