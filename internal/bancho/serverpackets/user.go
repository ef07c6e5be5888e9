package serverpackets

import (
	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

// Login failure codes sent through the user_id packet.
const (
	LoginFailedAuth         int32 = -1
	LoginFailedOldClient    int32 = -2
	LoginFailedBanned       int32 = -3
	LoginFailedUnknownError int32 = -5
	LoginFailedNeedsVerify  int32 = -6
	LoginFailedPasswordRest int32 = -7
	LoginFailedServerSide   int32 = -8
)

// UserID delivers the login response: the player's id on success, or one
// of the negative failure codes.
func UserID(id int32) []byte {
	return write(packet.ServerUserID, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// BanchoPrivileges announces the client-facing privilege bits.
func BanchoPrivileges(bits constants.ClientPrivileges) []byte {
	return write(packet.ServerPrivileges, func(w *packet.Writer) {
		w.WriteInt32(int32(bits))
	})
}

// FriendsList delivers the player's friend ids.
func FriendsList(ids []int32) []byte {
	return write(packet.ServerFriendsList, func(w *packet.Writer) {
		w.WriteInt32List16(ids)
	})
}

// SilenceEnd reports the seconds remaining on the player's own silence.
func SilenceEnd(delta int32) []byte {
	return write(packet.ServerSilenceEnd, func(w *packet.Writer) {
		w.WriteInt32(delta)
	})
}

// UserSilenced announces that a player has been silenced.
func UserSilenced(id int32) []byte {
	return write(packet.ServerUserSilenced, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// Logout announces a player leaving the server.
func Logout(id int32) []byte {
	return write(packet.ServerUserLogout, func(w *packet.Writer) {
		w.WriteInt32(id)
		w.WriteByte(0)
	})
}

// UserPresence is the static half of a player's visible state.
func UserPresence(s *model.Session) []byte {
	return write(packet.ServerUserPresence, func(w *packet.Writer) {
		w.WriteInt32(s.ID)
		w.WriteString(s.Name)
		w.WriteByte(byte(s.UTCOffset + 24))
		w.WriteByte(s.Geoloc.Country.Numeric)
		w.WriteByte(byte(s.BanchoPriv()) | s.Status.Mode.AsVanilla()<<5)
		w.WriteFloat32(float32(s.Geoloc.Longitude))
		w.WriteFloat32(float32(s.Geoloc.Latitude))
		w.WriteInt32(s.GMStats().Rank)
	})
}

// UserStats is the dynamic half: action, map, and mode stats.
func UserStats(s *model.Session) []byte {
	st := s.GMStats()
	rscore := st.RankedScore
	pp := st.PP
	// The client's pp field is an i16; overflow goes through rscore,
	// which the client renders when pp is zero.
	if pp > 0x7fff {
		rscore = int64(pp)
		pp = 0
	}
	return write(packet.ServerUserStats, func(w *packet.Writer) {
		w.WriteInt32(s.ID)
		w.WriteByte(byte(s.Status.Action))
		w.WriteString(s.Status.InfoText)
		w.WriteString(s.Status.MapMD5)
		w.WriteInt32(int32(s.Status.Mods))
		w.WriteByte(s.Status.Mode.AsVanilla())
		w.WriteInt32(s.Status.MapID)
		w.WriteInt64(rscore)
		w.WriteFloat32(st.Accuracy / 100.0)
		w.WriteInt32(st.Plays)
		w.WriteInt64(st.TotalScore)
		w.WriteInt32(st.Rank)
		w.WriteInt16(int16(pp))
	})
}

// BotPresence is the compact presence used for the server bot: pinned to
// the top of the rankings with a fixed location.
func BotPresence(id int32, name string) []byte {
	return write(packet.ServerUserPresence, func(w *packet.Writer) {
		w.WriteInt32(id)
		w.WriteString(name)
		w.WriteByte(24 + 1) // UTC+1
		w.WriteByte(245)    // satellite provider
		w.WriteByte(31)
		w.WriteFloat32(1234.0)
		w.WriteFloat32(4321.0)
		w.WriteInt32(0)
	})
}

// BotStats is the fixed stats block for the server bot.
func BotStats(id int32, activity string) []byte {
	return write(packet.ServerUserStats, func(w *packet.Writer) {
		w.WriteInt32(id)
		w.WriteByte(byte(model.ActionWatching))
		w.WriteString(activity)
		w.WriteString("")
		w.WriteInt32(0)
		w.WriteByte(0)
		w.WriteInt32(0)
		w.WriteInt64(0)
		w.WriteFloat32(0)
		w.WriteInt32(0)
		w.WriteInt64(0)
		w.WriteInt32(0)
		w.WriteInt16(0)
	})
}

// UserPresenceSingle asks peers to request a single player's presence.
func UserPresenceSingle(id int32) []byte {
	return write(packet.ServerUserPresenceSingle, func(w *packet.Writer) {
		w.WriteInt32(id)
	})
}

// UserPresenceBundle asks the client to fetch presence for a set of ids.
func UserPresenceBundle(ids []int32) []byte {
	return write(packet.ServerUserPresenceBundle, func(w *packet.Writer) {
		w.WriteInt32List16(ids)
	})
}
