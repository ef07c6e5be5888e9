package bancho

import (
	"context"
	"time"

	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/model"
)

// EjectSession tears a session down: channels, spectating, match, and
// registry membership, then announces the logout. Safe to call for a
// session that was already taken over; it simply does nothing.
func (s *Server) EjectSession(ctx context.Context, sess *model.Session, reason string) {
	if !s.sessions.Unregister(sess) {
		return
	}
	sess.Token = ""

	if sess.Spectating != nil {
		s.stopSpectating(sess)
	}
	if sess.Match != nil {
		s.leaveMatch(ctx, sess)
	}
	for len(sess.Channels) > 0 {
		s.leaveChannel(sess, sess.Channels[0], false)
	}
	// Anyone still watching this session is cut loose.
	for _, spec := range append([]*model.Session(nil), sess.Spectators...) {
		s.stopSpectating(spec)
	}

	if !sess.Restricted() {
		s.sessions.EnqueueAll(serverpackets.Logout(sess.ID))
	}

	if err := s.players.UpdateLatestActivity(ctx, sess.ID, time.Now().Unix()); err != nil {
		s.log.Error("updating latest activity", "player", sess.Name, "err", err)
	}

	s.metrics.SessionsOnline.Set(float64(s.sessions.Len()))
	s.log.Info("session ejected", "player", sess.Name, "reason", reason)
}

// joinChannel adds sess to c and reports success to the client.
// Returns false when the channel is unjoinable for this session.
func (s *Server) joinChannel(sess *model.Session, c *model.Channel) bool {
	if c == nil || !c.CanRead(sess.Priv) || c.Contains(sess) {
		return false
	}
	c.Append(sess)
	sess.Channels = append(sess.Channels, c)
	sess.Enqueue(serverpackets.ChannelJoinSuccess(c.Name()))
	s.updateChannelInfo(c)
	return true
}

// leaveChannel removes sess from c. kick forces the client out of the
// chat tab as well.
func (s *Server) leaveChannel(sess *model.Session, c *model.Channel, kick bool) {
	if !c.Contains(sess) {
		return
	}
	c.Remove(sess)
	for i, ch := range sess.Channels {
		if ch == c {
			sess.Channels = append(sess.Channels[:i], sess.Channels[i+1:]...)
			break
		}
	}
	if kick {
		sess.Enqueue(serverpackets.ChannelKick(c.Name()))
	}
	if c.Instance && c.Len() == 0 {
		s.channels.Remove(c.RealName)
		return
	}
	s.updateChannelInfo(c)
}

// updateChannelInfo broadcasts a channel's member count. Instance channel
// counts go to members only; public counts go to every session allowed to
// read the channel.
func (s *Server) updateChannelInfo(c *model.Channel) {
	info := serverpackets.ChannelInfo(c.Name(), c.Topic, c.Len())
	if c.Instance {
		c.Enqueue(info)
		return
	}
	for _, p := range s.sessions.All() {
		if c.CanRead(p.Priv) {
			p.Enqueue(info)
		}
	}
}
