package bancho

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/osukon/banchod/internal/bancho/clientpackets"
	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

// maxMessageLength truncates overlong chat messages instead of dropping
// them.
const maxMessageLength = 2000

var nowPlayingRegex = regexp.MustCompile(
	`^\x01ACTION is (?:playing|editing|watching|listening to) ` +
		`\[https://osu\.[^/]+/(?:b/(?P<bid>\d+)|beatmapsets/\d+#?/?(?:osu|taiko|fruits|mania)?/?(?P<bid2>\d+)?).*\]` +
		`(?P<mods> <[^>]+>)?\x01?$`)

// truncateMessage shortens an overlong message and tells the sender it
// was cut rather than dropping it.
func truncateMessage(sess *model.Session, text string) string {
	if len(text) <= maxMessageLength {
		return text
	}
	sess.Enqueue(serverpackets.Notification("Your message was too long and has been truncated."))
	return text[:maxMessageLength] + "... (truncated)"
}

func (s *Server) handlePublicMessage(ctx context.Context, sess *model.Session, data []byte) error {
	msg, err := clientpackets.ParseMessage(data)
	if err != nil {
		return fmt.Errorf("parsing public message: %w", err)
	}

	if sess.Silenced(time.Now()) {
		s.log.Warn("silenced player sent message", "player", sess.Name)
		return nil
	}

	c := s.channels.Resolve(msg.Recipient, sess)
	if c == nil {
		s.log.Warn("message to unknown channel", "player", sess.Name, "channel", msg.Recipient)
		return nil
	}
	if !c.Contains(sess) || !c.CanWrite(sess.Priv) {
		s.log.Warn("message without channel write access", "player", sess.Name, "channel", c.RealName)
		return nil
	}

	text := truncateMessage(sess, msg.Text)
	s.trackNowPlaying(ctx, sess, text)

	c.Enqueue(serverpackets.SendMessage(sess.Name, text, c.Name(), sess.ID), sess.ID)

	if strings.HasPrefix(text, s.cfg.CommandPrefix) && s.commands != nil {
		res, err := s.commands.Execute(ctx, sess, c.Name(), text)
		if err != nil {
			s.log.Error("executing command", "player", sess.Name, "err", err)
		} else if res != nil && res.Response != "" {
			if res.Hidden {
				sess.Enqueue(serverpackets.SendMessage(s.bot.Name, res.Response, c.Name(), s.bot.ID))
				s.enqueueToStaff(serverpackets.SendMessage(s.bot.Name, res.Response, c.Name(), s.bot.ID), sess.ID)
			} else {
				c.Enqueue(serverpackets.SendMessage(s.bot.Name, res.Response, c.Name(), s.bot.ID))
			}
		}
	}
	return nil
}

func (s *Server) handlePrivateMessage(ctx context.Context, sess *model.Session, data []byte) error {
	msg, err := clientpackets.ParseMessage(data)
	if err != nil {
		return fmt.Errorf("parsing private message: %w", err)
	}

	now := time.Now()
	if sess.Silenced(now) {
		return nil
	}

	text := truncateMessage(sess, msg.Text)

	target := s.sessions.GetByName(msg.Recipient)
	if target == nil {
		s.deliverOffline(ctx, sess, msg.Recipient, text, now)
		return nil
	}

	if target.HasBlocked(sess.ID) {
		sess.Enqueue(serverpackets.UserDMBlocked(target.Name))
		return nil
	}
	if target.PMPrivate && !target.IsFriend(sess.ID) && !sess.Priv.HasAny(constants.PrivStaff) {
		sess.Enqueue(serverpackets.UserDMBlocked(target.Name))
		return nil
	}
	if target.Silenced(now) {
		sess.Enqueue(serverpackets.TargetSilenced(target.Name))
		return nil
	}

	if target.BotClient {
		s.messageBot(ctx, sess, text)
		return nil
	}

	if target.Status.Action == model.ActionAfk && target.AwayMsg != "" {
		sess.Enqueue(serverpackets.SendMessage(target.Name, target.AwayMsg, sess.Name, target.ID))
	}

	target.Enqueue(serverpackets.SendMessage(sess.Name, text, target.Name, sess.ID))
	return nil
}

// deliverOffline stores mail for a known-but-offline recipient.
func (s *Server) deliverOffline(ctx context.Context, sess *model.Session, recipient, text string, now time.Time) {
	target, err := s.players.FetchBySafeName(ctx, model.MakeSafeName(recipient))
	if err != nil {
		s.log.Error("fetching pm target", "recipient", recipient, "err", err)
		return
	}
	if target == nil {
		s.log.Warn("pm to unknown user", "player", sess.Name, "recipient", recipient)
		return
	}
	if err := s.mail.Insert(ctx, sess.ID, target.ID, text, now.Unix()); err != nil {
		s.log.Error("storing offline mail", "player", sess.Name, "err", err)
		return
	}
	sess.Enqueue(serverpackets.Notification(fmt.Sprintf(
		"%s is currently offline; they will receive your message on their next login.", target.Name)))
}

// messageBot handles a DM addressed to the server bot: /np tracking and
// prefixed commands.
func (s *Server) messageBot(ctx context.Context, sess *model.Session, text string) {
	if s.trackNowPlaying(ctx, sess, text) {
		np := sess.LastNp
		if np == nil || np.Beatmap == nil {
			return
		}
		reply := np.Beatmap.Embed(s.cfg.Domain)
		if s.perf != nil {
			est, err := s.perf.Calculate(ctx, np.Beatmap.ID, sess.Status.Mods, np.ModeVN)
			if err != nil {
				s.log.Error("calculating np performance", "map", np.Beatmap.ID, "err", err)
			} else if est != "" {
				reply += " | " + est
			}
		}
		sess.Enqueue(serverpackets.SendMessage(s.bot.Name, reply, sess.Name, s.bot.ID))
		return
	}

	if !strings.HasPrefix(text, s.cfg.CommandPrefix) || s.commands == nil {
		return
	}
	res, err := s.commands.Execute(ctx, sess, s.bot.Name, text)
	if err != nil {
		s.log.Error("executing bot command", "player", sess.Name, "err", err)
		return
	}
	if res != nil && res.Response != "" {
		sess.Enqueue(serverpackets.SendMessage(s.bot.Name, res.Response, sess.Name, s.bot.ID))
	}
}

// trackNowPlaying records the /np'd map for follow-up chat commands.
// Returns true when the message was a now-playing action.
func (s *Server) trackNowPlaying(ctx context.Context, sess *model.Session, text string) bool {
	m := nowPlayingRegex.FindStringSubmatch(text)
	if m == nil {
		return false
	}

	bid := m[nowPlayingRegex.SubexpIndex("bid")]
	if bid == "" {
		bid = m[nowPlayingRegex.SubexpIndex("bid2")]
	}
	if bid == "" {
		return true
	}
	mapID, err := strconv.ParseInt(bid, 10, 32)
	if err != nil {
		return true
	}

	bmap, err := s.beatmaps.FetchByID(ctx, int32(mapID))
	if err != nil {
		s.log.Error("fetching np map", "map", mapID, "err", err)
		return true
	}
	if bmap == nil {
		return true
	}

	sess.LastNp = &model.LastNp{
		Beatmap: bmap,
		ModeVN:  sess.Status.Mode.AsVanilla(),
		Timeout: time.Now().Add(s.cfg.NowPlayingTTL),
	}
	return true
}

// enqueueToStaff sends data to online staff, skipping ids in skip.
func (s *Server) enqueueToStaff(data []byte, skip ...int32) {
outer:
	for _, p := range s.sessions.All() {
		if !p.Priv.HasAny(constants.PrivStaff) {
			continue
		}
		for _, id := range skip {
			if p.ID == id {
				continue outer
			}
		}
		p.Enqueue(data)
	}
}
