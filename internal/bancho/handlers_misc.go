package bancho

import (
	"context"
	"fmt"
	"time"

	"github.com/osukon/banchod/internal/bancho/clientpackets"
	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

// handleIgnored accepts a packet without acting on it.
func (s *Server) handleIgnored(_ context.Context, _ *model.Session, _ []byte) error {
	return nil
}

// handlePing acknowledges the keepalive. The HTTP layer answers with a
// pong when the session has nothing else queued.
func (s *Server) handlePing(_ context.Context, _ *model.Session, _ []byte) error {
	return nil
}

func (s *Server) handleChangeAction(_ context.Context, sess *model.Session, data []byte) error {
	ca, err := clientpackets.ParseChangeAction(data)
	if err != nil {
		return fmt.Errorf("parsing change action: %w", err)
	}

	mode, mods := constants.NormalizeStatusMode(ca.Mode, ca.Mods)
	sess.Status = model.Status{
		Action:   model.Action(ca.Action),
		InfoText: ca.InfoText,
		MapMD5:   ca.MapMD5,
		Mods:     mods,
		Mode:     mode,
		MapID:    ca.MapID,
	}

	if !sess.Restricted() {
		s.sessions.EnqueueAll(serverpackets.UserStats(sess))
	}
	return nil
}

func (s *Server) handleRequestStatusUpdate(_ context.Context, sess *model.Session, _ []byte) error {
	sess.Enqueue(serverpackets.UserStats(sess))
	return nil
}

func (s *Server) handleLogout(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	if _, err := r.ReadInt32(); err != nil {
		return fmt.Errorf("reading logout payload: %w", err)
	}

	// The client fires a logout right after login when changing state;
	// ignore anything within the first second.
	if time.Since(sess.LoginTime) < time.Second {
		return nil
	}

	s.EjectSession(context.Background(), sess, "logout")
	return nil
}

func (s *Server) handleUserStatsRequest(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	ids, err := r.ReadInt32List16()
	if err != nil {
		return fmt.Errorf("reading stats request ids: %w", err)
	}

	for _, id := range ids {
		if id == sess.ID {
			continue
		}
		target := s.sessions.GetByID(id)
		if target == nil {
			continue
		}
		if target.BotClient {
			sess.Enqueue(serverpackets.BotStats(target.ID, s.botActivity()))
		} else {
			sess.Enqueue(serverpackets.UserStats(target))
		}
	}
	return nil
}

func (s *Server) handleUserPresenceRequest(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	ids, err := r.ReadInt32List16()
	if err != nil {
		return fmt.Errorf("reading presence request ids: %w", err)
	}

	for _, id := range ids {
		target := s.sessions.GetByID(id)
		if target == nil {
			continue
		}
		if target.BotClient {
			sess.Enqueue(serverpackets.BotPresence(target.ID, target.Name))
		} else {
			sess.Enqueue(serverpackets.UserPresence(target))
		}
	}
	return nil
}

func (s *Server) handleUserPresenceRequestAll(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	// Client-reported ingame time, unused.
	if _, err := r.ReadInt32(); err != nil {
		return fmt.Errorf("reading ingame time: %w", err)
	}

	for _, p := range s.sessions.Unrestricted() {
		if p.ID == sess.ID {
			continue
		}
		if p.BotClient {
			sess.Enqueue(serverpackets.BotPresence(p.ID, p.Name))
		} else {
			sess.Enqueue(serverpackets.UserPresence(p))
		}
	}
	return nil
}

func (s *Server) handleReceiveUpdates(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	val, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading presence filter: %w", err)
	}
	if val < 0 || val > 2 {
		return fmt.Errorf("invalid presence filter %d", val)
	}
	sess.PresFilter = model.PresenceFilter(val)
	return nil
}

func (s *Server) handleSetAwayMessage(_ context.Context, sess *model.Session, data []byte) error {
	msg, err := clientpackets.ParseMessage(data)
	if err != nil {
		return fmt.Errorf("parsing away message: %w", err)
	}
	sess.AwayMsg = msg.Text
	return nil
}

func (s *Server) handleToggleBlockNonFriendDms(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	val, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading dm block toggle: %w", err)
	}
	sess.PMPrivate = val == 1
	return nil
}

func (s *Server) handleFriendAdd(ctx context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	targetID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading friend id: %w", err)
	}

	target := s.sessions.GetByID(targetID)
	if target != nil && target.BotClient {
		return nil
	}
	if _, ok := sess.Friends[targetID]; ok {
		return nil
	}

	delete(sess.Blocks, targetID)
	sess.Friends[targetID] = struct{}{}
	if err := s.relations.AddFriend(ctx, sess.ID, targetID); err != nil {
		return fmt.Errorf("persisting friend add: %w", err)
	}
	s.log.Info("friend added", "player", sess.Name, "target", targetID)
	return nil
}

func (s *Server) handleFriendRemove(ctx context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	targetID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading friend id: %w", err)
	}

	if _, ok := sess.Friends[targetID]; !ok {
		return nil
	}
	delete(sess.Friends, targetID)
	if err := s.relations.Remove(ctx, sess.ID, targetID); err != nil {
		return fmt.Errorf("persisting friend remove: %w", err)
	}
	s.log.Info("friend removed", "player", sess.Name, "target", targetID)
	return nil
}

// ignoredChannels are client-side pseudo-channels the server never tracks.
var ignoredChannels = map[string]struct{}{
	"#highlight": {},
	"#userlog":   {},
}

func (s *Server) handleChannelJoin(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	name, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("reading channel name: %w", err)
	}
	if _, ok := ignoredChannels[name]; ok {
		return nil
	}

	c := s.channels.Resolve(name, sess)
	if c == nil || !s.joinChannel(sess, c) {
		s.log.Warn("failed channel join", "player", sess.Name, "channel", name)
	}
	return nil
}

func (s *Server) handleChannelPart(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	name, err := r.ReadString()
	if err != nil {
		return fmt.Errorf("reading channel name: %w", err)
	}
	if _, ok := ignoredChannels[name]; ok {
		return nil
	}

	c := s.channels.Resolve(name, sess)
	if c == nil {
		return nil
	}
	s.leaveChannel(sess, c, false)
	return nil
}

// botActivity is the info text shown on the bot's stats panel.
func (s *Server) botActivity() string {
	return fmt.Sprintf("with %d players online", s.sessions.Len()-1)
}
