package bancho

import (
	"context"
	"fmt"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

func (s *Server) handleStartSpectating(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	hostID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading spectate target: %w", err)
	}

	host := s.sessions.GetByID(hostID)
	if host == nil || host.BotClient {
		s.log.Warn("spectate target offline", "player", sess.Name, "target", hostID)
		return nil
	}

	if sess.Spectating != nil {
		if sess.Spectating == host {
			// The client re-sends on map change; treat as a rejoin.
			s.removeSpectator(sess)
		} else {
			s.stopSpectating(sess)
		}
	}

	s.addSpectator(host, sess)
	return nil
}

func (s *Server) handleStopSpectating(_ context.Context, sess *model.Session, _ []byte) error {
	if sess.Spectating == nil {
		return nil
	}
	s.stopSpectating(sess)
	return nil
}

func (s *Server) handleSpectateFrames(_ context.Context, sess *model.Session, data []byte) error {
	if len(sess.Spectators) == 0 {
		return nil
	}
	frames := serverpackets.SpectateFrames(data)
	for _, spec := range sess.Spectators {
		spec.Enqueue(frames)
	}
	return nil
}

func (s *Server) handleCantSpectate(_ context.Context, sess *model.Session, _ []byte) error {
	host := sess.Spectating
	if host == nil {
		return nil
	}
	missing := serverpackets.SpectatorCantSpectate(sess.ID)
	host.Enqueue(missing)
	for _, spec := range host.Spectators {
		if spec != sess {
			spec.Enqueue(missing)
		}
	}
	return nil
}

// addSpectator attaches sess to host's spectator group, creating the
// instance channel on first join.
func (s *Server) addSpectator(host, sess *model.Session) {
	chanName := model.SpecChannelName(host.ID)
	c := s.channels.Get(chanName)
	if c == nil {
		c = model.NewChannel(chanName,
			fmt.Sprintf("%s's spectator channel", host.Name),
			constants.PrivAnyone, constants.PrivUnrestricted,
			false, true)
		s.channels.Add(c)
		s.joinChannel(host, c)
	}

	if !s.joinChannel(sess, c) {
		s.log.Warn("failed to join spectator channel", "player", sess.Name, "channel", chanName)
		return
	}

	if !sess.Stealth {
		joined := serverpackets.FellowSpectatorJoined(sess.ID)
		for _, spec := range host.Spectators {
			spec.Enqueue(joined)
			sess.Enqueue(serverpackets.FellowSpectatorJoined(spec.ID))
		}
		host.Enqueue(serverpackets.SpectatorJoined(sess.ID))
	} else {
		for _, spec := range host.Spectators {
			sess.Enqueue(serverpackets.FellowSpectatorJoined(spec.ID))
		}
	}

	host.Spectators = append(host.Spectators, sess)
	sess.Spectating = host

	s.log.Info("spectating", "player", sess.Name, "host", host.Name)
}

// removeSpectator detaches sess from its host without the full teardown
// notifications (rejoin path).
func (s *Server) removeSpectator(sess *model.Session) {
	host := sess.Spectating
	if host == nil {
		return
	}
	for i, spec := range host.Spectators {
		if spec == sess {
			host.Spectators = append(host.Spectators[:i], host.Spectators[i+1:]...)
			break
		}
	}
	sess.Spectating = nil

	if c := s.channels.Get(model.SpecChannelName(host.ID)); c != nil {
		s.leaveChannel(sess, c, true)
	}
}

// stopSpectating fully detaches sess and notifies the group.
func (s *Server) stopSpectating(sess *model.Session) {
	host := sess.Spectating
	if host == nil {
		return
	}
	s.removeSpectator(sess)

	if len(host.Spectators) == 0 {
		// Group dissolved: the host leaves its own instance channel,
		// which deletes it.
		if c := s.channels.Get(model.SpecChannelName(host.ID)); c != nil {
			s.leaveChannel(host, c, true)
		}
	} else if !sess.Stealth {
		left := serverpackets.FellowSpectatorLeft(sess.ID)
		for _, spec := range host.Spectators {
			spec.Enqueue(left)
		}
	}

	if !sess.Stealth {
		host.Enqueue(serverpackets.SpectatorLeft(sess.ID))
	}
	s.log.Info("stopped spectating", "player", sess.Name, "host", host.Name)
}
