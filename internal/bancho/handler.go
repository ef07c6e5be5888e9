package bancho

import (
	"context"
	"strconv"
	"time"

	"github.com/osukon/banchod/internal/bancho/packet"
	"github.com/osukon/banchod/internal/model"
)

// handlerFunc processes one client packet payload for a session.
type handlerFunc func(ctx context.Context, s *model.Session, data []byte) error

func (s *Server) registerHandlers() {
	s.handlers = map[packet.ClientPacketID]handlerFunc{
		packet.ClientChangeAction:                s.handleChangeAction,
		packet.ClientSendPublicMessage:           s.handlePublicMessage,
		packet.ClientLogout:                      s.handleLogout,
		packet.ClientRequestStatusUpdate:         s.handleRequestStatusUpdate,
		packet.ClientPing:                        s.handlePing,
		packet.ClientStartSpectating:             s.handleStartSpectating,
		packet.ClientStopSpectating:              s.handleStopSpectating,
		packet.ClientSpectateFrames:              s.handleSpectateFrames,
		packet.ClientErrorReport:                 s.handleIgnored,
		packet.ClientCantSpectate:                s.handleCantSpectate,
		packet.ClientSendPrivateMessage:          s.handlePrivateMessage,
		packet.ClientPartLobby:                   s.handlePartLobby,
		packet.ClientJoinLobby:                   s.handleJoinLobby,
		packet.ClientCreateMatch:                 s.handleCreateMatch,
		packet.ClientJoinMatch:                   s.handleJoinMatch,
		packet.ClientPartMatch:                   s.handlePartMatch,
		packet.ClientMatchChangeSlot:             s.handleMatchChangeSlot,
		packet.ClientMatchReady:                  s.handleMatchReady,
		packet.ClientMatchLock:                   s.handleMatchLock,
		packet.ClientMatchChangeSettings:         s.handleMatchChangeSettings,
		packet.ClientMatchStart:                  s.handleMatchStart,
		packet.ClientMatchScoreUpdate:            s.handleMatchScoreUpdate,
		packet.ClientMatchComplete:               s.handleMatchComplete,
		packet.ClientMatchChangeMods:             s.handleMatchChangeMods,
		packet.ClientMatchLoadComplete:           s.handleMatchLoadComplete,
		packet.ClientMatchNoBeatmap:              s.handleMatchNoBeatmap,
		packet.ClientMatchNotReady:               s.handleMatchNotReady,
		packet.ClientMatchFailed:                 s.handleMatchFailed,
		packet.ClientMatchHasBeatmap:             s.handleMatchHasBeatmap,
		packet.ClientMatchSkipRequest:            s.handleMatchSkipRequest,
		packet.ClientChannelJoin:                 s.handleChannelJoin,
		packet.ClientBeatmapInfoRequest:          s.handleIgnored,
		packet.ClientMatchTransferHost:           s.handleMatchTransferHost,
		packet.ClientFriendAdd:                   s.handleFriendAdd,
		packet.ClientFriendRemove:                s.handleFriendRemove,
		packet.ClientMatchChangeTeam:             s.handleMatchChangeTeam,
		packet.ClientChannelPart:                 s.handleChannelPart,
		packet.ClientReceiveUpdates:              s.handleReceiveUpdates,
		packet.ClientSetAwayMessage:              s.handleSetAwayMessage,
		packet.ClientIrcOnly:                     s.handleIgnored,
		packet.ClientUserStatsRequest:            s.handleUserStatsRequest,
		packet.ClientMatchInvite:                 s.handleMatchInvite,
		packet.ClientMatchChangePassword:         s.handleMatchChangePassword,
		packet.ClientTournamentMatchInfoRequest:  s.handleTournamentMatchInfoRequest,
		packet.ClientUserPresenceRequest:         s.handleUserPresenceRequest,
		packet.ClientUserPresenceRequestAll:      s.handleUserPresenceRequestAll,
		packet.ClientToggleBlockNonFriendDms:     s.handleToggleBlockNonFriendDms,
		packet.ClientTournamentJoinMatchChannel:  s.handleTournamentJoinMatchChannel,
		packet.ClientTournamentLeaveMatchChannel: s.handleTournamentLeaveMatchChannel,
	}

	// Restricted players keep a reduced surface: status, chat with staff,
	// and presence lookups. Everything else is silently dropped.
	s.restrictedHandlers = map[packet.ClientPacketID]handlerFunc{
		packet.ClientChangeAction:            s.handleChangeAction,
		packet.ClientLogout:                  s.handleLogout,
		packet.ClientRequestStatusUpdate:     s.handleRequestStatusUpdate,
		packet.ClientPing:                    s.handlePing,
		packet.ClientSendPrivateMessage:      s.handlePrivateMessage,
		packet.ClientChannelJoin:             s.handleChannelJoin,
		packet.ClientChannelPart:             s.handleChannelPart,
		packet.ClientReceiveUpdates:          s.handleReceiveUpdates,
		packet.ClientSetAwayMessage:          s.handleSetAwayMessage,
		packet.ClientUserStatsRequest:        s.handleUserStatsRequest,
		packet.ClientUserPresenceRequest:     s.handleUserPresenceRequest,
		packet.ClientUserPresenceRequestAll:  s.handleUserPresenceRequestAll,
		packet.ClientToggleBlockNonFriendDms: s.handleToggleBlockNonFriendDms,
	}
}

// HandleRequest processes one request body's packet frames for sess and
// returns the bytes queued for the client so far.
func (s *Server) HandleRequest(ctx context.Context, sess *model.Session, body []byte) []byte {
	r := packet.NewReader(body)

	table := s.handlers
	if sess.Restricted() {
		table = s.restrictedHandlers
	}

	for r.Remaining() >= packet.HeaderSize {
		h, err := r.ReadHeader()
		if err != nil {
			break
		}
		if int(h.Length) > r.Remaining() {
			s.log.Warn("truncated packet frame",
				"player", sess.Name, "packet", h.ID, "length", h.Length)
			s.metrics.PacketErrors.Inc()
			break
		}

		payload, _ := r.ReadBytes(int(h.Length))
		fn, ok := table[h.ID]
		if !ok {
			// Unknown or out-of-surface packet: skipped by length.
			continue
		}

		s.metrics.PacketsTotal.WithLabelValues(strconv.Itoa(int(h.ID))).Inc()
		if err := fn(ctx, sess, payload); err != nil {
			// The payload is already sliced out by its declared length, so
			// a bad frame only loses itself; the rest of the body is fine.
			s.log.Warn("handling packet",
				"player", sess.Name, "packet", h.ID, "err", err)
			s.metrics.PacketErrors.Inc()
			continue
		}

		if !sess.Online() {
			break
		}
	}

	sess.SetLastRecvTime(time.Now())
	return sess.Dequeue()
}
