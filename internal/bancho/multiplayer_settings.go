package bancho

import (
	"context"
	"fmt"

	"github.com/osukon/banchod/internal/bancho/clientpackets"
	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/constants"
	"github.com/osukon/banchod/internal/model"
)

func (s *Server) handleMatchChangeSettings(ctx context.Context, sess *model.Session, data []byte) error {
	payload, err := clientpackets.ParseMatch(data)
	if err != nil {
		return fmt.Errorf("parsing settings change: %w", err)
	}

	m := sess.Match
	if m == nil || sess.ID != m.HostID {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	if payload.Freemods != m.Freemods {
		m.Freemods = payload.Freemods
		if payload.Freemods {
			// Hand the room's mods down to the individual slots; speed
			// changers stay room-wide.
			for i := range m.Slots {
				if m.Slots[i].Status&model.SlotHasPlayer != 0 {
					m.Slots[i].Mods = m.Mods &^ constants.SpeedChangingMods
				}
			}
			m.Mods &= constants.SpeedChangingMods
		} else {
			// Fold the host's slot mods back into the room.
			for i := range m.Slots {
				sl := &m.Slots[i]
				if sl.Session != nil && sl.Session.ID == m.HostID {
					m.Mods = (m.Mods & constants.SpeedChangingMods) | sl.Mods
					break
				}
			}
			for i := range m.Slots {
				m.Slots[i].Mods = constants.ModNoMod
			}
		}
	}

	switch {
	case payload.MapID == -1:
		// Host entered map selection.
		m.UnreadyPlayers(model.SlotReady)
		m.PrevMapID = m.MapID
		m.MapID = -1
		m.MapMD5 = ""
		m.MapName = ""
	case m.MapID == -1:
		if m.PrevMapID != payload.MapID {
			m.Enqueue(serverpackets.SendMessage(s.bot.Name,
				fmt.Sprintf("Selected: %s.", mapEmbedOrName(s, ctx, payload)),
				m.Chat.Name(), s.bot.ID))
		}
		// Prefer server-side metadata when the hash is known.
		bmap, err := s.beatmaps.FetchByMD5(ctx, payload.MapMD5)
		if err != nil {
			s.log.Error("fetching selected map", "md5", payload.MapMD5, "err", err)
		}
		if bmap != nil {
			m.MapID = bmap.ID
			m.MapMD5 = bmap.MD5
			m.MapName = bmap.FullName()
			m.Mode = constants.GameMode(bmap.Mode)
		} else {
			m.MapID = payload.MapID
			m.MapMD5 = payload.MapMD5
			m.MapName = payload.MapName
			m.Mode = constants.GameMode(payload.Mode)
		}
	}

	if m.TeamType != payload.TeamType {
		if m.IsScrimming {
			m.Enqueue(serverpackets.SendMessage(s.bot.Name,
				"Team type cannot be changed while scrimming; start a new scrim first.",
				m.Chat.Name(), s.bot.ID))
		} else {
			var team model.MatchTeam
			if payload.TeamType == model.TeamTypeHeadToHead ||
				payload.TeamType == model.TeamTypeTagCoop {
				team = model.TeamNeutral
			} else {
				team = model.TeamRed
			}
			for i := range m.Slots {
				if m.Slots[i].Status&model.SlotHasPlayer != 0 {
					m.Slots[i].Team = team
				}
			}
			m.TeamType = payload.TeamType
		}
	}

	if m.WinCondition != payload.WinCondition {
		m.WinCondition = payload.WinCondition
		// A manual win condition overrides pp scoring set via commands.
		m.UsePPScoring = false
	}

	if payload.Name != "" {
		m.Name = payload.Name
	}

	s.broadcastMatchStateLocked(m, true)
	return nil
}

// mapEmbedOrName renders the freshly selected map for chat, preferring a
// clickable embed when the map is known locally.
func mapEmbedOrName(s *Server, ctx context.Context, payload *clientpackets.MatchPayload) string {
	bmap, err := s.beatmaps.FetchByMD5(ctx, payload.MapMD5)
	if err == nil && bmap != nil {
		return bmap.Embed(s.cfg.Domain)
	}
	return payload.MapName
}
