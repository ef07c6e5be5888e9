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

// MenuHandler dispatches join-match requests whose id is above the match
// table: those ids are options of the session's current chat menu.
type MenuHandler interface {
	Execute(ctx context.Context, sess *model.Session, optionID int32) error
}

// SetMenuHandler installs the chat menu dispatcher.
func (s *Server) SetMenuHandler(h MenuHandler) {
	s.menus = h
}

func (s *Server) handleJoinLobby(_ context.Context, sess *model.Session, _ []byte) error {
	sess.InLobby = true
	for _, m := range s.matches.All() {
		sess.Enqueue(serverpackets.NewMatch(m))
	}
	return nil
}

func (s *Server) handlePartLobby(_ context.Context, sess *model.Session, _ []byte) error {
	sess.InLobby = false
	return nil
}

func (s *Server) handleCreateMatch(ctx context.Context, sess *model.Session, data []byte) error {
	payload, err := clientpackets.ParseMatch(data)
	if err != nil {
		return fmt.Errorf("parsing create match: %w", err)
	}

	if sess.Silenced(time.Now()) {
		sess.Enqueue(serverpackets.MatchJoinFail())
		sess.Enqueue(serverpackets.Notification("Multiplayer is not available while silenced."))
		return nil
	}

	m := s.matches.Create()
	if m == nil {
		sess.Enqueue(serverpackets.MatchJoinFail())
		sess.Enqueue(serverpackets.Notification("No available matches."))
		return nil
	}

	m.Name = payload.Name
	m.Passwd = payload.Passwd
	m.HostID = sess.ID
	m.MapID = payload.MapID
	m.MapMD5 = payload.MapMD5
	m.MapName = payload.MapName
	mode, mods := constants.NormalizeStatusMode(payload.Mode, payload.Mods)
	m.Mode = mode
	m.Mods = mods
	m.WinCondition = payload.WinCondition
	m.TeamType = payload.TeamType
	m.Freemods = payload.Freemods
	m.Seed = payload.Seed

	m.Chat = model.NewChannel(model.MultiChannelName(m.ID),
		fmt.Sprintf("Match #%d discussion", m.ID),
		constants.PrivAnyone, constants.PrivUnrestricted,
		false, true)
	s.channels.Add(m.Chat)

	s.metrics.MatchesActive.Set(float64(s.matches.Len()))
	s.log.Info("match created", "match", m.ID, "name", m.Name, "host", sess.Name)

	s.joinMatch(ctx, sess, m, payload.Passwd)
	s.enqueueToLobby(serverpackets.NewMatch(m))
	return nil
}

func (s *Server) handleJoinMatch(ctx context.Context, sess *model.Session, data []byte) error {
	jm, err := clientpackets.ParseJoinMatch(data)
	if err != nil {
		return fmt.Errorf("parsing join match: %w", err)
	}

	if sess.Silenced(time.Now()) {
		sess.Enqueue(serverpackets.MatchJoinFail())
		sess.Enqueue(serverpackets.Notification("Multiplayer is not available while silenced."))
		return nil
	}

	if jm.MatchID >= model.MaxMatches {
		// Ids above the table are chat menu options.
		if s.menus != nil {
			if err := s.menus.Execute(ctx, sess, jm.MatchID); err != nil {
				s.log.Warn("menu option failed", "player", sess.Name, "option", jm.MatchID, "err", err)
			}
		}
		sess.Enqueue(serverpackets.MatchJoinFail())
		return nil
	}

	m := s.matches.Get(jm.MatchID)
	if m == nil {
		sess.Enqueue(serverpackets.MatchJoinFail())
		return nil
	}

	s.joinMatch(ctx, sess, m, jm.Passwd)
	return nil
}

// joinMatch seats sess in m, enforcing the password for non-staff.
func (s *Server) joinMatch(_ context.Context, sess *model.Session, m *model.Match, passwd string) {
	m.Lock()
	defer m.Unlock()

	if sess.Match != nil {
		sess.Enqueue(serverpackets.MatchJoinFail())
		return
	}

	_, allowedTourney := m.TourneyClients[sess.ID]
	if m.Passwd != "" && passwd != m.Passwd &&
		!sess.Priv.HasAny(constants.PrivStaff) && !allowedTourney {
		sess.Enqueue(serverpackets.MatchJoinFail())
		return
	}

	slotID := m.FreeSlotID()
	if slotID == -1 {
		sess.Enqueue(serverpackets.MatchJoinFail())
		return
	}

	slot := &m.Slots[slotID]
	slot.Session = sess
	slot.Status = model.SlotNotReady
	if m.TeamType == model.TeamTypeTeamVS || m.TeamType == model.TeamTypeTagTeamVS {
		slot.Team = model.TeamRed
	} else {
		slot.Team = model.TeamNeutral
	}
	sess.Match = m

	s.joinChannel(sess, m.Chat)
	sess.Enqueue(serverpackets.MatchJoinSuccess(m))

	s.broadcastMatchStateLocked(m, true)
	s.log.Info("joined match", "player", sess.Name, "match", m.ID, "slot", slotID)
}

func (s *Server) handlePartMatch(ctx context.Context, sess *model.Session, _ []byte) error {
	s.leaveMatch(ctx, sess)
	return nil
}

// leaveMatch unseats sess, transferring host or disposing the room as
// needed.
func (s *Server) leaveMatch(_ context.Context, sess *model.Session) {
	m := sess.Match
	if m == nil {
		return
	}

	m.Lock()
	defer m.Unlock()

	slot, slotID := m.SlotOf(sess)
	if slot != nil {
		// A locked seat stays locked when its occupant leaves.
		if slot.Status == model.SlotLocked {
			slot.Reset(model.SlotLocked)
		} else {
			slot.Reset(model.SlotOpen)
		}
	}
	sess.Match = nil
	s.leaveChannel(sess, m.Chat, true)

	players := m.Players()
	if len(players) == 0 {
		// Room emptied: cancel any pending start and dispose.
		if m.Starting != nil {
			m.Starting.Cancel()
			m.Starting = nil
		}
		s.matches.Remove(m)
		s.channels.Remove(m.Chat.RealName)
		s.enqueueToLobby(serverpackets.DisposeMatch(m.ID))
		s.metrics.MatchesActive.Set(float64(s.matches.Len()))
		s.log.Info("match disposed", "match", m.ID)
		return
	}

	if m.HostID == sess.ID {
		newHost := players[0]
		m.HostID = newHost.ID
		newHost.Enqueue(serverpackets.MatchTransferHost())
		s.log.Info("host transferred", "match", m.ID, "host", newHost.Name)
	}

	s.broadcastMatchStateLocked(m, true)
	s.log.Info("left match", "player", sess.Name, "match", m.ID, "slot", slotID)
}

func (s *Server) handleMatchChangeSlot(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	newSlotID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading slot id: %w", err)
	}

	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	if newSlotID < 0 || int(newSlotID) >= len(m.Slots) {
		return fmt.Errorf("invalid slot id %d", newSlotID)
	}
	target := &m.Slots[newSlotID]
	if target.Status != model.SlotOpen {
		return nil
	}
	cur, _ := m.SlotOf(sess)
	if cur == nil {
		return nil
	}

	target.CopyFrom(cur)
	cur.Reset(model.SlotOpen)
	s.broadcastMatchStateLocked(m, false)
	return nil
}

func (s *Server) setOwnSlotStatus(sess *model.Session, status model.SlotStatus) {
	m := sess.Match
	if m == nil {
		return
	}
	m.Lock()
	defer m.Unlock()

	slot, _ := m.SlotOf(sess)
	if slot == nil {
		return
	}
	slot.Status = status
	s.broadcastMatchStateLocked(m, false)
}

func (s *Server) handleMatchReady(_ context.Context, sess *model.Session, _ []byte) error {
	s.setOwnSlotStatus(sess, model.SlotReady)
	return nil
}

func (s *Server) handleMatchNotReady(_ context.Context, sess *model.Session, _ []byte) error {
	s.setOwnSlotStatus(sess, model.SlotNotReady)
	return nil
}

func (s *Server) handleMatchNoBeatmap(_ context.Context, sess *model.Session, _ []byte) error {
	s.setOwnSlotStatus(sess, model.SlotNoMap)
	return nil
}

func (s *Server) handleMatchHasBeatmap(_ context.Context, sess *model.Session, _ []byte) error {
	s.setOwnSlotStatus(sess, model.SlotNotReady)
	return nil
}

func (s *Server) handleMatchLock(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	slotID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading slot id: %w", err)
	}

	m := sess.Match
	if m == nil || m.HostID != sess.ID {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	if slotID < 0 || int(slotID) >= len(m.Slots) {
		return fmt.Errorf("invalid slot id %d", slotID)
	}
	slot := &m.Slots[slotID]

	if slot.Status == model.SlotLocked {
		slot.Status = model.SlotOpen
	} else {
		if slot.Session != nil && slot.Session.ID == m.HostID {
			// The host cannot lock themselves out.
			return nil
		}
		slot.Status = model.SlotLocked
	}

	s.broadcastMatchStateLocked(m, true)
	return nil
}

func (s *Server) handleMatchChangeMods(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	modsRaw, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading mods: %w", err)
	}
	mods := constants.Mods(modsRaw)

	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	if m.Freemods {
		if sess.ID == m.HostID {
			// Speed-changing mods stay room-wide under freemods.
			m.Mods = mods & constants.SpeedChangingMods
		}
		if slot, _ := m.SlotOf(sess); slot != nil {
			slot.Mods = mods &^ constants.SpeedChangingMods
		}
	} else {
		if sess.ID != m.HostID {
			return nil
		}
		m.Mods = mods
	}

	s.broadcastMatchStateLocked(m, false)
	return nil
}

func (s *Server) handleMatchStart(_ context.Context, sess *model.Session, _ []byte) error {
	m := sess.Match
	if m == nil || sess.ID != m.HostID {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	// A host start needs at least one readied slot; referee force-starts
	// go through StartMatch without this gate.
	ready := false
	for i := range m.Slots {
		if m.Slots[i].Status == model.SlotReady {
			ready = true
			break
		}
	}
	if !ready {
		return nil
	}

	s.startMatchLocked(m)
	return nil
}

// startMatchLocked flips every mapped-up slot into playing state.
// Caller holds the match lock.
func (s *Server) startMatchLocked(m *model.Match) {
	if m.InProgress {
		return
	}
	if m.Starting != nil {
		m.Starting.Cancel()
		m.Starting = nil
	}

	// Unready occupants are dragged into the round too; only players
	// missing the map sit it out.
	for i := range m.Slots {
		if m.Slots[i].Session != nil && m.Slots[i].Status != model.SlotNoMap {
			m.Slots[i].Status = model.SlotPlaying
		}
	}
	m.InProgress = true
	m.StartedAt = time.Now()
	m.ResetPlayersLoadedStatuses()

	m.EnqueueState(serverpackets.MatchStart(m))
	s.broadcastMatchStateLocked(m, true)
	s.log.Info("match started", "match", m.ID, "map", m.MapName)
}

func (s *Server) handleMatchScoreUpdate(_ context.Context, sess *model.Session, data []byte) error {
	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	_, slotID := m.SlotOf(sess)
	if slotID == -1 {
		return nil
	}
	m.EnqueueState(serverpackets.MatchScoreUpdate(data, byte(slotID)))
	return nil
}

func (s *Server) handleMatchComplete(ctx context.Context, sess *model.Session, _ []byte) error {
	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	slot, _ := m.SlotOf(sess)
	if slot == nil {
		return nil
	}
	slot.Status = model.SlotComplete

	for i := range m.Slots {
		if m.Slots[i].Status == model.SlotPlaying {
			return nil
		}
	}

	// Everyone is done: release the room.
	var notPlaying []int32
	for i := range m.Slots {
		sl := &m.Slots[i]
		if sl.Session != nil && sl.Status != model.SlotComplete {
			notPlaying = append(notPlaying, sl.Session.ID)
		}
	}

	m.UnreadyPlayers(model.SlotComplete)
	m.InProgress = false

	done := serverpackets.MatchComplete()
	for i := range m.Slots {
		sl := &m.Slots[i]
		if sl.Session == nil {
			continue
		}
		skip := false
		for _, id := range notPlaying {
			if sl.Session.ID == id {
				skip = true
				break
			}
		}
		if !skip {
			sl.Session.Enqueue(done)
		}
	}
	s.broadcastMatchStateLocked(m, true)
	s.log.Info("match round complete", "match", m.ID)

	if m.IsScrimming {
		// Outlives the request: score submissions land on their own time.
		go s.updateMatchpoints(context.Background(), m, notPlaying)
	}
	return nil
}

func (s *Server) handleMatchLoadComplete(_ context.Context, sess *model.Session, _ []byte) error {
	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	slot, _ := m.SlotOf(sess)
	if slot == nil {
		return nil
	}
	slot.Loaded = true

	for i := range m.Slots {
		if m.Slots[i].Status == model.SlotPlaying && !m.Slots[i].Loaded {
			return nil
		}
	}
	m.EnqueueState(serverpackets.MatchAllPlayersLoaded())
	return nil
}

func (s *Server) handleMatchFailed(_ context.Context, sess *model.Session, _ []byte) error {
	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	_, slotID := m.SlotOf(sess)
	if slotID == -1 {
		return nil
	}
	m.EnqueueState(serverpackets.MatchPlayerFailed(int32(slotID)))
	return nil
}

func (s *Server) handleMatchSkipRequest(_ context.Context, sess *model.Session, _ []byte) error {
	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	slot, _ := m.SlotOf(sess)
	if slot == nil {
		return nil
	}
	slot.Skipped = true
	m.EnqueueState(serverpackets.MatchPlayerSkipped(sess.ID))

	for i := range m.Slots {
		if m.Slots[i].Status == model.SlotPlaying && !m.Slots[i].Skipped {
			return nil
		}
	}
	m.EnqueueState(serverpackets.MatchSkip())
	return nil
}

func (s *Server) handleMatchTransferHost(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	slotID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading slot id: %w", err)
	}

	m := sess.Match
	if m == nil || sess.ID != m.HostID {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	if slotID < 0 || int(slotID) >= len(m.Slots) {
		return fmt.Errorf("invalid slot id %d", slotID)
	}
	target := m.Slots[slotID].Session
	if target == nil {
		return nil
	}

	m.HostID = target.ID
	target.Enqueue(serverpackets.MatchTransferHost())
	s.broadcastMatchStateLocked(m, true)
	s.log.Info("host transferred", "match", m.ID, "host", target.Name)
	return nil
}

func (s *Server) handleMatchChangeTeam(_ context.Context, sess *model.Session, _ []byte) error {
	m := sess.Match
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	if m.TeamType != model.TeamTypeTeamVS && m.TeamType != model.TeamTypeTagTeamVS {
		return nil
	}
	slot, _ := m.SlotOf(sess)
	if slot == nil {
		return nil
	}
	if slot.Team == model.TeamBlue {
		slot.Team = model.TeamRed
	} else {
		slot.Team = model.TeamBlue
	}
	s.broadcastMatchStateLocked(m, false)
	return nil
}

func (s *Server) handleMatchInvite(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	targetID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading invite target: %w", err)
	}

	m := sess.Match
	if m == nil {
		return nil
	}
	target := s.sessions.GetByID(targetID)
	if target == nil {
		return nil
	}
	if target.BotClient {
		sess.Enqueue(serverpackets.SendMessage(target.Name, "I'm too busy!", sess.Name, target.ID))
		return nil
	}

	target.Enqueue(serverpackets.MatchInvite(sess.Name, sess.ID, target.Name, m.Embed()))
	s.log.Info("match invite", "player", sess.Name, "target", target.Name, "match", m.ID)
	return nil
}

func (s *Server) handleMatchChangePassword(_ context.Context, sess *model.Session, data []byte) error {
	payload, err := clientpackets.ParseMatch(data)
	if err != nil {
		return fmt.Errorf("parsing password change: %w", err)
	}

	m := sess.Match
	if m == nil || sess.ID != m.HostID {
		return nil
	}
	m.Lock()
	defer m.Unlock()

	m.Passwd = payload.Passwd
	m.EnqueueState(serverpackets.MatchChangePassword(m.Passwd))
	s.broadcastMatchStateLocked(m, true)
	return nil
}

func (s *Server) handleTournamentMatchInfoRequest(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	matchID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading match id: %w", err)
	}

	if !sess.TourneyClient {
		return nil
	}
	m := s.matches.Get(matchID)
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()
	sess.Enqueue(serverpackets.UpdateMatch(m, false))
	return nil
}

func (s *Server) handleTournamentJoinMatchChannel(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	matchID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading match id: %w", err)
	}

	if !sess.TourneyClient {
		return nil
	}
	m := s.matches.Get(matchID)
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()
	m.TourneyClients[sess.ID] = struct{}{}
	s.joinChannel(sess, m.Chat)
	return nil
}

func (s *Server) handleTournamentLeaveMatchChannel(_ context.Context, sess *model.Session, data []byte) error {
	r := packet.NewReader(data)
	matchID, err := r.ReadInt32()
	if err != nil {
		return fmt.Errorf("reading match id: %w", err)
	}

	if !sess.TourneyClient {
		return nil
	}
	m := s.matches.Get(matchID)
	if m == nil {
		return nil
	}
	m.Lock()
	defer m.Unlock()
	delete(m.TourneyClients, sess.ID)
	s.leaveChannel(sess, m.Chat, false)
	return nil
}

// StartMatch force-starts a room: timed starts and referee commands.
func (s *Server) StartMatch(m *model.Match) {
	m.Lock()
	defer m.Unlock()
	s.startMatchLocked(m)
}

// AbortMatch aborts in-progress gameplay, returning playing slots to
// not-ready.
func (s *Server) AbortMatch(m *model.Match) {
	m.Lock()
	defer m.Unlock()

	if !m.InProgress {
		return
	}
	abort := serverpackets.MatchAbort()
	for i := range m.Slots {
		sl := &m.Slots[i]
		if sl.Status == model.SlotPlaying {
			sl.Status = model.SlotNotReady
			if sl.Session != nil {
				sl.Session.Enqueue(abort)
			}
		}
	}
	m.InProgress = false
	m.ResetPlayersLoadedStatuses()
	s.broadcastMatchStateLocked(m, true)
	s.log.Info("match aborted", "match", m.ID)
}

// BroadcastMatchState publishes a room's state after out-of-band changes
// (referee commands).
func (s *Server) BroadcastMatchState(m *model.Match) {
	m.Lock()
	defer m.Unlock()
	s.broadcastMatchStateLocked(m, true)
}

// broadcastMatchStateLocked pushes the room state to its players and,
// optionally, a password-stripped copy to the lobby. Caller holds the
// match lock.
func (s *Server) broadcastMatchStateLocked(m *model.Match, lobby bool) {
	m.EnqueuePlayers(serverpackets.UpdateMatch(m, true))
	for id := range m.TourneyClients {
		if t := s.sessions.GetByID(id); t != nil {
			t.Enqueue(serverpackets.UpdateMatch(m, false))
		}
	}
	if lobby {
		s.enqueueToLobby(serverpackets.UpdateMatch(m, false))
	}
}

// enqueueToLobby sends data to every session sitting in the lobby.
func (s *Server) enqueueToLobby(data []byte) {
	for _, p := range s.sessions.All() {
		if p.InLobby {
			p.Enqueue(data)
		}
	}
}
