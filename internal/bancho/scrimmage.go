package bancho

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/osukon/banchod/internal/bancho/serverpackets"
	"github.com/osukon/banchod/internal/db"
	"github.com/osukon/banchod/internal/model"
)

// Tournament-style match names carry the team names:
// "TOURNEY: (Team A) vs. (Team B)".
var tourneyMatchNameRegex = regexp.MustCompile(`^(.+?): \((.+)\) vs\.? \((.+)\)$`)

const (
	submissionWaitTotal = 10 * time.Second
	submissionWaitPoll  = 500 * time.Millisecond
)

// scrimScore is one player's contribution to a scrimmage point.
type scrimScore struct {
	sess    *model.Session
	team    model.MatchTeam
	value   float64
	display string
}

// updateMatchpoints awards a scrimmage point for the finished map. It
// waits for score submissions to land before deciding, so it runs off
// the request path.
func (s *Server) updateMatchpoints(ctx context.Context, m *model.Match, immune []int32) {
	players, mapMD5, since := s.scrimParticipants(m, immune)
	if len(players) == 0 {
		return
	}

	rows, didntSubmit := s.awaitSubmissions(ctx, players, mapMD5, since)

	m.Lock()
	defer m.Unlock()

	if !m.IsScrimming {
		return
	}

	for _, name := range didntSubmit {
		m.Enqueue(serverpackets.SendMessage(s.bot.Name,
			fmt.Sprintf("%s didn't submit a score (timed out).", name),
			m.Chat.Name(), s.bot.ID))
	}

	scores := s.collectScrimScores(m, players, rows)
	if len(scores) == 0 {
		return
	}

	if m.TeamType == model.TeamTypeTeamVS || m.TeamType == model.TeamTypeTagTeamVS {
		s.awardTeamPointLocked(m, scores)
	} else {
		s.awardFFAPointLocked(m, scores)
	}
}

// scrimParticipants snapshots who played the map, under the match lock.
func (s *Server) scrimParticipants(m *model.Match, immune []int32) ([]*model.Session, string, time.Time) {
	m.Lock()
	defer m.Unlock()

	var players []*model.Session
outer:
	for _, p := range m.Players() {
		for _, id := range immune {
			if p.ID == id {
				continue outer
			}
		}
		players = append(players, p)
	}
	return players, m.MapMD5, m.StartedAt
}

// awaitSubmissions polls the score store until every participant's play
// has landed or the window closes.
func (s *Server) awaitSubmissions(ctx context.Context, players []*model.Session, mapMD5 string, since time.Time) (map[int32]*db.ScoreRow, []string) {
	rows := make(map[int32]*db.ScoreRow, len(players))
	deadline := time.Now().Add(submissionWaitTotal)

	for {
		for _, p := range players {
			if _, ok := rows[p.ID]; ok {
				continue
			}
			row, err := s.scores.FetchRecent(ctx, p.ID, mapMD5, since)
			if err != nil {
				s.log.Error("polling scrim score", "player", p.Name, "err", err)
				continue
			}
			if row != nil {
				rows[p.ID] = row
			}
		}
		if len(rows) == len(players) || time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return rows, nil
		case <-time.After(submissionWaitPoll):
		}
	}

	var didntSubmit []string
	for _, p := range players {
		if _, ok := rows[p.ID]; !ok {
			didntSubmit = append(didntSubmit, p.Name)
		}
	}
	return rows, didntSubmit
}

// collectScrimScores turns score rows into comparable values under the
// room's win condition. Caller holds the match lock.
func (s *Server) collectScrimScores(m *model.Match, players []*model.Session, rows map[int32]*db.ScoreRow) []scrimScore {
	out := make([]scrimScore, 0, len(players))
	for _, p := range players {
		row, ok := rows[p.ID]
		if !ok {
			continue
		}
		slot, _ := m.SlotOf(p)
		var team model.MatchTeam
		if slot != nil {
			team = slot.Team
		}

		var value float64
		switch {
		case m.UsePPScoring:
			value = float64(row.PP)
		case m.WinCondition == model.WinConditionAccuracy:
			value = float64(row.Acc)
		case m.WinCondition == model.WinConditionCombo:
			value = float64(row.MaxCombo)
		default: // score, scorev2
			value = float64(row.Score)
		}

		out = append(out, scrimScore{sess: p, team: team, value: value, display: scrimDisplay(m, value)})
	}
	return out
}

// scrimDisplay renders a comparable value in the room's win condition
// units.
func scrimDisplay(m *model.Match, v float64) string {
	switch {
	case m.UsePPScoring:
		return fmt.Sprintf("%.2fpp", v)
	case m.WinCondition == model.WinConditionAccuracy:
		return fmt.Sprintf("%.2f%%", v)
	case m.WinCondition == model.WinConditionCombo:
		return fmt.Sprintf("%dx", int64(v))
	default:
		return fmt.Sprintf("%d", int64(v))
	}
}

// teamNames extracts the scrim team names from a tournament-style match
// name, falling back to plain Blue/Red.
func teamNames(matchName string) (blue, red string) {
	if m := tourneyMatchNameRegex.FindStringSubmatch(matchName); m != nil {
		return m[2], m[3]
	}
	return model.TeamBlue.String(), model.TeamRed.String()
}

func (s *Server) awardTeamPointLocked(m *model.Match, scores []scrimScore) {
	var blueSum, redSum float64
	for _, sc := range scores {
		switch sc.team {
		case model.TeamBlue:
			blueSum += sc.value
		case model.TeamRed:
			redSum += sc.value
		}
	}

	blueName, redName := teamNames(m.Name)

	if blueSum == redSum {
		m.Winners = append(m.Winners, model.ScrimWinner{Tie: true})
		s.scrimAnnounceLocked(m, "The point has ended in a tie!")
		return
	}

	winner := model.TeamBlue
	winnerName := blueName
	winnerSum, loserSum := blueSum, redSum
	if redSum > blueSum {
		winner = model.TeamRed
		winnerName = redName
		winnerSum, loserSum = redSum, blueSum
	}

	m.PointsByTeam[winner]++
	m.Winners = append(m.Winners, model.ScrimWinner{Team: winner})

	s.scrimAnnounceLocked(m, fmt.Sprintf("%s takes the point! (%s vs. %s)",
		winnerName, scrimDisplay(m, winnerSum), scrimDisplay(m, loserSum)))

	if m.WinningPts != 0 && m.PointsByTeam[winner] >= m.WinningPts {
		s.endScrimLocked(m, fmt.Sprintf("%s takes the match! Congratulations!", winnerName))
	}
}

func (s *Server) awardFFAPointLocked(m *model.Match, scores []scrimScore) {
	sorted := make([]scrimScore, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].value > sorted[j].value })

	top := sorted[0]
	// Only a full deadlock is a tie; a shared top score still goes to the
	// sort's first entry.
	if len(sorted) > 1 && sorted[len(sorted)-1].value == top.value {
		m.Winners = append(m.Winners, model.ScrimWinner{Tie: true})
		s.scrimAnnounceLocked(m, "The point has ended in a tie!")
		return
	}

	m.PointsByPlayer[top.sess.ID]++
	m.Winners = append(m.Winners, model.ScrimWinner{
		PlayerID:   top.sess.ID,
		PlayerName: top.sess.Name,
	})

	var total float64
	podium := make([]string, 0, 3)
	for i, sc := range sorted {
		total += sc.value
		if i < 3 {
			podium = append(podium, fmt.Sprintf("%d. %s (%s)", i+1, sc.sess.Name, sc.display))
		}
	}
	avg := total / float64(len(sorted))

	s.scrimAnnounceLocked(m, fmt.Sprintf("%s takes the point! (%s points) | %s | Match average: %.2f",
		top.sess.Name, ordinalPoints(m.PointsByPlayer[top.sess.ID]),
		strings.Join(podium, ", "), avg))

	if m.WinningPts != 0 && m.PointsByPlayer[top.sess.ID] >= m.WinningPts {
		s.endScrimLocked(m, fmt.Sprintf("%s takes the match! Congratulations!", top.sess.Name))
	}
}

func ordinalPoints(n int) string {
	if n == 1 {
		return "1st"
	}
	return fmt.Sprintf("%d total", n)
}

// endScrimLocked announces the final result and clears scrim state.
func (s *Server) endScrimLocked(m *model.Match, msg string) {
	s.scrimAnnounceLocked(m, msg)
	m.IsScrimming = false
	m.WinningPts = 0
	m.ResetScrim()
	s.log.Info("scrim finished", "match", m.ID)
}

func (s *Server) scrimAnnounceLocked(m *model.Match, msg string) {
	m.Enqueue(serverpackets.SendMessage(s.bot.Name, msg, m.Chat.Name(), s.bot.ID))
}
