package bancho

import (
	"context"
	"time"
)

// RunHousekeeping periodically sweeps silent sessions and expired /np
// state until ctx is canceled.
func (s *Server) RunHousekeeping(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Server) sweep(ctx context.Context) {
	now := time.Now()

	for _, sess := range s.sessions.All() {
		if sess.BotClient {
			// Keeps the bot permanently fresh.
			sess.SetLastRecvTime(now)
			continue
		}
		if now.Sub(sess.LastRecvTime()) > s.cfg.PingTimeout {
			s.EjectSession(ctx, sess, "ping timeout")
			s.metrics.SessionsEvicted.Inc()
			continue
		}
		if np := sess.LastNp; np != nil && now.After(np.Timeout) {
			sess.LastNp = nil
		}
	}

	s.metrics.SessionsOnline.Set(float64(s.sessions.Len()))
	s.metrics.MatchesActive.Set(float64(s.matches.Len()))
}
