package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScoreRow is a submitted score, as needed for scrimmage point awards.
type ScoreRow struct {
	ID       int64
	UserID   int32
	Score    int32
	PP       float32
	Acc      float32
	MaxCombo int32
	Mods     int32
	Grade    string
	PlayTime time.Time
}

// ScoreRepository reads from the scores table owned by the submission
// service.
type ScoreRepository struct {
	db *pgxpool.Pool
}

// NewScoreRepository creates a new ScoreRepository.
func NewScoreRepository(db *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// FetchRecent returns a user's latest score on a map since the given
// time, or nil, nil when none has landed yet.
func (r *ScoreRepository) FetchRecent(ctx context.Context, userID int32, mapMD5 string, since time.Time) (*ScoreRow, error) {
	var s ScoreRow
	err := r.db.QueryRow(ctx, `
		SELECT id, userid, score, pp, acc, max_combo, mods, grade, play_time
		FROM scores
		WHERE userid = $1 AND map_md5 = $2 AND play_time >= $3
		ORDER BY play_time DESC
		LIMIT 1`, userID, mapMD5, since,
	).Scan(&s.ID, &s.UserID, &s.Score, &s.PP, &s.Acc, &s.MaxCombo, &s.Mods, &s.Grade, &s.PlayTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying recent score for user %d on %q: %w", userID, mapMD5, err)
	}
	return &s, nil
}
