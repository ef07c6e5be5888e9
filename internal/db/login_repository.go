package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginRepository records in-game login attempts.
type LoginRepository struct {
	db *pgxpool.Pool
}

// NewLoginRepository creates a new LoginRepository.
func NewLoginRepository(db *pgxpool.Pool) *LoginRepository {
	return &LoginRepository{db: db}
}

// Insert records a successful client login.
func (r *LoginRepository) Insert(ctx context.Context, userID int32, ip string, osuVer time.Time, stream string, now time.Time) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO ingame_logins (userid, ip, osu_ver, osu_stream, datetime)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, ip, osuVer, stream, now); err != nil {
		return fmt.Errorf("inserting login record for user %d: %w", userID, err)
	}
	return nil
}
