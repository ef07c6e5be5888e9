package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRow represents a row in the users table.
type UserRow struct {
	ID             int32
	Name           string
	SafeName       string
	PwBcrypt       string
	Priv           int32
	Country        string
	SilenceEnd     int64
	DonorEnd       int64
	CreationTime   int64
	LatestActivity int64
}

// StatsRow represents a user's stats in one mode, with the global rank
// computed against unrestricted players.
type StatsRow struct {
	Mode        int16
	TotalScore  int64
	RankedScore int64
	PP          int32
	Plays       int32
	Accuracy    float32
	MaxCombo    int32
	Rank        int32
}

// PlayerRepository manages the users and stats tables.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const userColumns = `id, name, safe_name, pw_bcrypt, priv, country,
	silence_end, donor_end, creation_time, latest_activity`

func scanUser(row pgx.Row) (*UserRow, error) {
	var u UserRow
	err := row.Scan(&u.ID, &u.Name, &u.SafeName, &u.PwBcrypt, &u.Priv, &u.Country,
		&u.SilenceEnd, &u.DonorEnd, &u.CreationTime, &u.LatestActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// FetchBySafeName retrieves a user by safe name.
// Returns nil, nil if the user does not exist.
func (r *PlayerRepository) FetchBySafeName(ctx context.Context, safeName string) (*UserRow, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE safe_name = $1`, safeName))
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", safeName, err)
	}
	return u, nil
}

// FetchByID retrieves a user by id.
// Returns nil, nil if the user does not exist.
func (r *PlayerRepository) FetchByID(ctx context.Context, id int32) (*UserRow, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("querying user %d: %w", id, err)
	}
	return u, nil
}

// UpdateLatestActivity stamps the user's last seen time (unix seconds).
func (r *PlayerRepository) UpdateLatestActivity(ctx context.Context, id int32, unix int64) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE users SET latest_activity = $1 WHERE id = $2`, unix, id); err != nil {
		return fmt.Errorf("updating latest activity for user %d: %w", id, err)
	}
	return nil
}

// UpdatePrivileges persists a privilege change.
func (r *PlayerRepository) UpdatePrivileges(ctx context.Context, id int32, priv int32) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE users SET priv = $1 WHERE id = $2`, priv, id); err != nil {
		return fmt.Errorf("updating privileges for user %d: %w", id, err)
	}
	return nil
}

// LoadStats loads all mode stats for a user. Ranks are computed against
// unrestricted users only; restricted players keep rank 0.
func (r *PlayerRepository) LoadStats(ctx context.Context, id int32) ([]StatsRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.mode, s.tscore, s.rscore, s.pp, s.plays, s.acc, s.max_combo,
		       (SELECT COUNT(*) + 1
		          FROM stats o
		          JOIN users u ON u.id = o.id
		         WHERE o.mode = s.mode AND o.pp > s.pp AND u.priv & 1 = 1)
		FROM stats s
		WHERE s.id = $1
		ORDER BY s.mode`, id)
	if err != nil {
		return nil, fmt.Errorf("querying stats for user %d: %w", id, err)
	}
	defer rows.Close()

	result := make([]StatsRow, 0, 9)
	for rows.Next() {
		var s StatsRow
		if err := rows.Scan(&s.Mode, &s.TotalScore, &s.RankedScore, &s.PP,
			&s.Plays, &s.Accuracy, &s.MaxCombo, &s.Rank); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats rows: %w", err)
	}
	return result, nil
}
