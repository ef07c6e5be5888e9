package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HardwareMatch is another account seen with the same hardware hashes.
type HardwareMatch struct {
	UserID int32
	Name   string
	Priv   int32
}

// ClientHashRepository manages per-login hardware fingerprints.
type ClientHashRepository struct {
	db *pgxpool.Pool
}

// NewClientHashRepository creates a new ClientHashRepository.
func NewClientHashRepository(db *pgxpool.Pool) *ClientHashRepository {
	return &ClientHashRepository{db: db}
}

// Upsert records a hardware fingerprint sighting.
func (r *ClientHashRepository) Upsert(ctx context.Context, userID int32, osuPath, adapters, uninstallID, diskSerial string, now time.Time) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO client_hashes (userid, osupath, adapters, uninstall_id, disk_serial, latest_time, occurrences)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (userid, osupath, adapters, uninstall_id, disk_serial)
		DO UPDATE SET latest_time = $6, occurrences = client_hashes.occurrences + 1`,
		userID, osuPath, adapters, uninstallID, diskSerial, now); err != nil {
		return fmt.Errorf("upserting client hashes for user %d: %w", userID, err)
	}
	return nil
}

// FindMatches returns other accounts sharing hardware hashes with this
// login. Wine clients report no usable disk hashes, so only the adapters
// hash is cross-referenced for them.
func (r *ClientHashRepository) FindMatches(ctx context.Context, userID int32, adapters, uninstallID, diskSerial string, runningUnderWine bool) ([]HardwareMatch, error) {
	var query string
	var args []any
	if runningUnderWine {
		query = `
			SELECT DISTINCT u.id, u.name, u.priv
			FROM client_hashes ch
			JOIN users u ON u.id = ch.userid
			WHERE ch.userid != $1 AND ch.uninstall_id = $2`
		args = []any{userID, uninstallID}
	} else {
		query = `
			SELECT DISTINCT u.id, u.name, u.priv
			FROM client_hashes ch
			JOIN users u ON u.id = ch.userid
			WHERE ch.userid != $1
			  AND (ch.adapters = $2 OR ch.uninstall_id = $3 OR ch.disk_serial = $4)`
		args = []any{userID, adapters, uninstallID, diskSerial}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying hardware matches for user %d: %w", userID, err)
	}
	defer rows.Close()

	var result []HardwareMatch
	for rows.Next() {
		var m HardwareMatch
		if err := rows.Scan(&m.UserID, &m.Name, &m.Priv); err != nil {
			return nil, fmt.Errorf("scanning hardware match row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hardware match rows: %w", err)
	}
	return result, nil
}
