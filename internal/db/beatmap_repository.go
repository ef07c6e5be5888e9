package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osukon/banchod/internal/model"
)

// BeatmapRepository manages locally-cached beatmap metadata.
type BeatmapRepository struct {
	db *pgxpool.Pool
}

// NewBeatmapRepository creates a new BeatmapRepository.
func NewBeatmapRepository(db *pgxpool.Pool) *BeatmapRepository {
	return &BeatmapRepository{db: db}
}

const beatmapColumns = `id, set_id, md5, artist, title, version, creator,
	mode, status, total_length`

func scanBeatmap(row pgx.Row) (*model.Beatmap, error) {
	var b model.Beatmap
	err := row.Scan(&b.ID, &b.SetID, &b.MD5, &b.Artist, &b.Title, &b.Version,
		&b.Creator, &b.Mode, &b.Status, &b.TotalLength)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// FetchByMD5 retrieves a beatmap by file hash.
// Returns nil, nil if unknown.
func (r *BeatmapRepository) FetchByMD5(ctx context.Context, md5 string) (*model.Beatmap, error) {
	b, err := scanBeatmap(r.db.QueryRow(ctx,
		`SELECT `+beatmapColumns+` FROM maps WHERE md5 = $1`, md5))
	if err != nil {
		return nil, fmt.Errorf("querying beatmap %q: %w", md5, err)
	}
	return b, nil
}

// FetchByID retrieves a beatmap by id.
// Returns nil, nil if unknown.
func (r *BeatmapRepository) FetchByID(ctx context.Context, id int32) (*model.Beatmap, error) {
	b, err := scanBeatmap(r.db.QueryRow(ctx,
		`SELECT `+beatmapColumns+` FROM maps WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("querying beatmap %d: %w", id, err)
	}
	return b, nil
}
