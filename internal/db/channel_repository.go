package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChannelRow represents a persisted chat channel.
type ChannelRow struct {
	Name      string
	Topic     string
	ReadPriv  int32
	WritePriv int32
	AutoJoin  bool
}

// ChannelRepository manages the channels table.
type ChannelRepository struct {
	db *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(db *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// LoadAll returns every persisted channel.
func (r *ChannelRepository) LoadAll(ctx context.Context) ([]ChannelRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, topic, read_priv, write_priv, auto_join FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying channels: %w", err)
	}
	defer rows.Close()

	var result []ChannelRow
	for rows.Next() {
		var c ChannelRow
		if err := rows.Scan(&c.Name, &c.Topic, &c.ReadPriv, &c.WritePriv, &c.AutoJoin); err != nil {
			return nil, fmt.Errorf("scanning channel row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating channel rows: %w", err)
	}
	return result, nil
}
