package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MailRow is an offline message with the sender's current name joined in.
type MailRow struct {
	SenderID   int32
	SenderName string
	Msg        string
	Time       int64
}

// MailRepository manages offline messages.
type MailRepository struct {
	db *pgxpool.Pool
}

// NewMailRepository creates a new MailRepository.
func NewMailRepository(db *pgxpool.Pool) *MailRepository {
	return &MailRepository{db: db}
}

// FetchUnread returns all unread mail for a user, oldest first.
func (r *MailRepository) FetchUnread(ctx context.Context, toID int32) ([]MailRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.from_id, u.name, m.msg, m.time
		FROM mail m
		JOIN users u ON u.id = m.from_id
		WHERE m.to_id = $1 AND NOT m.read
		ORDER BY m.time`, toID)
	if err != nil {
		return nil, fmt.Errorf("querying unread mail for user %d: %w", toID, err)
	}
	defer rows.Close()

	var result []MailRow
	for rows.Next() {
		var m MailRow
		if err := rows.Scan(&m.SenderID, &m.SenderName, &m.Msg, &m.Time); err != nil {
			return nil, fmt.Errorf("scanning mail row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mail rows: %w", err)
	}
	return result, nil
}

// MarkRead marks all mail to a user as read.
func (r *MailRepository) MarkRead(ctx context.Context, toID int32) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE mail SET read = TRUE WHERE to_id = $1 AND NOT read`, toID); err != nil {
		return fmt.Errorf("marking mail read for user %d: %w", toID, err)
	}
	return nil
}

// Insert stores an offline message.
func (r *MailRepository) Insert(ctx context.Context, fromID, toID int32, msg string, unix int64) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO mail (from_id, to_id, msg, time) VALUES ($1, $2, $3, $4)`,
		fromID, toID, msg, unix); err != nil {
		return fmt.Errorf("inserting mail %d -> %d: %w", fromID, toID, err)
	}
	return nil
}
