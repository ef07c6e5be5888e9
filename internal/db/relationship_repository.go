package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RelationshipRepository manages the relationships table (friends and blocks).
type RelationshipRepository struct {
	db *pgxpool.Pool
}

// NewRelationshipRepository creates a new RelationshipRepository.
func NewRelationshipRepository(db *pgxpool.Pool) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// Load returns the friend and block id sets for a user.
func (r *RelationshipRepository) Load(ctx context.Context, userID int32) (friends, blocks []int32, err error) {
	rows, err := r.db.Query(ctx,
		`SELECT user2, type FROM relationships WHERE user1 = $1`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("querying relationships for user %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int32
		var typ string
		if err := rows.Scan(&id, &typ); err != nil {
			return nil, nil, fmt.Errorf("scanning relationship row: %w", err)
		}
		switch typ {
		case "friend":
			friends = append(friends, id)
		case "block":
			blocks = append(blocks, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating relationship rows: %w", err)
	}
	return friends, blocks, nil
}

// AddFriend upserts a friend edge, replacing a block if present.
func (r *RelationshipRepository) AddFriend(ctx context.Context, userID, targetID int32) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO relationships (user1, user2, type) VALUES ($1, $2, 'friend')
		ON CONFLICT (user1, user2) DO UPDATE SET type = 'friend'`,
		userID, targetID); err != nil {
		return fmt.Errorf("adding friend %d -> %d: %w", userID, targetID, err)
	}
	return nil
}

// Remove deletes any relationship edge from userID to targetID.
func (r *RelationshipRepository) Remove(ctx context.Context, userID, targetID int32) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM relationships WHERE user1 = $1 AND user2 = $2`,
		userID, targetID); err != nil {
		return fmt.Errorf("removing relationship %d -> %d: %w", userID, targetID, err)
	}
	return nil
}
