package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FollowStore defines persistence operations for follow and block edges.
type FollowStore interface {
	Follow(ctx context.Context, followerID, followingID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	// FollowingSet returns the set of user ids the user follows, for the
	// conversation aggregator's request partitioning.
	FollowingSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
	Block(ctx context.Context, blockerID, blockedID uuid.UUID) error
	Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error
	// IsBlockedEither reports whether either user has blocked the other.
	IsBlockedEither(ctx context.Context, userA, userB uuid.UUID) (bool, error)
}

// PostgresFollowStore implements FollowStore with PostgreSQL.
type PostgresFollowStore struct {
	db *pgxpool.Pool
}

func NewPostgresFollowStore(db *pgxpool.Pool) *PostgresFollowStore {
	return &PostgresFollowStore{
		db: db,
	}
}

func (s *PostgresFollowStore) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	query := `
        INSERT INTO follows (follower_id, following_id, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT DO NOTHING
    `
	_, err := s.db.Exec(ctx, query, followerID, followingID)
	if err != nil {
		return fmt.Errorf("failed to follow user %s: %w", followingID, err)
	}
	return nil
}

func (s *PostgresFollowStore) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`
	_, err := s.db.Exec(ctx, query, followerID, followingID)
	if err != nil {
		return fmt.Errorf("failed to unfollow user %s: %w", followingID, err)
	}
	return nil
}

func (s *PostgresFollowStore) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2
        )
    `
	var exists bool
	err := s.db.QueryRow(ctx, query, followerID, followingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check follow edge: %w", err)
	}
	return exists, nil
}

func (s *PostgresFollowStore) FollowingSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `SELECT following_id FROM follows WHERE follower_id = $1`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query following set: %w", err)
	}
	defer rows.Close()

	following := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan following row: %w", err)
		}
		following[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating following rows: %w", err)
	}
	return following, nil
}

func (s *PostgresFollowStore) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}
	query := `
        INSERT INTO blocks (blocker_id, blocked_id, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT DO NOTHING
    `
	_, err := s.db.Exec(ctx, query, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to block user %s: %w", blockedID, err)
	}
	return nil
}

func (s *PostgresFollowStore) Unblock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	query := `DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`
	_, err := s.db.Exec(ctx, query, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to unblock user %s: %w", blockedID, err)
	}
	return nil
}

func (s *PostgresFollowStore) IsBlockedEither(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM blocks
            WHERE (blocker_id = $1 AND blocked_id = $2)
               OR (blocker_id = $2 AND blocked_id = $1)
        )
    `
	var exists bool
	err := s.db.QueryRow(ctx, query, userA, userB).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check block edges: %w", err)
	}
	return exists, nil
}

var (
	ErrSelfFollow = fmt.Errorf("cannot follow yourself")
	ErrSelfBlock  = fmt.Errorf("cannot block yourself")
)
