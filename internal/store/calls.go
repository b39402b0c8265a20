package store

import (
	"context"
	"fmt"
	"time"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallStore persists the call log. Live signaling state never touches the
// database; only outcomes are recorded.
type CallStore interface {
	CreateCallRecord(ctx context.Context, record *models.CallRecord) error
	UpdateCallStatus(ctx context.Context, callID uuid.UUID, status models.CallStatus, endedAt *time.Time) error
	ListRecentCalls(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CallRecord, error)
}

// PostgresCallStore implements CallStore with PostgreSQL.
type PostgresCallStore struct {
	db *pgxpool.Pool
}

func NewPostgresCallStore(db *pgxpool.Pool) *PostgresCallStore {
	return &PostgresCallStore{
		db: db,
	}
}

func (s *PostgresCallStore) CreateCallRecord(ctx context.Context, record *models.CallRecord) error {
	query := `
        INSERT INTO calls (id, caller_id, callee_id, with_video, status, started_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := s.db.Exec(ctx, query,
		record.ID,
		record.CallerID,
		record.CalleeID,
		record.WithVideo,
		record.Status,
		record.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create call record: %w", err)
	}
	return nil
}

func (s *PostgresCallStore) UpdateCallStatus(ctx context.Context, callID uuid.UUID, status models.CallStatus, endedAt *time.Time) error {
	query := `UPDATE calls SET status = $2, ended_at = $3 WHERE id = $1`

	result, err := s.db.Exec(ctx, query, callID, status, endedAt)
	if err != nil {
		return fmt.Errorf("failed to update call %s status: %w", callID, err)
	}
	if result.RowsAffected() == 0 {
		return ErrCallNotFound
	}
	return nil
}

func (s *PostgresCallStore) ListRecentCalls(ctx context.Context, userID uuid.UUID, limit int) ([]*models.CallRecord, error) {
	query := `
        SELECT c.id, c.caller_id, c.callee_id, c.with_video, c.status, c.started_at, c.ended_at,
               p.username, p.full_name, p.avatar_url, p.whatsapp_number, p.created_at
        FROM calls c
        JOIN profiles p ON c.caller_id = p.id
        WHERE c.caller_id = $1 OR c.callee_id = $1
        ORDER BY c.started_at DESC
        LIMIT $2
    `
	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent calls: %w", err)
	}
	defer rows.Close()

	records := make([]*models.CallRecord, 0)
	for rows.Next() {
		var rec models.CallRecord
		var caller models.PublicProfile
		err := rows.Scan(
			&rec.ID,
			&rec.CallerID,
			&rec.CalleeID,
			&rec.WithVideo,
			&rec.Status,
			&rec.StartedAt,
			&rec.EndedAt,
			&caller.Username,
			&caller.FullName,
			&caller.AvatarURL,
			&caller.WhatsappNumber,
			&caller.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call row: %w", err)
		}
		caller.ID = rec.CallerID
		rec.Caller = &caller
		records = append(records, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call rows: %w", err)
	}
	return records, nil
}

var (
	ErrCallNotFound = fmt.Errorf("call not found")
)
