package store

import (
	"context"
	"fmt"

	"github.com/akshayrajput12/thaughtScape-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageStore defines persistence operations for directed messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessageByID(ctx context.Context, messageID uuid.UUID) (*models.Message, error)
	// ListMessagesBetween returns every message exchanged between the two
	// users, in both directions, ascending by created_at.
	ListMessagesBetween(ctx context.Context, userA, userB uuid.UUID) ([]*models.Message, error)
	// ListInboxMessages returns every message the user sent or received,
	// newest first. It is the raw input to the conversation aggregator.
	ListInboxMessages(ctx context.Context, userID uuid.UUID) ([]*models.Message, error)
	MarkRead(ctx context.Context, messageID uuid.UUID) error
	// MarkConversationRead flips every unread message from sender to receiver.
	MarkConversationRead(ctx context.Context, senderID, receiverID uuid.UUID) ([]uuid.UUID, error)
	// UpdateRequestStatus resolves all of a sender's pending request messages
	// to the receiver in a single statement.
	UpdateRequestStatus(ctx context.Context, senderID, receiverID uuid.UUID, status models.RequestStatus) (int64, error)
	CountOutboundPending(ctx context.Context, senderID, receiverID uuid.UUID) (int, error)
	HasAcceptedThread(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error)
}

// PostgresMessageStore implements MessageStore with PostgreSQL.
type PostgresMessageStore struct {
	db *pgxpool.Pool
}

func NewPostgresMessageStore(db *pgxpool.Pool) *PostgresMessageStore {
	return &PostgresMessageStore{
		db: db,
	}
}

const messageWithProfilesQuery = `
    SELECT
        m.id, m.sender_id, m.receiver_id, m.content, m.created_at, m.is_read, m.is_request, m.request_status,
        s.username, s.full_name, s.avatar_url, s.whatsapp_number, s.created_at,
        r.username, r.full_name, r.avatar_url, r.whatsapp_number, r.created_at
    FROM messages m
    JOIN profiles s ON m.sender_id = s.id
    JOIN profiles r ON m.receiver_id = r.id
`

func scanMessageWithProfiles(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	var sender models.PublicProfile
	var receiver models.PublicProfile

	err := row.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.CreatedAt,
		&msg.IsRead,
		&msg.IsRequest,
		&msg.RequestStatus,
		&sender.Username,
		&sender.FullName,
		&sender.AvatarURL,
		&sender.WhatsappNumber,
		&sender.CreatedAt,
		&receiver.Username,
		&receiver.FullName,
		&receiver.AvatarURL,
		&receiver.WhatsappNumber,
		&receiver.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	sender.ID = msg.SenderID
	receiver.ID = msg.ReceiverID
	msg.Sender = &sender
	msg.Receiver = &receiver
	return &msg, nil
}

func (s *PostgresMessageStore) CreateMessage(ctx context.Context, message *models.Message) error {
	query := `
        INSERT INTO messages (id, sender_id, receiver_id, content, created_at, is_read, is_request, request_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := s.db.Exec(ctx, query,
		message.ID,
		message.SenderID,
		message.ReceiverID,
		message.Content,
		message.CreatedAt,
		message.IsRead,
		message.IsRequest,
		message.RequestStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (s *PostgresMessageStore) GetMessageByID(ctx context.Context, messageID uuid.UUID) (*models.Message, error) {
	query := messageWithProfilesQuery + ` WHERE m.id = $1`

	msg, err := scanMessageWithProfiles(s.db.QueryRow(ctx, query, messageID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", err)
	}
	return msg, nil
}

func (s *PostgresMessageStore) ListMessagesBetween(ctx context.Context, userA, userB uuid.UUID) ([]*models.Message, error) {
	query := messageWithProfilesQuery + `
        WHERE (m.sender_id = $1 AND m.receiver_id = $2)
           OR (m.sender_id = $2 AND m.receiver_id = $1)
        ORDER BY m.created_at ASC
    `
	return s.queryMessages(ctx, query, userA, userB)
}

func (s *PostgresMessageStore) ListInboxMessages(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	query := messageWithProfilesQuery + `
        WHERE m.sender_id = $1 OR m.receiver_id = $1
        ORDER BY m.created_at DESC
    `
	return s.queryMessages(ctx, query, userID)
}

func (s *PostgresMessageStore) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*models.Message, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		msg, err := scanMessageWithProfiles(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return messages, nil
}

// MarkRead is idempotent: marking an already-read message affects zero rows
// and is not an error.
func (s *PostgresMessageStore) MarkRead(ctx context.Context, messageID uuid.UUID) error {
	query := `UPDATE messages SET is_read = TRUE WHERE id = $1`

	result, err := s.db.Exec(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message %s read: %w", messageID, err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)`, messageID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to verify message %s: %w", messageID, err)
		}
		if !exists {
			return ErrMessageNotFound
		}
	}
	return nil
}

func (s *PostgresMessageStore) MarkConversationRead(ctx context.Context, senderID, receiverID uuid.UUID) ([]uuid.UUID, error) {
	query := `
        UPDATE messages
        SET is_read = TRUE
        WHERE sender_id = $1 AND receiver_id = $2 AND is_read = FALSE
        RETURNING id
    `
	rows, err := s.db.Query(ctx, query, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan marked message id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating marked message rows: %w", err)
	}
	return ids, nil
}

// UpdateRequestStatus resolves the whole pending backlog from one sender in a
// single UPDATE, so the receiver's decision applies atomically.
func (s *PostgresMessageStore) UpdateRequestStatus(ctx context.Context, senderID, receiverID uuid.UUID, status models.RequestStatus) (int64, error) {
	if status != models.RequestAccepted && status != models.RequestDeclined {
		return 0, fmt.Errorf("invalid request status %q", status)
	}
	query := `
        UPDATE messages
        SET request_status = $3
        WHERE sender_id = $1 AND receiver_id = $2
          AND is_request = TRUE
          AND (request_status = 'pending' OR request_status IS NULL)
    `
	result, err := s.db.Exec(ctx, query, senderID, receiverID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update request status: %w", err)
	}
	return result.RowsAffected(), nil
}

func (s *PostgresMessageStore) CountOutboundPending(ctx context.Context, senderID, receiverID uuid.UUID) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM messages
        WHERE sender_id = $1 AND receiver_id = $2
          AND is_request = TRUE
          AND (request_status = 'pending' OR request_status IS NULL)
    `
	var count int
	err := s.db.QueryRow(ctx, query, senderID, receiverID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count outbound pending messages: %w", err)
	}
	return count, nil
}

func (s *PostgresMessageStore) HasAcceptedThread(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM messages
            WHERE sender_id = $1 AND receiver_id = $2 AND request_status = 'accepted'
        )
    `
	var exists bool
	err := s.db.QueryRow(ctx, query, senderID, receiverID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check accepted thread: %w", err)
	}
	return exists, nil
}

var (
	ErrMessageNotFound = fmt.Errorf("message not found")
)
