package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store keeps online/last-seen state in Redis so presence survives server
// restarts and can be shared across instances. One key per user:
// <prefix>:presence:<userID> -> {"status":..., "lastSeen":...}.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Status is what the presence endpoint returns.
type Status struct {
	Status   string    `json:"status"` // "online" or "offline"
	LastSeen time.Time `json:"lastSeen"`
}

// NewStore connects a presence Store to Redis. Online entries expire after
// ttl, so a crashed server's users age out to offline on their own.
func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

// SetOnline marks the user online. Called by the hub on first register; the
// hub refreshes it implicitly by re-registering tabs.
func (s *Store) SetOnline(ctx context.Context, userID uuid.UUID) error {
	payload, err := json.Marshal(Status{Status: "online", LastSeen: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set presence for %s: %w", userID, err)
	}
	return nil
}

// SetOffline marks the user offline with their last-seen time. The entry is
// written without expiry so "last seen" stays queryable.
func (s *Store) SetOffline(ctx context.Context, userID uuid.UUID) error {
	payload, err := json.Marshal(Status{Status: "offline", LastSeen: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to clear presence for %s: %w", userID, err)
	}
	return nil
}

// Get returns the user's presence. A user with no entry has never connected;
// they read as offline with a zero last-seen.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (*Status, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Status{Status: "offline"}, nil
		}
		return nil, fmt.Errorf("failed to get presence for %s: %w", userID, err)
	}
	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence for %s: %w", userID, err)
	}
	return &status, nil
}
