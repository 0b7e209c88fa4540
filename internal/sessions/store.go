package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no active session exists for the staff member.
var ErrNotFound = errors.New("sessions: not found")

// ActiveSession mirrors a logged-in staff member in redis so logout takes
// effect immediately, before the JWT itself expires.
type ActiveSession struct {
	StaffID  int64     `json:"staff_id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store manages the active staff-session cache.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns a redis-backed store. Sessions expire with the token.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(staffID int64) string {
	return fmt.Sprintf("staff:session:%d", staffID)
}

// Save caches the session.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.StaffID), data, s.ttl).Err()
}

// Get returns the cached session.
func (s *Store) Get(ctx context.Context, staffID int64) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(staffID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes the cached session.
func (s *Store) Delete(ctx context.Context, staffID int64) error {
	return s.client.Del(ctx, s.key(staffID)).Err()
}
