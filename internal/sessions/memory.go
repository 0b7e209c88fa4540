package sessions

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process fallback used when no redis address is
// configured. Suitable for single-node deployments, which is the only
// supported topology anyway.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]ActiveSession
	ttl      time.Duration
}

// NewMemoryStore returns an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]ActiveSession), ttl: ttl}
}

// Save caches the session.
func (s *MemoryStore) Save(ctx context.Context, session ActiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.StaffID] = session
	return nil
}

// Get returns the cached session if it has not expired.
func (s *MemoryStore) Get(ctx context.Context, staffID int64) (*ActiveSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[staffID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.ttl > 0 && time.Since(session.IssuedAt) > s.ttl {
		s.mu.Lock()
		delete(s.sessions, staffID)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return &session, nil
}

// Delete removes the cached session.
func (s *MemoryStore) Delete(ctx context.Context, staffID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, staffID)
	return nil
}
