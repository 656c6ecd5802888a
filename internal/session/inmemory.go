package session

import (
	"context"
	"sync"
	"time"
)

type record struct {
	userID    string
	expiresAt time.Time
}

// InMemoryStore is a process-local session store for dev mode and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]record)}
}

func (s *InMemoryStore) Save(_ context.Context, tokenID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenID] = record{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tokenID string) (string, bool, error) {
	s.mu.RLock()
	rec, ok := s.sessions[tokenID]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if time.Now().After(rec.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, tokenID)
		s.mu.Unlock()
		return "", false, nil
	}
	return rec.userID, true, nil
}

func (s *InMemoryStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}
