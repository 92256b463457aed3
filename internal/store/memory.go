package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process UserStore for development and tests.
// Unknown users are created on first use with a configurable balance.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]*User
	records []GameRecord

	// InitialBalance seeds accounts created on first access.
	InitialBalance int64
}

// NewMemoryStore creates an empty in-memory store. Accounts are created
// lazily with initialBalance minor units.
func NewMemoryStore(initialBalance int64) *MemoryStore {
	return &MemoryStore{
		users:          make(map[string]*User),
		InitialBalance: initialBalance,
	}
}

func (s *MemoryStore) ensure(username string) *User {
	u, ok := s.users[username]
	if !ok {
		u = &User{
			Username:  username,
			Balance:   s.InitialBalance,
			CreatedAt: time.Now(),
		}
		s.users[username] = u
	}
	return u
}

func (s *MemoryStore) VerifyUser(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(username)
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensure(username)
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpdateBalance(ctx context.Context, username string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensure(username)
	if u.Balance+delta < 0 {
		return ErrInsufficientBalance
	}
	u.Balance += delta
	return nil
}

func (s *MemoryStore) RecordGame(ctx context.Context, rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of all stored game records.
func (s *MemoryStore) Records() []GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GameRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemoryStore) Close() error {
	return nil
}
