package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

var _ AccountStore = (*MemoryStore)(nil)

// MemoryStore implements AccountStore in process memory. It backs tests and
// DSN-less development runs; production uses PGStore.
type MemoryStore struct {
	mu     sync.RWMutex
	byMail map[string]*Account
	nextID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byMail: make(map[string]*Account)}
}

func mailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryStore) Create(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := mailKey(a.Email)
	if _, ok := s.byMail[key]; ok {
		return ErrDuplicateEmail
	}
	s.nextID++
	a.ID = s.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	s.byMail[key] = &cp
	return nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byMail[mailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) FindActiveByEmail(ctx context.Context, email string) (*Account, error) {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byMail[mailKey(email)]
	return ok, nil
}

func (s *MemoryStore) UpdateLastAccess(ctx context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byMail[mailKey(email)]
	if !ok {
		return ErrNotFound
	}
	a.LastAccess = at
	return nil
}

func (s *MemoryStore) MarkVerified(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byMail {
		if a.ID == id {
			a.EmailVerified = true
			a.VerificationToken = ""
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ConsumeVerificationToken(ctx context.Context, token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byMail {
		if a.VerificationToken == token {
			a.EmailVerified = true
			a.VerificationToken = ""
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of stored accounts.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMail)
}
