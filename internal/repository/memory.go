package repository

import (
	"context"
	"sync"
	"time"

	"github.com/GoPolymarket/polydesk/internal/model"
)

// MemoryCredentialStore keeps records in process. Used when no backend is
// configured and in tests.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	records map[string]model.Credentials
	now     func() time.Time
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		records: make(map[string]model.Credentials),
		now:     time.Now,
	}
}

// Get returns a copy, so callers never share a record with the store.
func (s *MemoryCredentialStore) Get(_ context.Context, userID string) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, notFound(userID)
	}
	return clone(rec), nil
}

func (s *MemoryCredentialStore) Upsert(_ context.Context, creds *model.Credentials) error {
	rec := *clone(*creds)
	rec.UpdatedAt = s.now().UTC()
	s.mu.Lock()
	s.records[creds.UserID] = rec
	s.mu.Unlock()
	return nil
}

func clone(c model.Credentials) *model.Credentials {
	out := c
	if c.Kalshi != nil {
		k := *c.Kalshi
		out.Kalshi = &k
	}
	if c.Polymarket != nil {
		p := *c.Polymarket
		if p.SignatureType != nil {
			st := *p.SignatureType
			p.SignatureType = &st
		}
		out.Polymarket = &p
	}
	return &out
}
