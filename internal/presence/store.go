package presence

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// OnlineStore is the shared set of online identity IDs. All mutations are
// single-key add/remove, commutative across processes.
type OnlineStore interface {
	Add(ctx context.Context, userID string) error
	Remove(ctx context.Context, userID string) error
	Members(ctx context.Context) ([]string, error)
}

// MemoryStore is the in-process fallback used when the shared store is
// unreachable. Consistent only within one process.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]struct{})}
}

func (s *MemoryStore) Add(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = struct{}{}
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

func (s *MemoryStore) Members(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Keys(s.users), nil
}
