package memory

import (
	"context"
	"sync"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/repo"
)

var _ repo.ResultStore = (*Store)(nil)

// Store keeps results in process memory. Nothing survives a restart.
type Store struct {
	mu      sync.RWMutex
	results map[domain.TargetID][]domain.CheckResult
}

func New() *Store {
	return &Store{
		results: make(map[domain.TargetID][]domain.CheckResult),
	}
}

func (m *Store) Append(ctx context.Context, r domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[r.TargetID] = append(m.results[r.TargetID], r)
	return nil
}

func (m *Store) History(ctx context.Context, id domain.TargetID) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.results[id]
	out := make([]domain.CheckResult, len(h))
	copy(out, h)
	return out, nil
}

func (m *Store) Latest(ctx context.Context, id domain.TargetID) (domain.CheckResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.results[id]
	if len(h) == 0 {
		return domain.CheckResult{}, false, nil
	}
	return h[len(h)-1], true, nil
}
