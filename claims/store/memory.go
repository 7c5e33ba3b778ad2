// Package store provides Repository implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/claims-engine/claims"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements claims.QueryRepository with maps guarded by a mutex.
// SaveCase enforces the same optimistic version check as the SQLite store.
type Memory struct {
	mu      sync.RWMutex
	cases   map[claims.CaseID]*claims.Case
	byClaim map[string]claims.CaseID
	tasks   []claims.FollowUpTask
}

func NewMemory() *Memory {
	return &Memory{
		cases:   make(map[claims.CaseID]*claims.Case),
		byClaim: make(map[string]claims.CaseID),
	}
}

func (m *Memory) GetCase(_ context.Context, id claims.CaseID) (*claims.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cases[id]
	if !ok {
		return nil, claims.ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (m *Memory) GetCaseByClaimNumber(_ context.Context, claimNumber string) (*claims.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byClaim[claimNumber]
	if !ok {
		return nil, claims.ErrCaseNotFound
	}
	return m.cases[id].Clone(), nil
}

// SaveCase creates the case when unknown (Version becomes 1) and
// otherwise applies the optimistic version check before overwriting.
func (m *Memory) SaveCase(_ context.Context, c *claims.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.cases[c.ID]
	if !ok {
		c.Version = 1
	} else {
		if c.Version != existing.Version {
			return claims.ErrConflict
		}
		c.Version++
	}

	m.cases[c.ID] = c.Clone()
	m.byClaim[c.ClaimNumber] = c.ID
	return nil
}

func (m *Memory) ListCases(_ context.Context, filter claims.CaseFilter) ([]claims.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []claims.Case
	for _, c := range m.cases {
		if !matches(c, filter) {
			continue
		}
		result = append(result, *c.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func matches(c *claims.Case, f claims.CaseFilter) bool {
	if f.ClaimNumber != "" && !strings.Contains(strings.ToLower(c.ClaimNumber), strings.ToLower(f.ClaimNumber)) {
		return false
	}
	if f.Insured != "" && !strings.Contains(strings.ToLower(c.Insured.Name), strings.ToLower(f.Insured)) {
		return false
	}
	if f.Insurer != "" && c.Insurer != f.Insurer {
		return false
	}
	if f.Analyst != "" && c.Analyst != f.Analyst {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

func (m *Memory) InsertTask(_ context.Context, task claims.FollowUpTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *Memory) ListTasks(_ context.Context, claimNumber string) ([]claims.FollowUpTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []claims.FollowUpTask
	for _, t := range m.tasks {
		if t.ClaimNumber == claimNumber {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *Memory) SetTaskDone(_ context.Context, taskID string, done bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.tasks {
		if m.tasks[i].ID == taskID {
			m.tasks[i].Done = done
			return nil
		}
	}
	return claims.ErrTaskNotFound
}
