package store

import (
	"context"
	"sort"
	"sync"

	"github.com/siteforge/harvest/models"
)

// MemoryStore keeps records in process memory. It backs tests and
// fire-and-forget API jobs whose consumers read results from the job
// registry rather than a database.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]map[string]*models.PageRecord // templateID -> path -> record
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{pages: make(map[string]map[string]*models.PageRecord)}
}

// SavePage upserts one record.
func (m *MemoryStore) SavePage(_ context.Context, templateID string, record *models.PageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byPath, ok := m.pages[templateID]
	if !ok {
		byPath = make(map[string]*models.PageRecord)
		m.pages[templateID] = byPath
	}
	clone := *record
	byPath[record.Path] = &clone
	return nil
}

// Pages returns the template's records in discovery order.
func (m *MemoryStore) Pages(_ context.Context, templateID string) ([]*models.PageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byPath := m.pages[templateID]
	records := make([]*models.PageRecord, 0, len(byPath))
	for _, rec := range byPath {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Order < records[j].Order })
	return records, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
