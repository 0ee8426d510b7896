package application

import (
	"sync"

	"github.com/davarch/ci-pulse/internal/domain"
)

// SnapshotStore holds the most recent parse. Snapshots are swapped whole.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap domain.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snap: domain.EmptySnapshot()}
}

func (s *SnapshotStore) Replace(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

func (s *SnapshotStore) Current() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
