package cache

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/application/ranking"
)

// InMemoryRankingStore implements the ranking cache with a local map.
// Suitable for single-instance deployments and tests.
type InMemoryRankingStore struct {
	mu     sync.RWMutex
	scores map[uuid.UUID]int
}

// NewInMemoryRankingStore creates a new in-memory ranking store
func NewInMemoryRankingStore() *InMemoryRankingStore {
	return &InMemoryRankingStore{scores: make(map[uuid.UUID]int)}
}

// IncrementScore adds delta to a group buy's score and returns the new score
func (s *InMemoryRankingStore) IncrementScore(_ context.Context, groupBuyID uuid.UUID, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[groupBuyID] += delta
	return s.scores[groupBuyID], nil
}

// SetScores replaces all scores
func (s *InMemoryRankingStore) SetScores(_ context.Context, scores map[uuid.UUID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = make(map[uuid.UUID]int, len(scores))
	for id, score := range scores {
		s.scores[id] = score
	}
	return nil
}

// Top returns the highest-scored group buys, best first. Ties break on the
// group buy id so the order is stable.
func (s *InMemoryRankingStore) Top(_ context.Context, limit int) ([]ranking.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]ranking.Entry, 0, len(s.scores))
	for id, score := range s.scores {
		entries = append(entries, ranking.Entry{GroupBuyID: id, OrderCount: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OrderCount != entries[j].OrderCount {
			return entries[i].OrderCount > entries[j].OrderCount
		}
		return entries[i].GroupBuyID.String() < entries[j].GroupBuyID.String()
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// Remove drops a group buy from the ranking
func (s *InMemoryRankingStore) Remove(_ context.Context, groupBuyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scores, groupBuyID)
	return nil
}

var _ ranking.Store = (*InMemoryRankingStore)(nil)
