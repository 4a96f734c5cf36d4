// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/valpere/KOLMetrics/pkg/types"
)

// MemoryStore keeps results in process memory. Used by tests and as a
// throwaway backend when no durability is needed.
type MemoryStore struct {
	mu     sync.Mutex
	byURL  map[string]*types.StoredResult
	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byURL:  make(map[string]*types.StoredResult),
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Upsert implements Store. The whole read-modify-write runs under one
// lock, matching the single-transaction guarantee of the SQL backends.
func (s *MemoryStore) Upsert(ctx context.Context, result types.CanonicalResult) (types.StoredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	existing, ok := s.byURL[result.URL]
	if !ok {
		stored := types.StoredResult{
			ID:              s.nextID,
			FetchedAt:       now,
			CanonicalResult: result,
		}
		s.nextID++
		s.byURL[result.URL] = &stored
		return stored, nil
	}

	existing.Platform = result.Platform
	existing.Views = result.Views
	existing.Likes = result.Likes
	existing.Comments = result.Comments
	existing.EngagementRate = result.EngagementRate
	existing.FetchedAt = now
	if result.Creator != "" {
		existing.Creator = result.Creator
	}
	if result.CampaignID != "" {
		existing.CampaignID = result.CampaignID
	}
	if result.PostedAt != nil {
		existing.PostedAt = result.PostedAt
	}

	return *existing, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, filter types.ResultFilter) ([]types.StoredResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]types.StoredResult, 0, len(s.byURL))
	for _, r := range s.byURL {
		if filter.Platform != types.PlatformUnknown && r.Platform != filter.Platform {
			continue
		}
		if filter.Creator != "" && r.Creator != filter.Creator {
			continue
		}
		if filter.CampaignID != "" && r.CampaignID != filter.CampaignID {
			continue
		}
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		if filter.Order == types.OrderDescending {
			return results[i].ID > results[j].ID
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
