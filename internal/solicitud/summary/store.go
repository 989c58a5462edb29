// Package summary keeps the read-side projection of solicitudes used by
// listings. The service writes a fresh Summary after every successful change;
// the projection never feeds back into lifecycle decisions.
//
// Writes happen after the aggregate lock is released, so they can arrive out
// of order. Every store keeps the summary with the highest Version and drops
// older ones.
package summary

import (
	"context"
	"sort"
	"sync"

	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	"apertura/pkg/platform/sentinel"
)

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	UserID id.UserID
	Estado models.Estado
}

func (f Filter) matches(s models.Summary) bool {
	if !f.UserID.IsNil() && s.UserID != f.UserID {
		return false
	}
	if f.Estado != "" && s.Estado != f.Estado {
		return false
	}
	return true
}

// InMemory is a map-backed projection for single-instance deployments and tests.
type InMemory struct {
	mu        sync.RWMutex
	summaries map[id.SolicitudID]models.Summary
}

func NewInMemory() *InMemory {
	return &InMemory{summaries: make(map[id.SolicitudID]models.Summary)}
}

func (s *InMemory) Put(_ context.Context, sum models.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.summaries[sum.ID]; ok && current.Version >= sum.Version {
		return nil
	}
	s.summaries[sum.ID] = sum
	return nil
}

func (s *InMemory) Get(_ context.Context, solicitudID id.SolicitudID) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[solicitudID]
	if !ok {
		return models.Summary{}, sentinel.ErrNotFound
	}
	return sum, nil
}

// List returns matching summaries, newest first.
func (s *InMemory) List(_ context.Context, filter Filter) ([]models.Summary, error) {
	s.mu.RLock()
	out := make([]models.Summary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		if filter.matches(sum) {
			out = append(out, sum)
		}
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(out []models.Summary) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
