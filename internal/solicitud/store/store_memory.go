package store

import (
	"context"
	"slices"
	"sync"

	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	"apertura/pkg/platform/sentinel"
)

// InMemory keeps solicitudes in a map guarded by one mutex. Execute holds the
// mutex for the whole validate-then-apply callback, which serializes
// transitions on the same solicitud.
type InMemory struct {
	mu          sync.Mutex
	solicitudes map[id.SolicitudID]*models.Solicitud
}

func NewInMemory() *InMemory {
	return &InMemory{solicitudes: make(map[id.SolicitudID]*models.Solicitud)}
}

func (s *InMemory) Create(_ context.Context, sol *models.Solicitud) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.solicitudes[sol.ID]; ok {
		return sentinel.ErrConflict
	}
	s.solicitudes[sol.ID] = sol.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, solicitudID id.SolicitudID) (*models.Solicitud, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sol, ok := s.solicitudes[solicitudID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sol.Clone(), nil
}

// Execute loads the solicitud, runs validate on a copy and, when it passes,
// applies the mutation and stores the copy with the next version. A failing
// validate leaves the stored solicitud untouched.
func (s *InMemory) Execute(_ context.Context, solicitudID id.SolicitudID, validate func(*models.Solicitud) error, apply func(*models.Solicitud)) (*models.Solicitud, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.solicitudes[solicitudID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	apply(working)
	working.Version = current.Version + 1
	s.solicitudes[solicitudID] = working
	return working.Clone(), nil
}

// ListIDsByEstado returns the ids in any of the given estados, oldest first.
func (s *InMemory) ListIDsByEstado(_ context.Context, estados ...models.Estado) ([]id.SolicitudID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []*models.Solicitud
	for _, sol := range s.solicitudes {
		if slices.Contains(estados, sol.Estado) {
			matches = append(matches, sol)
		}
	}
	slices.SortFunc(matches, func(a, b *models.Solicitud) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	ids := make([]id.SolicitudID, 0, len(matches))
	for _, sol := range matches {
		ids = append(ids, sol.ID)
	}
	return ids, nil
}
