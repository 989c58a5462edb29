package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
)

type stubSyncer struct {
	mu       sync.Mutex
	pending  []id.SolicitudID
	listErr  error
	failing  map[id.SolicitudID]bool
	finished map[id.SolicitudID]bool
	calls    []id.SolicitudID
}

func (s *stubSyncer) PendingSignature(context.Context) ([]id.SolicitudID, error) {
	return s.pending, s.listErr
}

func (s *stubSyncer) SyncSignatures(_ context.Context, solicitudID id.SolicitudID) (*models.Solicitud, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, solicitudID)
	if s.failing[solicitudID] {
		return nil, errors.New("provider down")
	}
	estado := models.EstadoPendienteFirma
	if s.finished[solicitudID] {
		estado = models.EstadoPendienteAprobacion
	}
	return &models.Solicitud{ID: solicitudID, Estado: estado}, nil
}

func TestRunOnce(t *testing.T) {
	t.Run("a failing solicitud does not stop the batch", func(t *testing.T) {
		a, b, c := id.NewSolicitudID(), id.NewSolicitudID(), id.NewSolicitudID()
		syncer := &stubSyncer{
			pending:  []id.SolicitudID{a, b, c},
			failing:  map[id.SolicitudID]bool{b: true},
			finished: map[id.SolicitudID]bool{c: true},
		}

		result, err := New(syncer, WithConcurrency(2)).RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Result{Pending: 3, Synced: 2, Failed: 1}, result)
		assert.ElementsMatch(t, []id.SolicitudID{a, b, c}, syncer.calls)
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		syncer := &stubSyncer{listErr: errors.New("db down")}
		_, err := New(syncer).RunOnce(context.Background())
		assert.Error(t, err)
	})

	t.Run("nothing pending", func(t *testing.T) {
		result, err := New(&stubSyncer{}).RunOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, result)
	})
}

func TestStartStopsOnCancel(t *testing.T) {
	syncer := &stubSyncer{pending: []id.SolicitudID{id.NewSolicitudID()}}
	p := New(syncer, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	assert.NotEmpty(t, syncer.calls)
}
