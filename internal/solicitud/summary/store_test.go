package summary

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	"apertura/pkg/platform/sentinel"
)

func newSummary(userID id.UserID, estado models.Estado, created time.Time) models.Summary {
	return models.Summary{
		ID:        id.SolicitudID(uuid.New()),
		UserID:    userID,
		Tipo:      models.TipoIndividual,
		Estado:    estado,
		CreatedAt: created,
		UpdatedAt: created,
		Version:   1,
	}
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())

	older := newSummary(alice, models.EstadoBorrador, base)
	newer := newSummary(alice, models.EstadoPendienteFirma, base.Add(time.Hour))
	other := newSummary(bob, models.EstadoBorrador, base.Add(2*time.Hour))
	for _, s := range []models.Summary{older, newer, other} {
		require.NoError(t, store.Put(ctx, s))
	}

	t.Run("get", func(t *testing.T) {
		got, err := store.Get(ctx, newer.ID)
		require.NoError(t, err)
		assert.Equal(t, newer, got)

		_, err = store.Get(ctx, id.SolicitudID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := store.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, other.ID, all[0].ID)
		assert.Equal(t, older.ID, all[2].ID)
	})

	t.Run("filter", func(t *testing.T) {
		mine, err := store.List(ctx, Filter{UserID: alice})
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		drafts, err := store.List(ctx, Filter{UserID: alice, Estado: models.EstadoBorrador})
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, older.ID, drafts[0].ID)
	})

	t.Run("put replaces", func(t *testing.T) {
		updated := older
		updated.Estado = models.EstadoCancelada
		updated.Version = 2
		require.NoError(t, store.Put(ctx, updated))

		got, err := store.Get(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EstadoCancelada, got.Estado)
	})
}

func TestInMemoryKeepsNewestVersion(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	approved := newSummary(id.UserID(uuid.New()), models.EstadoAprobada, base)
	approved.Version = 5
	approved.UpdatedAt = base.Add(time.Second)
	require.NoError(t, store.Put(ctx, approved))

	late := approved
	late.Estado = models.EstadoPendienteAprobacion
	late.Version = 4
	late.UpdatedAt = base
	require.NoError(t, store.Put(ctx, late))

	got, err := store.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoAprobada, got.Estado)
	assert.Equal(t, 5, got.Version)

	replay := approved
	replay.Estado = models.EstadoCancelada
	require.NoError(t, store.Put(ctx, replay))
	got, err = store.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EstadoAprobada, got.Estado, "same version is not rewritten")
}
