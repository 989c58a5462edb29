//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"apertura/internal/ownership"
	"apertura/internal/signature"
	"apertura/internal/solicitud/models"
	"apertura/internal/solicitud/store"
	id "apertura/pkg/domain"
	"apertura/pkg/platform/sentinel"
	txcontext "apertura/pkg/platform/tx"
	"apertura/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "solicitudes"))
}

func (s *PostgresStoreSuite) newDraft(createdAt time.Time) *models.Solicitud {
	sol, err := models.NewSolicitud(id.NewSolicitudID(), id.UserID(uuid.New()), models.TipoCorporate, "prod-7", createdAt)
	s.Require().NoError(err)
	return sol
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTripsAggregate() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sol := s.newDraft(now)
	root := ownership.NewCorporate(nil, ownership.Corporate{
		Principal: ownership.DatosPrincipalesJuridica{RazonSocial: "Acme SA"},
	})
	root.AddChild(ownership.NewIndividual(nil, ownership.Individual{
		Principal: ownership.DatosPrincipales{Nombre: "Ana", Apellido: "Paz", Porcentaje: decimal.RequireFromString("60.5")},
	}))
	sol.Titular = root
	sol.Documentos = []models.Documento{{ID: "doc-1", Tipo: models.DocumentoEstatuto, URL: "s3://docs/estatuto"}}
	sol.Firma = &signature.Document{
		ID:      "env-1",
		Estado:  signature.Pendiente,
		Signers: []signature.SignerStatus{{ID: "s1", Email: "ana@example.com", Estado: signature.Pendiente}},
	}

	s.Require().NoError(s.store.Create(ctx, sol))
	s.ErrorIs(s.store.Create(ctx, sol), sentinel.ErrConflict)

	got, err := s.store.FindByID(ctx, sol.ID)
	s.Require().NoError(err)
	s.Equal(sol.ID, got.ID)
	s.Equal(sol.UserID, got.UserID)
	s.Equal("prod-7", got.ProductorID)
	s.Equal(models.EstadoBorrador, got.Estado)
	s.Equal(now, got.CreatedAt)
	s.Equal(1, got.Version)
	s.Require().NotNil(got.Titular)
	s.Equal("Acme SA", got.Titular.DisplayName())
	s.Require().Len(got.Titular.Children(), 1)
	s.True(decimal.RequireFromString("60.5").Equal(got.Titular.Children()[0].Participation()))
	s.Equal(sol.Documentos, got.Documentos)
	s.Equal("env-1", got.Firma.ID)
	s.Equal(signature.InProgress, got.SignatureStatus())
	s.Nil(got.Perfil)

	_, err = s.store.FindByID(ctx, id.NewSolicitudID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecute() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sol := s.newDraft(now)
	s.Require().NoError(s.store.Create(ctx, sol))

	s.Run("failing validate leaves the row untouched", func() {
		boom := errors.New("guard failed")
		_, err := s.store.Execute(ctx, sol.ID,
			func(*models.Solicitud) error { return boom },
			func(s *models.Solicitud) { s.Estado = models.EstadoCancelada })
		s.ErrorIs(err, boom)

		got, err := s.store.FindByID(ctx, sol.ID)
		s.Require().NoError(err)
		s.Equal(models.EstadoBorrador, got.Estado)
		s.Equal(1, got.Version)
	})

	s.Run("passing validate persists with the next version", func() {
		got, err := s.store.Execute(ctx, sol.ID,
			func(s *models.Solicitud) error { return s.CanCancel(models.EstadoBorrador) },
			func(s *models.Solicitud) { s.ApplyCancellation("desiste", now) })
		s.Require().NoError(err)
		s.Equal(2, got.Version)

		stored, err := s.store.FindByID(ctx, sol.ID)
		s.Require().NoError(err)
		s.Equal(models.EstadoCancelada, stored.Estado)
		s.Equal("desiste", stored.MotivoCancelacion)
		s.Equal(2, stored.Version)
	})

	s.Run("unknown id", func() {
		_, err := s.store.Execute(ctx, id.NewSolicitudID(),
			func(*models.Solicitud) error { return nil },
			func(*models.Solicitud) {})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestConcurrentExecuteQueuesOnRowLock() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sol := s.newDraft(now)
	s.Require().NoError(s.store.Create(ctx, sol))

	const workers = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, sol.ID,
				func(s *models.Solicitud) error { return s.CanCancel(models.EstadoBorrador) },
				func(s *models.Solicitud) { s.ApplyCancellation("", now) })
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range errs {
		var concurrent *models.ConcurrentModificationError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &concurrent):
			conflicts++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(workers-1, conflicts)

	got, err := s.store.FindByID(ctx, sol.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Version)
}

func (s *PostgresStoreSuite) TestExecuteJoinsCallerTransaction() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sol := s.newDraft(now)
	s.Require().NoError(s.store.Create(ctx, sol))

	rollback := errors.New("audit write failed")
	err := txcontext.Run(ctx, s.postgres.DB, func(ctx context.Context, _ *sql.Tx) error {
		_, err := s.store.Execute(ctx, sol.ID,
			func(s *models.Solicitud) error { return s.CanCancel(models.EstadoBorrador) },
			func(s *models.Solicitud) { s.ApplyCancellation("", now) })
		s.Require().NoError(err)
		return rollback
	})
	s.ErrorIs(err, rollback)

	got, err := s.store.FindByID(ctx, sol.ID)
	s.Require().NoError(err)
	s.Equal(models.EstadoBorrador, got.Estado, "outer rollback undoes the transition")
}

func (s *PostgresStoreSuite) TestListIDsByEstado() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	older := s.newDraft(base)
	newer := s.newDraft(base.Add(time.Minute))
	canceled := s.newDraft(base.Add(2 * time.Minute))
	canceled.Estado = models.EstadoCancelada
	for _, sol := range []*models.Solicitud{newer, canceled, older} {
		s.Require().NoError(s.store.Create(ctx, sol))
	}

	ids, err := s.store.ListIDsByEstado(ctx, models.EstadoBorrador)
	s.Require().NoError(err)
	s.Equal([]id.SolicitudID{older.ID, newer.ID}, ids)

	ids, err = s.store.ListIDsByEstado(ctx, models.EstadoPendienteFirma)
	s.Require().NoError(err)
	s.Empty(ids)
}
