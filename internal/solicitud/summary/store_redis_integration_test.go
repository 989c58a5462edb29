//go:build integration

package summary_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"apertura/internal/solicitud/models"
	"apertura/internal/solicitud/summary"
	id "apertura/pkg/domain"
	"apertura/pkg/platform/sentinel"
	"apertura/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *summary.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = summary.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) summary(userID id.UserID, estado models.Estado, created time.Time) models.Summary {
	return models.Summary{
		ID:        id.SolicitudID(uuid.New()),
		UserID:    userID,
		Titulo:    "Perez, Ana",
		Tipo:      models.TipoIndividual,
		Estado:    estado,
		CreatedAt: created.UTC().Truncate(time.Millisecond),
		UpdatedAt: created.UTC().Truncate(time.Millisecond),
		Version:   1,
	}
}

func (s *RedisStoreSuite) TestPutGetList() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	base := time.Now()
	first := s.summary(userID, models.EstadoBorrador, base)
	second := s.summary(userID, models.EstadoPendienteFirma, base.Add(time.Minute))

	s.Require().NoError(s.store.Put(ctx, first))
	s.Require().NoError(s.store.Put(ctx, second))

	got, err := s.store.Get(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(first.Titulo, got.Titulo)
	s.True(first.CreatedAt.Equal(got.CreatedAt))

	list, err := s.store.List(ctx, summary.Filter{UserID: userID})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(second.ID, list[0].ID)

	pending, err := s.store.List(ctx, summary.Filter{Estado: models.EstadoPendienteFirma})
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)
}

func (s *RedisStoreSuite) TestOutOfOrderPutKeepsNewestVersion() {
	ctx := context.Background()
	base := time.Now()
	approved := s.summary(id.UserID(uuid.New()), models.EstadoAprobada, base)
	approved.Version = 5

	late := approved
	late.Estado = models.EstadoPendienteAprobacion
	late.Version = 4

	s.Require().NoError(s.store.Put(ctx, approved))
	s.Require().NoError(s.store.Put(ctx, late))

	got, err := s.store.Get(ctx, approved.ID)
	s.Require().NoError(err)
	s.Equal(models.EstadoAprobada, got.Estado)
	s.Equal(5, got.Version)

	newer := approved
	newer.NumeroCuenta = "0001-123"
	newer.Version = 6
	s.Require().NoError(s.store.Put(ctx, newer))

	got, err = s.store.Get(ctx, approved.ID)
	s.Require().NoError(err)
	s.Equal("0001-123", got.NumeroCuenta)
}

func (s *RedisStoreSuite) TestExpiredSummariesArePruned() {
	ctx := context.Background()
	store := summary.NewRedis(s.redis.Client, summary.WithTTL(50*time.Millisecond))
	sum := s.summary(id.UserID(uuid.New()), models.EstadoBorrador, time.Now())
	s.Require().NoError(store.Put(ctx, sum))

	time.Sleep(150 * time.Millisecond)

	_, err := store.Get(ctx, sum.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	list, err := store.List(ctx, summary.Filter{})
	s.Require().NoError(err)
	s.Empty(list)

	remaining, err := s.redis.Client.ZCard(ctx, "apertura:summaries").Result()
	s.Require().NoError(err)
	s.Zero(remaining)
}

// failingZRem rejects ZREM so index pruning errors surface.
type failingZRem struct{}

func (failingZRem) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failingZRem) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if strings.EqualFold(cmd.Name(), "zrem") {
			err := errors.New("zrem rejected")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (failingZRem) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (s *RedisStoreSuite) TestPruneFailureIsLogged() {
	ctx := context.Background()
	client := redis.NewClient(s.redis.Client.Options())
	client.AddHook(failingZRem{})
	defer client.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	store := summary.NewRedis(client, summary.WithTTL(50*time.Millisecond), summary.WithLogger(logger))
	sum := s.summary(id.UserID(uuid.New()), models.EstadoBorrador, time.Now())
	s.Require().NoError(store.Put(ctx, sum))

	time.Sleep(150 * time.Millisecond)

	list, err := store.List(ctx, summary.Filter{})
	s.Require().NoError(err)
	s.Empty(list)
	s.Contains(logs.String(), "failed to prune expired summaries from index")
	s.Contains(logs.String(), "zrem rejected")

	remaining, err := s.redis.Client.ZCard(ctx, "apertura:summaries").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), remaining)
}
