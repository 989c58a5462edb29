package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"apertura/internal/accountreg"
	jwttoken "apertura/internal/jwt_token"
	"apertura/internal/ownership"
	"apertura/internal/platform/config"
	"apertura/internal/platform/httpserver"
	"apertura/internal/platform/logger"
	"apertura/internal/platform/metrics"
	"apertura/internal/platform/postgres"
	"apertura/internal/platform/redis"
	"apertura/internal/signature/poller"
	"apertura/internal/signature/provider"
	"apertura/internal/solicitud/handler"
	solicitudmetrics "apertura/internal/solicitud/metrics"
	"apertura/internal/solicitud/service"
	"apertura/internal/solicitud/store"
	"apertura/internal/solicitud/summary"
	audit "apertura/pkg/platform/audit"
	"apertura/pkg/platform/audit/publishers/compliance"
	kafkapublisher "apertura/pkg/platform/audit/publishers/kafka"
	"apertura/pkg/platform/audit/publishers/ops"
	auditmemory "apertura/pkg/platform/audit/store/memory"
	auditpostgres "apertura/pkg/platform/audit/store/postgres"
	"apertura/pkg/platform/circuit"
)

// main wires the solicitud service from configuration. Every backing store is
// optional: without DATABASE_URL, REDIS_URL or KAFKA_BROKERS the in-memory
// implementation is used instead.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var checks []healthCheck

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		checks = append(checks, healthCheck{name: "postgres", check: db.PingContext})
		log.Info("using postgres for solicitudes and audit")
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, healthCheck{name: "redis", check: redisClient.Health})
		log.Info("using redis for solicitud summaries")
	}

	auditSink, solicitudStore, tx := buildStores(db)
	solicitudMetrics := solicitudmetrics.New()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(solicitudMetrics),
		service.WithCompliancePublisher(compliance.New(auditSink,
			compliance.WithLogger(log),
			compliance.WithMetrics(compliance.NewMetrics()),
		)),
		service.WithSecuritySink(auditSink),
	}
	if tx != nil {
		opts = append(opts, service.WithTransactor(tx))
	}
	if redisClient != nil {
		opts = append(opts, service.WithSummaryStore(summary.NewRedis(redisClient.Client, summary.WithTTL(cfg.Redis.SummaryTTL), summary.WithLogger(log))))
	}

	alerts, closeAlerts, err := buildAlerts(ctx, cfg.Kafka, auditSink, log)
	if err != nil {
		return err
	}
	defer closeAlerts()
	if kafkaCheck := alerts.check; kafkaCheck != nil {
		checks = append(checks, healthCheck{name: "kafka", check: kafkaCheck})
	}
	opts = append(opts, service.WithAlertPublisher(alerts.publisher))

	if cfg.AccountRegistryURL != "" {
		opts = append(opts, service.WithAccountRegistry(accountreg.New(cfg.AccountRegistryURL,
			accountreg.WithBreaker(circuit.New("account-registry")),
			accountreg.WithLogger(log),
		)))
	} else {
		log.Warn("ACCOUNT_REGISTRY_URL not set; approvals will raise registration alerts")
	}

	signatures := provider.New(cfg.Signature.ProviderURL,
		provider.WithBreaker(circuit.New("signature-provider")),
		provider.WithTimeout(cfg.Signature.RequestTimeout),
		provider.WithLogger(log),
	)

	validator := ownership.NewValidator(ownership.Config{
		PercentTolerance: cfg.Ownership.PercentTolerance,
		MaxDepth:         cfg.Ownership.MaxDepth,
	})
	svc := service.New(solicitudStore, validator, signatures, opts...)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	if cfg.Signature.WebhookSecret == "" {
		log.Warn("SIGNATURE_WEBHOOK_SECRET not set; signature webhooks will be rejected")
	}
	solicitudHandler := handler.New(svc, log, jwttoken.NewJWTServiceAdapter(jwtService),
		handler.WithWebhookSecret(cfg.Signature.WebhookSecret),
	)

	router := newRouter(log, metrics.New(), checks, solicitudHandler)
	srv := httpserver.New(cfg.Addr, router)

	signaturePoller := poller.New(svc,
		poller.WithInterval(cfg.Signature.PollInterval),
		poller.WithConcurrency(cfg.Signature.PollConcurrency),
		poller.WithTimeout(cfg.Signature.RequestTimeout),
		poller.WithLogger(log),
		poller.WithMetrics(solicitudMetrics),
	)
	go func() {
		if err := signaturePoller.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("signature poller stopped", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting apertura", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStores picks postgres when a database is configured and the in-memory
// stores otherwise. The transactor is nil in memory mode.
func buildStores(db *sql.DB) (audit.Sink, service.Store, service.Transactor) {
	if db == nil {
		return auditmemory.NewInMemoryStore(), store.NewInMemory(), nil
	}
	return auditpostgres.New(db), store.NewPostgres(db), newSolicitudPostgresTx(db)
}

type alertWiring struct {
	publisher *ops.Publisher
	check     func(ctx context.Context) error
}

// buildAlerts sends operational alerts to Kafka when brokers are configured,
// falling back to the audit store while Kafka is unavailable.
func buildAlerts(ctx context.Context, cfg config.KafkaConfig, fallback audit.Sink, log *slog.Logger) (alertWiring, func(), error) {
	opsOpts := []ops.Option{
		ops.WithFallback(fallback),
		ops.WithLogger(log),
		ops.WithMetrics(ops.NewMetrics()),
	}
	if len(cfg.Brokers) == 0 {
		return alertWiring{publisher: ops.New(nil, opsOpts...)}, func() {}, nil
	}

	producer, err := kafkapublisher.New(cfg.Brokers, cfg.AlertsTopic, kgo.ClientID("apertura"))
	if err != nil {
		return alertWiring{}, nil, err
	}
	if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
		log.Warn("could not ensure alerts topic", "topic", cfg.AlertsTopic, "error", err)
	}
	opsOpts = append(opsOpts, ops.WithBreaker(circuit.New("alerts-kafka")))
	log.Info("publishing operational alerts to kafka", "topic", cfg.AlertsTopic)
	return alertWiring{
		publisher: ops.New(producer, opsOpts...),
		check:     producer.Ping,
	}, producer.Close, nil
}
