// Command server runs the membership vetting service: the administrative
// workflow API, the participation access gate, and the public status lookup.
//
// Every external dependency is optional. Without a database URL the process
// runs on in-memory stores; without Redis the access-gate cache is
// in-process; without Kafka brokers audit events stay local and applicant
// notifications are recorded but not delivered. That makes `go run` with no
// environment a working dev server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"membergate/internal/identity"
	jwttoken "membergate/internal/jwt_token"
	"membergate/internal/notification"
	"membergate/internal/platform/config"
	"membergate/internal/platform/httpserver"
	"membergate/internal/platform/logger"
	"membergate/internal/platform/metrics"
	platformredis "membergate/internal/platform/redis"
	httptransport "membergate/internal/transport/http"
	"membergate/internal/vetting"
	"membergate/internal/vetting/access"
	"membergate/internal/vetting/handler"
	"membergate/internal/vetting/ports"
	"membergate/internal/vetting/public"
	"membergate/internal/vetting/service"
	vettingmemory "membergate/internal/vetting/store/memory"
	vettingpostgres "membergate/internal/vetting/store/postgres"
	auditpkg "membergate/pkg/platform/audit"
	"membergate/pkg/platform/audit/publisher"
	auditkafka "membergate/pkg/platform/audit/store/kafka"
	auditmemory "membergate/pkg/platform/audit/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.App.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Persistence. A database URL selects PostgreSQL for applications, audit
	// entries, and the user directory; otherwise everything is in-memory.
	var (
		store     vetting.Store
		txr       vetting.TxRunner
		directory identity.Directory
		db        *sql.DB
	)
	if cfg.DB.URL != "" {
		var err error
		db, err = openDatabase(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := vettingpostgres.Migrate(ctx, db); err != nil {
			return err
		}
		store = vettingpostgres.NewPostgresStore(db)
		txr = vettingpostgres.NewPostgresTx(db)
		directory = identity.NewPostgresDirectory(db)
		log.Info("using postgres persistence")
	} else {
		store = vettingmemory.NewInMemoryStore()
		txr = vettingmemory.NewMemoryTx()
		directory = identity.NewMemoryDirectory()
		log.Warn("no database configured, running on in-memory stores")
	}

	// Access-gate snapshot cache.
	var cache ports.StatusCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache, err = access.NewRedisCache(redisClient.Client)
		if err != nil {
			return err
		}
		log.Info("using redis status cache")
	} else {
		cache = access.NewMemoryCache()
	}

	// Audit sink. Kafka brokers select the compliance topic; otherwise events
	// stay in process memory, which is fine for dev and tests.
	var auditStore auditpkg.Store
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := auditkafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka audit sink: %w", err)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("publishing audit events to kafka", "topic", cfg.Kafka.AuditTopic)
	} else {
		auditStore = auditmemory.NewInMemoryStore()
	}
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256))
	defer auditPublisher.Close()

	// Applicant notifications follow the same pattern: Kafka feeds the mailer
	// service, memory records for local inspection.
	var sender notification.Sender
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSender, err := notification.NewKafkaSender(ctx, cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
		if err != nil {
			return fmt.Errorf("connect kafka notification producer: %w", err)
		}
		defer kafkaSender.Close()
		sender = kafkaSender
	} else {
		sender = notification.NewMemorySender()
	}

	engine, err := service.New(store, txr, directory,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithSender(sender),
		service.WithAuditPublisher(auditPublisher),
		service.WithCacheInvalidator(cache),
	)
	if err != nil {
		return err
	}

	gate, err := access.New(store, cache,
		access.WithLogger(log),
		access.WithMetrics(m),
		access.WithAuditPublisher(auditPublisher),
		access.WithCacheTTL(cfg.Vetting.AccessCacheTTL),
		access.WithSupportEmail(cfg.Vetting.SupportEmail),
	)
	if err != nil {
		return err
	}

	status, err := public.New(store,
		public.WithLogger(log),
		public.WithEstimatedReviewDays(cfg.Vetting.EstimatedReviewDays),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	h := handler.New(engine, gate, status, log, m, jwtService, cfg.Auth.AdminTokenHash)

	checks := map[string]httptransport.HealthCheck{}
	if db != nil {
		checks["database"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	router := httptransport.NewRouter(checks, h)
	srv := httpserver.New(cfg.App.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting membergate", "addr", cfg.App.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
