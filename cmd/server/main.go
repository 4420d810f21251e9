package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"memberdesk/internal/audit"
	contacthandler "memberdesk/internal/contact/handler"
	contactstore "memberdesk/internal/contact/store"
	docstore "memberdesk/internal/document/store"
	endpointhandler "memberdesk/internal/endpoint/handler"
	endpointservice "memberdesk/internal/endpoint/service"
	endpointstore "memberdesk/internal/endpoint/store"
	entityhandler "memberdesk/internal/entity/handler"
	entityservice "memberdesk/internal/entity/service"
	entitystore "memberdesk/internal/entity/store"
	identifierhandler "memberdesk/internal/identifier/handler"
	identifiermetrics "memberdesk/internal/identifier/metrics"
	identifierservice "memberdesk/internal/identifier/service"
	identifierstore "memberdesk/internal/identifier/store"
	"memberdesk/internal/jwttoken"
	m2mhandler "memberdesk/internal/m2m/handler"
	"memberdesk/internal/m2m/idp"
	m2mmetrics "memberdesk/internal/m2m/metrics"
	m2mservice "memberdesk/internal/m2m/service"
	m2mstore "memberdesk/internal/m2m/store"
	"memberdesk/internal/platform/config"
	"memberdesk/internal/platform/database"
	"memberdesk/internal/platform/httpserver"
	"memberdesk/internal/platform/logger"
	"memberdesk/internal/platform/metrics"
	platformredis "memberdesk/internal/platform/redis"
	"memberdesk/internal/registry"
	registrycache "memberdesk/internal/registry/cache"
)

// main wires dependencies from configuration and owns the process
// lifecycle. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSigningKey == "" {
		log.Error("MEMBERDESK_JWT_SIGNING_KEY is required")
		os.Exit(1)
	}

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = database.Open(ctx, "postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var recordCache registrycache.Store
	if redisClient != nil {
		recordCache = registrycache.NewRedis(redisClient.Client, cfg.RegistryCacheTTL)
	} else {
		recordCache = registrycache.NewMemory(cfg.RegistryCacheTTL)
	}

	auditOpts := []audit.Option{audit.WithLogger(log)}
	var kafkaSink *audit.KafkaSink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err = audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink setup failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditOpts = append(auditOpts, audit.WithSink(kafkaSink))
	}

	var auditStore audit.Store
	var identifiers identifierstore.Store
	var documents docstore.Store
	var clients m2mstore.Store
	var entities entitystore.Store
	var contacts contactstore.Store
	var endpoints endpointstore.Store
	if db != nil {
		auditStore = audit.NewPostgresStore(db)
		identifiers = identifierstore.NewPostgres(db)
		documents = docstore.NewPostgres(db)
		clients = m2mstore.NewPostgres(db)
		entities = entitystore.NewPostgres(db)
		contacts = contactstore.NewPostgres(db)
		endpoints = endpointstore.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		auditStore = audit.NewInMemoryStore()
		identifiers = identifierstore.NewInMemory()
		documents = docstore.NewInMemory()
		clients = m2mstore.NewInMemory()
		entities = entitystore.NewInMemory()
		contacts = contactstore.NewInMemory()
		endpoints = endpointstore.NewInMemory()
	}
	auditor := audit.NewPublisher(auditStore, auditOpts...)

	httpMetrics := metrics.New()
	tokenValidator := jwttoken.NewValidator(cfg.JWTSigningKey)

	// Stub registries: real integrations are deployed as separate adapter
	// services and configured in front of this one.
	registries := registry.DefaultStubSet()

	identifierSvc := identifierservice.New(identifiers, documents, registries,
		identifierservice.WithLogger(log),
		identifierservice.WithMetrics(identifiermetrics.New()),
		identifierservice.WithAuditPublisher(auditor),
		identifierservice.WithRecordCache(recordCache),
	)
	m2mSvc := m2mservice.New(clients, idp.NewLocal(),
		m2mservice.WithLogger(log),
		m2mservice.WithMetrics(m2mmetrics.New()),
		m2mservice.WithAuditPublisher(auditor),
	)
	entitySvc := entityservice.New(entities,
		entityservice.WithLogger(log),
		entityservice.WithAuditPublisher(auditor),
	)
	endpointSvc := endpointservice.New(endpoints,
		endpointservice.WithLogger(log),
		endpointservice.WithAuditPublisher(auditor),
	)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	identifierhandler.New(identifierSvc, log, httpMetrics, tokenValidator).Register(router)
	m2mhandler.New(m2mSvc, log, httpMetrics, tokenValidator).Register(router)
	entityhandler.New(entitySvc, log, httpMetrics, tokenValidator).Register(router)
	contacthandler.New(contacts, log, httpMetrics, tokenValidator).Register(router)
	endpointhandler.New(endpointSvc, log, httpMetrics, tokenValidator).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting memberdesk", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
