package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadqual_backend/internal/events"
	apphttp "leadqual_backend/internal/http"
	"leadqual_backend/internal/http/router"
	"leadqual_backend/internal/leads"
	"leadqual_backend/internal/leads/qualify"
	"leadqual_backend/internal/ruleset"
	"leadqual_backend/internal/scheduler"
	"leadqual_backend/migrations"
	"leadqual_backend/platform/ai/embeddings"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/db"
	"leadqual_backend/platform/httpkit"
	"leadqual_backend/platform/logger"
	"leadqual_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// The qualification ruleset is loaded once at startup. An invalid
	// ruleset refuses to boot rather than silently scoring with defaults.
	rules, err := ruleset.Load(cfg.GetRulesetPath())
	if err != nil {
		log.Error("failed to load qualification ruleset", "error", err, "path", cfg.GetRulesetPath())
		panic("failed to load qualification ruleset: " + err.Error())
	}
	log.Info("qualification ruleset loaded", "path", cfg.GetRulesetPath(), "programs", len(rules.Programs))

	// Semantic intent scoring is optional; without an embedding backend the
	// engine falls back to neutral intent scores.
	var sim qualify.Similarity
	if cfg.IsEmbeddingEnabled() {
		client := embeddings.NewClient(embeddings.Config{
			BaseURL:           cfg.GetEmbeddingAPIURL(),
			APIKey:            cfg.GetEmbeddingAPIKey(),
			Timeout:           cfg.EmbeddingTimeout,
			RequestsPerSecond: cfg.GetEmbeddingRPS(),
		})
		sim = qualify.NewEmbeddingSimilarity(client)
		log.Info("embedding similarity enabled", "url", cfg.GetEmbeddingAPIURL())
	} else {
		log.Warn("EMBEDDING_API_URL not configured; intent scoring is neutral")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, rules, sim, eventBus, val, log)

	requalifyClient, worker, closeScheduler := initScheduler(cfg, leadsModule, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	if worker != nil {
		go worker.Run(ctx)
	}
	if requalifyClient != nil {
		leadsModule.SetRequalifier(&requalifyAdapter{
			client: requalifyClient,
			module: leadsModule,
			bus:    eventBus,
			log:    log,
		})
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:      cfg,
		Logger:      log,
		Health:      db.NewPoolAdapter(pool),
		EventBus:    eventBus,
		RateLimiter: httpkit.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, log),
		Modules: []apphttp.Module{
			leadsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initScheduler(cfg config.SchedulerConfig, module *leads.Module, log *logger.Logger) (*scheduler.Client, *scheduler.Worker, func()) {
	if !cfg.IsSchedulerEnabled() {
		log.Warn("REDIS_URL not configured; batch requalification disabled")
		return nil, nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil, nil
	}

	worker, err := scheduler.NewWorker(cfg, module.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		_ = client.Close()
		return nil, nil, nil
	}

	return client, worker, func() {
		_ = client.Close()
	}
}

// requalifyAdapter connects the HTTP handler to the task queue and records
// the enqueue in the audit trail.
type requalifyAdapter struct {
	client *scheduler.Client
	module *leads.Module
	bus    events.Bus
	log    *logger.Logger
}

func (a *requalifyAdapter) EnqueueBatchRequalify(ctx context.Context, actorID uuid.UUID, statuses []string) error {
	if err := a.client.EnqueueBatchRequalify(ctx, scheduler.BatchRequalifyPayload{
		ActorID:  actorID.String(),
		Statuses: statuses,
	}); err != nil {
		return err
	}

	if err := a.module.AuditBatchEnqueued(ctx, actorID, statuses); err != nil {
		a.log.Error("failed to audit batch requalification enqueue", "error", err)
	}

	a.bus.Publish(ctx, events.BatchRequalifyRequested{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actorID,
		Statuses:  statuses,
	})
	return nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
