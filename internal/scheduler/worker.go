package scheduler

import (
	"context"
	"fmt"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/service"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// requalifyParallelism bounds concurrent engine runs per batch so a large
// backlog cannot exhaust the database pool.
const requalifyParallelism = 4

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	svc    *service.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, svc *service.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		svc:    svc,
		log:    log,
	}

	mux.HandleFunc(TaskBatchRequalify, w.handleBatchRequalify)

	return w, nil
}

func (w *Worker) handleBatchRequalify(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBatchRequalifyPayload(task)
	if err != nil {
		return err
	}

	actorID, err := uuid.Parse(payload.ActorID)
	if err != nil {
		return err
	}

	statuses := make([]domain.Status, 0, len(payload.Statuses))
	for _, raw := range payload.Statuses {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return err
		}
		statuses = append(statuses, status)
	}

	ids, err := w.svc.LeadIDsByStatus(ctx, statuses)
	if err != nil {
		return err
	}
	w.log.Info("batch requalification started", "leads", len(ids), "statuses", payload.Statuses)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(requalifyParallelism)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := w.svc.Requalify(gctx, actorID, id); err != nil {
				w.log.Error("requalification failed", "error", err, "leadId", id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.log.Info("batch requalification complete", "leads", len(ids))
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
