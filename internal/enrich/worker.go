package enrich

import (
	"context"
	"fmt"

	"leadpipeline_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker hosts the enrichment processor on an asynq server. Failed tasks
// are redelivered by asynq with its own backoff, which provides the
// at-least-once delivery the pipeline is designed for.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	service *Service
	log     *logger.Logger
}

// NewWorker creates a worker consuming the given queue.
func NewWorker(redisURL, queue string, concurrency int, service *Service, log *logger.Logger) (*Worker, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	if queue == "" {
		queue = "default"
	}
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
		server:  server,
		mux:     mux,
		service: service,
		log:     log,
	}

	mux.HandleFunc(TaskLeadEnrich, w.handleLeadEnrich)

	return w, nil
}

func (w *Worker) handleLeadEnrich(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEnrichmentPayload(task)
	if err != nil {
		// A payload this queue cannot parse will never parse; drop it.
		w.log.Error("unparseable enrichment task, dropping", "error", err.Error())
		return nil
	}

	return w.service.ProcessBatch(ctx, payload.References)
}

// Run blocks serving tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("enrichment worker stopped", "error", err.Error())
	}
}
