package notify

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Worker wraps the Asynq server processing notification jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger zerolog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Handler     TaskHandler
	Logger      zerolog.Logger
	Concurrency int
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeBookingEmail, cfg.Handler.HandleBookingEmail)
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("notify: worker not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
