package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

// deliveryQueue is the slice of the queue the worker needs.
type deliveryQueue interface {
	due(ctx context.Context, now time.Time) ([]string, error)
	remove(ctx context.Context, member string) error
}

// Worker drains due envelopes from the queue and hands them to the Mailer.
// An envelope is removed only after a successful delivery; failed deliveries
// stay queued and are retried on the next tick.
type Worker struct {
	queue        deliveryQueue
	mailer       Mailer
	pollInterval time.Duration
}

func NewWorker(queue *RedisQueue, mailer Mailer, pollInterval time.Duration) *Worker {
	return &Worker{queue: queue, mailer: mailer, pollInterval: pollInterval}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	log.Info().Dur("poll_interval", w.pollInterval).Msg("notification worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	members, err := w.queue.due(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("worker: failed to read notification queue")
		return
	}

	for _, member := range members {
		var env Envelope
		if err := json.Unmarshal([]byte(member), &env); err != nil {
			// Malformed envelopes would be retried forever; drop them.
			log.Error().Err(err).Msg("worker: dropping malformed envelope")
			if err := w.queue.remove(ctx, member); err != nil {
				log.Error().Err(err).Msg("worker: failed to drop malformed envelope")
			}
			continue
		}

		if err := w.mailer.Send(ctx, env); err != nil {
			log.Warn().Err(err).Str("envelope_id", env.ID).Str("kind", string(env.Kind)).Msg("worker: delivery failed, will retry")
			continue
		}

		if err := w.queue.remove(ctx, member); err != nil {
			log.Error().Err(err).Str("envelope_id", env.ID).Msg("worker: failed to remove delivered envelope")
			continue
		}

		log.Info().Str("envelope_id", env.ID).Str("kind", string(env.Kind)).Msg("worker: notification delivered")
	}
}
