package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"freelance/internal/tasks"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, task tasks.Task) error
}

// Scheduler periodically asks the worker to purge expired refresh tokens.
// It only enqueues; the work happens in cmd/worker.
type Scheduler struct {
	cron          *cron.Cron
	queue         Enqueuer
	purgeSchedule string
	now           func() time.Time
	log           zerolog.Logger
}

func NewScheduler(queue Enqueuer, purgeSchedule string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		queue:         queue,
		purgeSchedule: purgeSchedule,
		now:           time.Now,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.purgeSchedule, s.enqueuePurge); err != nil {
		return fmt.Errorf("schedule purge %q: %w", s.purgeSchedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.purgeSchedule).Msg("maintenance scheduler started")
	return nil
}

// Stop waits for a running job to finish, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) enqueuePurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task := tasks.Task{Type: tasks.TypePurgeRefreshTokens, RequestedAt: s.now()}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.log.Error().Err(err).Msg("enqueue refresh token purge failed")
	}
}
