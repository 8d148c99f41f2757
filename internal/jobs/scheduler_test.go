package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelance/internal/tasks"
)

type recordingQueue struct {
	tasks []tasks.Task
}

func (q *recordingQueue) Enqueue(_ context.Context, task tasks.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func TestEnqueuePurge(t *testing.T) {
	q := &recordingQueue{}
	s := NewScheduler(q, "0 0 3 * * *", zerolog.Nop())
	now := time.Date(2024, 5, 4, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.enqueuePurge()

	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.TypePurgeRefreshTokens, q.tasks[0].Type)
	assert.Equal(t, now, q.tasks[0].RequestedAt)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&recordingQueue{}, "every night", zerolog.Nop())
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&recordingQueue{}, "0 0 3 * * *", zerolog.Nop())
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
