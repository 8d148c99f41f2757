package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const TypePurgeRefreshTokens = "purge_refresh_tokens"

// ErrMalformedTask marks a message that can never be handled.
var ErrMalformedTask = errors.New("malformed task")

// Task is one maintenance message on the stream. Values travel as flat
// string fields.
type Task struct {
	Type        string    `json:"type"`
	RequestedAt time.Time `json:"requested_at"`
}

func (t Task) Values() map[string]any {
	return map[string]any{
		"type":         t.Type,
		"requested_at": t.RequestedAt.UTC().Format(time.RFC3339),
	}
}

// TokenPurger deletes refresh tokens that expired at or before now.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Processor struct {
	tokens TokenPurger
	now    func() time.Time
	logger zerolog.Logger
}

func NewProcessor(tokens TokenPurger, logger zerolog.Logger) *Processor {
	return &Processor{
		tokens: tokens,
		now:    time.Now,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var task Task
	if err := decodePayload(msg.Values, &task); err != nil {
		return fmt.Errorf("%w: decode payload: %v", ErrMalformedTask, err)
	}

	switch task.Type {
	case TypePurgeRefreshTokens:
		return p.purgeRefreshTokens(ctx, task)
	default:
		// Acked and dropped so an unknown type cannot wedge the group.
		p.logger.Warn().Str("type", task.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *Task) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) purgeRefreshTokens(ctx context.Context, task Task) error {
	deleted, err := p.tokens.DeleteExpired(ctx, p.now())
	if err != nil {
		return fmt.Errorf("purge refresh tokens: %w", err)
	}
	p.logger.Info().
		Int64("deleted", deleted).
		Time("requested_at", task.RequestedAt).
		Msg("expired refresh tokens purged")
	return nil
}
