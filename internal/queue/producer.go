package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"freelance/internal/tasks"
)

// maxStreamLen caps the maintenance stream; entries are tiny and only the
// recent ones matter.
const maxStreamLen = 1000

type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, task tasks.Task) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: task.Values(),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
