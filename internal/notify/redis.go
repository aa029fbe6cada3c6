package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue stores envelopes in a sorted set scored by the delivery due
// time, so a poller can pop everything that has become due.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, serviceName string) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    serviceName + ":notifications",
	}
}

func (q *RedisQueue) ScheduleOrderConfirmation(ctx context.Context, recipient string, msg OrderConfirmation, delay time.Duration) error {
	return q.enqueue(ctx, Envelope{
		Kind:      KindOrderConfirmation,
		Recipient: recipient,
		Order:     &msg,
	}, delay)
}

func (q *RedisQueue) SchedulePasswordReset(ctx context.Context, email, token string, delay time.Duration) error {
	return q.enqueue(ctx, Envelope{
		Kind:      KindPasswordReset,
		Recipient: email,
		Reset:     &PasswordReset{Token: token},
	}, delay)
}

func (q *RedisQueue) enqueue(ctx context.Context, env Envelope, delay time.Duration) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("notify: failed to generate envelope ID: %w", err)
	}
	env.ID = id.String()
	env.DueAt = time.Now().UTC().Add(delay)

	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal envelope: %w", err)
	}

	err = q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(env.DueAt.UnixMilli()),
		Member: raw,
	}).Err()
	if err != nil {
		return fmt.Errorf("notify: failed to enqueue envelope: %w", err)
	}

	return nil
}

// due returns the raw envelopes whose due time has passed.
func (q *RedisQueue) due(ctx context.Context, now time.Time) ([]string, error) {
	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UnixMilli()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: failed to read due envelopes: %w", err)
	}
	return members, nil
}

func (q *RedisQueue) remove(ctx context.Context, member string) error {
	return q.client.ZRem(ctx, q.key, member).Err()
}
