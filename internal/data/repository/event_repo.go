package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProcessedEventRepository remembers which payment notifications were
// already applied so redelivered webhooks are ignored.
type ProcessedEventRepository interface {
	// MarkProcessed returns true the first time it sees eventID.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	// Forget drops the marker so a redelivery is processed again.
	Forget(ctx context.Context, eventID string) error
}

const processedEventPrefix = "stripe:event:"

type redisEventRepository struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

func NewProcessedEventRepository(client redis.Cmdable, ttl time.Duration, log *zap.Logger) ProcessedEventRepository {
	return &redisEventRepository{
		client: client,
		ttl:    ttl,
		log:    log.With(zap.String("repository", "processed_event")),
	}
}

func (r *redisEventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, processedEventPrefix+eventID, 1, r.ttl).Result()
	if err != nil {
		r.log.Error("Failed to mark event processed", zap.Error(err), zap.String("event_id", eventID))
		return false, fmt.Errorf("mark event %s processed: %w", eventID, err)
	}
	return ok, nil
}

func (r *redisEventRepository) Forget(ctx context.Context, eventID string) error {
	if err := r.client.Del(ctx, processedEventPrefix+eventID).Err(); err != nil {
		r.log.Error("Failed to forget processed event", zap.Error(err), zap.String("event_id", eventID))
		return fmt.Errorf("forget event %s: %w", eventID, err)
	}
	return nil
}
