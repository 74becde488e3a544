package worker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"taskmail/internal/cache"
	"taskmail/internal/config"
	"taskmail/internal/models"
	"taskmail/pkg/logger"
)

// ActivityStore persists consumed activity events.
type ActivityStore interface {
	Record(ctx context.Context, ev models.ItemEvent) error
}

// Run starts the Kafka consumer: reads item activity events, appends them
// to the audit table, and drops the owner's cached listings. One consumer
// per process; replicas share partitions through the consumer group.
func Run(ctx context.Context, cfg *config.Config, activity ActivityStore, lists *cache.Lists) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info(ctx, "Worker disabled (no Kafka brokers)")
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  "activity-workers",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Kafka consumer started", "topic", cfg.KafkaTopic)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, msg.Value, activity, lists); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid a poison pill blocking the partition
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, payload []byte, activity ActivityStore, lists *cache.Lists) error {
	var ev models.ItemEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	if err := activity.Record(ctx, ev); err != nil {
		return err
	}
	lists.InvalidateUser(ctx, ev.OwnerID)
	return nil
}
