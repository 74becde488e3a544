package repository

import (
	"context"
	"database/sql"

	"taskmail/internal/models"
	"taskmail/pkg/logger"
)

// Activity persists the item audit trail written by the Kafka worker.
type Activity struct {
	db *sql.DB
}

func NewActivity(db *sql.DB) *Activity {
	return &Activity{db: db}
}

// Record appends one activity row.
func (s *Activity) Record(ctx context.Context, ev models.ItemEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO item_activity (item_id, actor_id, owner_id, action, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ev.ItemID, ev.ActorID, ev.OwnerID, ev.Action, ev.OccurredAt)
	if err != nil {
		logger.Error(ctx, "Repository activity record failed", "error", err)
	}
	return err
}
