package models

import "time"

// Item activity actions published to Kafka after a successful mutation.
const (
	ActionCreated   = "created"
	ActionSent      = "sent"
	ActionUpdated   = "updated"
	ActionToggled   = "toggled"
	ActionStarred   = "starred"
	ActionSnoozed   = "snoozed"
	ActionUnsnoozed = "unsnoozed"
	ActionDeleted   = "deleted"
)

// ItemEvent is the activity message payload for Kafka. OwnerID may differ
// from ActorID for the inbox copy of a sent item.
type ItemEvent struct {
	Action     string    `json:"action"`
	ItemID     string    `json:"item_id"`
	ActorID    string    `json:"actor_id"`
	OwnerID    string    `json:"owner_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
