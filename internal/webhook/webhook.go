package webhook

import (
	"context"
	"time"
)

const EventBattleCompleted = "battle.completed"

// Event is delivered at least once. Receivers dedupe on ID.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type Sender interface {
	Send(ctx context.Context, event Event) error
}
