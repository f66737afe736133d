package simulation

import (
	"context"

	"blast-arena/server/logging"
)

const (
	// EventTickFailure is emitted when a scheduled tick step fails. The tick
	// handler swallows the error so the scheduler keeps running; this event is
	// the only trace the failure leaves.
	EventTickFailure logging.EventType = "simulation.tick_failure"
)

// TickFailurePayload names the failing step and the underlying error.
type TickFailurePayload struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// TickFailure publishes a swallowed tick error.
func TickFailure(ctx context.Context, pub logging.Publisher, roomID string, payload TickFailurePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickFailure,
		RoomID:   roomID,
		Actor:    logging.EntityRef{ID: roomID, Kind: logging.EntityKindRoom},
		Severity: logging.SeverityError,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}
