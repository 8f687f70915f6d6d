package types

import (
	"time"

	"github.com/google/uuid"
)

// SharedCopySuffix is appended to the title of a cloned trip.
const SharedCopySuffix = " (shared copy)"

type Share struct {
	ID            uuid.UUID  `json:"id"`
	TripID        uuid.UUID  `json:"trip_id"`
	SenderID      uuid.UUID  `json:"sender_id"`
	ReceiverEmail string     `json:"receiver_email"`
	Accepted      bool       `json:"accepted"`
	ClonedTripID  *uuid.UUID `json:"cloned_trip_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
}

type CreateShareRequest struct {
	ReceiverEmail string `json:"receiver_email" example:"friend@example.com"`
}

// ShareEvent is published on the notification bus.
type ShareEvent struct {
	Type          string    `json:"type"`
	ShareID       uuid.UUID `json:"share_id"`
	TripID        uuid.UUID `json:"trip_id"`
	ClonedTripID  uuid.UUID `json:"cloned_trip_id,omitempty"`
	SenderID      uuid.UUID `json:"sender_id"`
	ReceiverEmail string    `json:"receiver_email"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventTripShared        = "trip.shared"
	EventTripShareAccepted = "trip.share_accepted"
)
