package events

import (
	"time"
)

// Type тип доменного события, он же routing key в RabbitMQ
type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingStatusChanged Type = "booking.status_changed"
	BookingCancelled     Type = "booking.cancelled"

	RescheduleRequested Type = "reschedule.requested"
	RescheduleApproved  Type = "reschedule.approved"
	RescheduleDeclined  Type = "reschedule.declined"
	RescheduleExpired   Type = "reschedule.expired"

	SlotsGenerated Type = "slot.generated"
	SlotCreated    Type = "slot.created"
	SlotBlocked    Type = "slot.blocked"
	SlotUnblocked  Type = "slot.unblocked"
	SlotDeleted    Type = "slot.deleted"
)

// Event сообщение для аудита и уведомлений. Публикуется только после коммита.
type Event struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    int64     `json:"actor_id,omitempty"`
	ActorRole  string    `json:"actor_role,omitempty"`

	BookingID  *int64  `json:"booking_id,omitempty"`
	Reference  *string `json:"reference,omitempty"`
	SlotID     *int64  `json:"slot_id,omitempty"`
	Date       *string `json:"date,omitempty"`
	RequestID  *int64  `json:"request_id,omitempty"`
	FromStatus *string `json:"from_status,omitempty"`
	ToStatus   *string `json:"to_status,omitempty"`
	FeeAmount  *int64  `json:"fee_amount,omitempty"`
	Count      *int    `json:"count,omitempty"`
	Reason     *string `json:"reason,omitempty"`
}
