package domain

import "time"

// RescheduleStatus статус запроса на перенос
type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleApproved RescheduleStatus = "approved"
	RescheduleDeclined RescheduleStatus = "declined"
	RescheduleExpired  RescheduleStatus = "expired"
)

// RescheduleRequest запрос клиента на перенос бронирования в другой слот.
// Пока запрос в статусе pending, исходный слот остаётся занятым.
type RescheduleRequest struct {
	ID              int64
	BookingID       int64
	OriginalSlotID  int64
	RequestedSlotID int64
	Reason          *string
	Status          RescheduleStatus
	FeeAmount       int64 // штраф за перенос внутри окна, начисляется при одобрении

	RequestedAt time.Time
	RespondedAt *time.Time
	RespondedBy *int64
	AdminNotes  *string
}

func (r *RescheduleRequest) IsPending() bool {
	return r.Status == ReschedulePending
}

func (s RescheduleStatus) IsValid() bool {
	switch s {
	case ReschedulePending, RescheduleApproved, RescheduleDeclined, RescheduleExpired:
		return true
	}
	return false
}
