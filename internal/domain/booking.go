package domain

import (
	"time"
)

// BookingStatus статус бронирования
type BookingStatus string

const (
	StatusPending             BookingStatus = "pending"
	StatusConfirmed           BookingStatus = "confirmed"
	StatusInProgress          BookingStatus = "in_progress"
	StatusCompleted           BookingStatus = "completed"
	StatusCancelled           BookingStatus = "cancelled"
	StatusRescheduleRequested BookingStatus = "reschedule_requested"
	StatusRescheduleApproved  BookingStatus = "reschedule_approved"
	StatusRescheduleDeclined  BookingStatus = "reschedule_declined"
)

// AllBookingStatuses все известные статусы бронирования
var AllBookingStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusRescheduleRequested,
	StatusRescheduleApproved,
	StatusRescheduleDeclined,
}

// PaymentStatus статус оплаты (сами платежи ведутся вне сервиса)
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking бронирование слота клиентом
type Booking struct {
	ID              int64
	Reference       string // человекочитаемый код, например DT-1A2B3C4D
	SlotID          int64
	CustomerID      int64
	VehicleID       int64
	Status          BookingStatus
	TotalPrice      int64 // в минимальных единицах валюты
	FeeAmount       int64 // накопленные штрафы за позднюю отмену и перенос
	PaymentStatus   PaymentStatus
	RescheduleCount int

	StatusChangeReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive бронирование удерживает свой слот
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// IsTerminal бронирование завершено или отменено
func (b *Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

// BelongsTo проверяет владельца бронирования
func (b *Booking) BelongsTo(customerID int64) bool {
	return b.CustomerID == customerID
}

func (s BookingStatus) IsActive() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s BookingStatus) IsValid() bool {
	for _, known := range AllBookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}
