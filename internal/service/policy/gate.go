// Package policy правила отмены и переноса бронирований.
// Все функции чистые: результат зависит только от бронирования, политики и момента now.
package policy

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Причины отказа или штрафа
const (
	ReasonOK              = ""
	ReasonLateFee         = "inside_fee_window"
	ReasonAlreadyStarted  = "slot_already_started"
	ReasonInvalidStatus   = "status_does_not_allow"
	ReasonRescheduleLimit = "reschedule_limit_reached"
	ReasonAdminOverride   = "admin_override"
)

// Decision результат проверки
type Decision struct {
	Allowed   bool
	FeeAmount int64
	Reason    string
}

// Subject бронирование и момент начала его слота
type Subject struct {
	Booking   *domain.Booking
	SlotStart time.Time
}

// CanCancel можно ли клиенту отменить бронирование сейчас.
// Внутри cancellation_window_hours до начала отмена платная, после начала - запрещена.
func CanCancel(s Subject, p domain.BusinessPolicy, now time.Time) Decision {
	if _, err := domain.Transition(s.Booking.Status, domain.EventCancel); err != nil {
		return Decision{Reason: ReasonInvalidStatus}
	}

	return windowDecision(s.SlotStart, now, p.CancellationWindowHours, p.LateCancellationFee)
}

// CanReschedule можно ли клиенту запросить перенос сейчас.
// Правило симметрично отмене, плюс ограничение на количество переносов.
func CanReschedule(s Subject, p domain.BusinessPolicy, now time.Time) Decision {
	if _, err := domain.Transition(s.Booking.Status, domain.EventRequestReschedule); err != nil {
		return Decision{Reason: ReasonInvalidStatus}
	}

	if p.HasRescheduleLimit() && s.Booking.RescheduleCount >= p.MaxReschedules {
		return Decision{Reason: ReasonRescheduleLimit}
	}

	return windowDecision(s.SlotStart, now, p.RescheduleWindowHours, p.RescheduleFee)
}

// ForActor администратор не ограничен окнами и не платит штраф,
// но переход всё равно должен быть допустим для статуса.
func ForActor(actor domain.Actor, d Decision) Decision {
	if !actor.IsAdmin() || d.Reason == ReasonInvalidStatus {
		return d
	}
	return Decision{Allowed: true, Reason: ReasonAdminOverride}
}

func windowDecision(start, now time.Time, windowHours int, fee int64) Decision {
	if !now.Before(start) {
		return Decision{Reason: ReasonAlreadyStarted}
	}

	window := time.Duration(windowHours) * time.Hour
	if start.Sub(now) < window {
		return Decision{Allowed: true, FeeAmount: fee, Reason: ReasonLateFee}
	}

	return Decision{Allowed: true, Reason: ReasonOK}
}
