package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition переход статуса бронирования не предусмотрен
var ErrInvalidTransition = errors.New("domain: invalid booking status transition")

// BookingEvent событие, меняющее статус бронирования
type BookingEvent string

const (
	EventConfirm           BookingEvent = "confirm"
	EventStart             BookingEvent = "start"
	EventComplete          BookingEvent = "complete"
	EventCancel            BookingEvent = "cancel"
	EventRequestReschedule BookingEvent = "request_reschedule"
	EventApproveReschedule BookingEvent = "approve_reschedule"
	EventDeclineReschedule BookingEvent = "decline_reschedule"
	EventResume            BookingEvent = "resume"
)

// AllBookingEvents все события конечного автомата
var AllBookingEvents = []BookingEvent{
	EventConfirm,
	EventStart,
	EventComplete,
	EventCancel,
	EventRequestReschedule,
	EventApproveReschedule,
	EventDeclineReschedule,
	EventResume,
}

type transitionKey struct {
	from  BookingStatus
	event BookingEvent
}

// transitions единственное место, где описаны допустимые переходы
var transitions = map[transitionKey]BookingStatus{
	{StatusPending, EventConfirm}: StatusConfirmed,
	{StatusPending, EventCancel}:  StatusCancelled,

	{StatusConfirmed, EventStart}:             StatusInProgress,
	{StatusConfirmed, EventCancel}:            StatusCancelled,
	{StatusConfirmed, EventRequestReschedule}: StatusRescheduleRequested,

	{StatusInProgress, EventComplete}: StatusCompleted,
	{StatusInProgress, EventCancel}:   StatusCancelled,

	{StatusRescheduleRequested, EventApproveReschedule}: StatusRescheduleApproved,
	{StatusRescheduleRequested, EventDeclineReschedule}: StatusRescheduleDeclined,

	{StatusRescheduleApproved, EventResume}: StatusConfirmed,
	{StatusRescheduleDeclined, EventResume}: StatusConfirmed,
}

// Transition возвращает статус после события или ErrInvalidTransition
func Transition(from BookingStatus, event BookingEvent) (BookingStatus, error) {
	to, ok := transitions[transitionKey{from: from, event: event}]
	if !ok {
		return "", fmt.Errorf("%w: %s --%s-->", ErrInvalidTransition, from, event)
	}
	return to, nil
}

// EventForTarget событие, которое переводит бронирование в целевой статус
// при ручной смене статуса. Статусы переноса так получить нельзя:
// ими управляет только процесс переноса.
func EventForTarget(target BookingStatus) (BookingEvent, error) {
	switch target {
	case StatusConfirmed:
		return EventConfirm, nil
	case StatusInProgress:
		return EventStart, nil
	case StatusCompleted:
		return EventComplete, nil
	case StatusCancelled:
		return EventCancel, nil
	default:
		return "", fmt.Errorf("%w: status %q cannot be set directly", ErrInvalidTransition, target)
	}
}

// ReleasesSlot после перехода в этот статус слот бронирования освобождается
func ReleasesSlot(to BookingStatus) bool {
	return to == StatusCancelled || to == StatusCompleted
}
