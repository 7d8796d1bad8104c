package reschedule

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSlotNotFound запрошенный слот не найден
	ErrSlotNotFound = errors.New("slot not found")

	// ErrRequestNotFound запрос на перенос не найден
	ErrRequestNotFound = errors.New("reschedule request not found")

	// ErrRequestNotPending запрос уже рассмотрен
	ErrRequestNotPending = errors.New("reschedule request is not pending")

	// ErrBookingNotReschedulable статус бронирования не допускает перенос
	// (не подтверждено, уже есть открытый запрос или бронирование завершено)
	ErrBookingNotReschedulable = errors.New("booking cannot be rescheduled")

	// ErrRescheduleNotAllowed политика запрещает перенос
	ErrRescheduleNotAllowed = errors.New("reschedule not allowed")

	// ErrSlotUnavailable запрошенный слот занят, заблокирован или уже прошёл
	ErrSlotUnavailable = errors.New("slot is not available")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
