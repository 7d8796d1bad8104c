package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrActiveBookingExists на слот уже ссылается активное бронирование
	ErrActiveBookingExists = errors.New("booking.repository: slot already has an active booking")

	// ErrDuplicateReference код бронирования уже занят
	ErrDuplicateReference = errors.New("booking.repository: duplicate booking reference")

	// ErrStatusChanged статус бронирования изменился между чтением и записью
	ErrStatusChanged = errors.New("booking.repository: booking status changed concurrently")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
