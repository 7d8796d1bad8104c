package reschedule

import "errors"

var (
	// ErrRequestNotFound возвращается, когда запрос на перенос не найден
	ErrRequestNotFound = errors.New("reschedule.repository: request not found")

	// ErrPendingRequestExists у бронирования уже есть открытый запрос на перенос
	ErrPendingRequestExists = errors.New("reschedule.repository: booking already has a pending request")

	// ErrRequestNotPending запрос уже рассмотрен
	ErrRequestNotPending = errors.New("reschedule.repository: request is not pending")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reschedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reschedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reschedule.repository: failed to scan row")
)
