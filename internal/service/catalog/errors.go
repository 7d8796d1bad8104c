package catalog

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSlotNotAvailable слот в неподходящем состоянии для операции (занят или заблокирован)
	ErrSlotNotAvailable = errors.New("slot is not available")

	// ErrSlotHasBooking на слот ссылаются бронирования или запросы на перенос
	ErrSlotHasBooking = errors.New("slot has bookings")

	// ErrSlotAlreadyExists слот с такой датой, временем и боксом уже есть
	ErrSlotAlreadyExists = errors.New("slot already exists")

	// ErrInvalidTemplate шаблон дня или параметры слота некорректны
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidRange некорректный диапазон дат
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidInput некорректные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
