package settings

import "errors"

var (
	// ErrInvalidTemplate шаблон после изменений противоречив
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidPolicy политика после изменений некорректна
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
