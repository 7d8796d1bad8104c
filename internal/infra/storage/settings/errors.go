package settings

import "errors"

var (
	// ErrTemplateNotFound в таблице шаблона нет строки для дня недели
	ErrTemplateNotFound = errors.New("settings.repository: weekly template day not found")

	// ErrIncompleteTemplate в шаблоне меньше семи дней
	ErrIncompleteTemplate = errors.New("settings.repository: weekly template is incomplete")

	// ErrPolicyNotFound строка политики отсутствует
	ErrPolicyNotFound = errors.New("settings.repository: business policy not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("settings.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("settings.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("settings.repository: failed to scan row")
)
