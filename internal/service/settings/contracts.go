package settings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// SettingsRepository интерфейс репозитория настроек
type SettingsRepository interface {
	GetWeeklyTemplate(ctx context.Context) (*domain.WeeklyTemplate, error)
	UpdateDay(ctx context.Context, day domain.DayTemplate, now time.Time) error
	GetPolicy(ctx context.Context) (*domain.BusinessPolicy, error)
	UpdatePolicy(ctx context.Context, policy domain.BusinessPolicy, now time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
