package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	Claim(ctx context.Context, id int64, now time.Time) (bool, error)
}

// PolicyProvider источник текущей бизнес-политики
type PolicyProvider interface {
	GetPolicy(ctx context.Context) (*domain.BusinessPolicy, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// AvailabilityCache сброс кэша свободных слотов
type AvailabilityCache interface {
	Invalidate(ctx context.Context, dates ...types.Date)
}

// EventPublisher публикация доменных событий
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Metrics бизнес-метрики записи
type Metrics interface {
	ObserveBookingCreated(status string)
	ObserveClaimConflict(operation string)
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
