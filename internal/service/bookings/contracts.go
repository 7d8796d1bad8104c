package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListBySlot(ctx context.Context, slotID int64) ([]*domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, now time.Time) error
	Cancel(ctx context.Context, id int64, from domain.BookingStatus, reason *string, fee int64, now time.Time) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	Release(ctx context.Context, id int64, now time.Time) (bool, error)
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

// Metrics бизнес-метрики бронирований
type Metrics interface {
	ObserveTransition(from, to string)
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
