package reschedule

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
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, reason *string, now time.Time) error
	MoveToSlot(ctx context.Context, id int64, from domain.BookingStatus, slotID int64, fee int64, reason *string, now time.Time) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	Claim(ctx context.Context, id int64, now time.Time) (bool, error)
	Release(ctx context.Context, id int64, now time.Time) (bool, error)
}

// RequestRepository интерфейс репозитория запросов на перенос
type RequestRepository interface {
	Create(ctx context.Context, req *domain.RescheduleRequest) (*domain.RescheduleRequest, error)
	GetByID(ctx context.Context, id int64) (*domain.RescheduleRequest, error)
	List(ctx context.Context, status *domain.RescheduleStatus) ([]*domain.RescheduleRequest, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domain.RescheduleRequest, error)
	Resolve(ctx context.Context, id int64, to domain.RescheduleStatus, respondedBy *int64, adminNotes *string, now time.Time) error
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

// Metrics бизнес-метрики переносов
type Metrics interface {
	ObserveTransition(from, to string)
	ObserveRescheduleDecision(outcome string)
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
