package catalog

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/events"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	Create(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
	CreateMissing(ctx context.Context, slots []*domain.Slot) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	ListByDate(ctx context.Context, date types.Date, status *domain.SlotStatus, source *domain.SlotSource) ([]*domain.Slot, error)
	NextBay(ctx context.Context, date types.Date, start types.TimeString) (int, error)
	Block(ctx context.Context, id int64, reason string, now time.Time) (bool, error)
	Unblock(ctx context.Context, id int64, now time.Time) (bool, error)
	DeleteUnused(ctx context.Context, id int64) (bool, error)
	HasHistory(ctx context.Context, id int64) (bool, error)
}

// TemplateProvider источник недельного шаблона
type TemplateProvider interface {
	GetWeeklyTemplate(ctx context.Context) (*domain.WeeklyTemplate, error)
}

// AvailabilityCache кэш свободных слотов на дату
type AvailabilityCache interface {
	Get(ctx context.Context, date types.Date) ([]*domain.Slot, bool)
	Version(ctx context.Context, date types.Date) (int64, bool)
	Set(ctx context.Context, date types.Date, version int64, slots []*domain.Slot)
	Invalidate(ctx context.Context, dates ...types.Date)
}

// EventPublisher публикация доменных событий
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Metrics бизнес-метрики каталога
type Metrics interface {
	ObserveSlotsGenerated(source string, n int)
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
