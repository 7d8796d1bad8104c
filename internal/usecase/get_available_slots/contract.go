package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// SlotCatalog каталог слотов (чтение через кэш доступности)
type SlotCatalog interface {
	ListAvailable(ctx context.Context, date types.Date) ([]*domain.Slot, error)
}

// PolicyProvider источник текущей бизнес-политики
type PolicyProvider interface {
	GetPolicy(ctx context.Context) (*domain.BusinessPolicy, error)
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
