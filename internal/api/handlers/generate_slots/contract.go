package generate_slots

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type SlotService interface {
	GenerateForDate(ctx context.Context, actor domain.Actor, date types.Date) (*models.GenerateResponse, error)
	GenerateForRange(ctx context.Context, actor domain.Actor, req *models.GenerateRangeRequest) (*models.GenerateResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
