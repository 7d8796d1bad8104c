package expire_reschedule_requests

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
)

type RescheduleService interface {
	ExpireStale(ctx context.Context, actor domain.Actor, req *models.ExpireRequest) (*models.ExpireResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
