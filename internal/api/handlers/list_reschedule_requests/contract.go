package list_reschedule_requests

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
)

type RescheduleService interface {
	List(ctx context.Context, status *string) (*models.RequestListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
