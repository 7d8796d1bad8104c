package propose_reschedule

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
)

type RescheduleService interface {
	Propose(ctx context.Context, actor domain.Actor, bookingID int64, req *models.ProposeRequest) (*models.RequestResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
