package decide_reschedule

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
)

type RescheduleService interface {
	Approve(ctx context.Context, actor domain.Actor, requestID int64, req *models.DecisionRequest) (*models.DecisionResponse, error)
	Decline(ctx context.Context, actor domain.Actor, requestID int64, req *models.DecisionRequest) (*models.DecisionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
