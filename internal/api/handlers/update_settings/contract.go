package update_settings

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/settings/models"
)

type SettingsService interface {
	UpdateTemplate(ctx context.Context, actor domain.Actor, req *models.UpdateTemplateRequest) (*models.WeeklyTemplateResponse, error)
	UpdatePolicy(ctx context.Context, actor domain.Actor, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
