package get_settings

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/settings/models"
)

type SettingsService interface {
	GetTemplate(ctx context.Context) (*models.WeeklyTemplateResponse, error)
	GetPolicy(ctx context.Context) (*models.PolicyResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
