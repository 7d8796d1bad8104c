package block_slot

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
)

type SlotService interface {
	Block(ctx context.Context, actor domain.Actor, id int64, req *models.BlockSlotRequest) (*models.SlotResponse, error)
	Unblock(ctx context.Context, actor domain.Actor, id int64) (*models.SlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
