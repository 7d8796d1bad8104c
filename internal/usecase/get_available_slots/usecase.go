package get_available_slots

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	catalog      SlotCatalog
	policies     PolicyProvider
	timeProvider TimeProvider
	location     *time.Location
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	catalog SlotCatalog,
	policies PolicyProvider,
	timeProvider TimeProvider,
	location *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		catalog:      catalog,
		policies:     policies,
		timeProvider: timeProvider,
		location:     location,
		logger:       logger,
	}
}

// Execute возвращает свободные слоты на дату.
// Прошедшая дата даёт пустой список. Для клиента скрываются слоты,
// до начала которых осталось меньше minBookingNoticeMinutes.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: user=%d, date=%s", req.Actor.UserID, req.Date)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время в зоне бизнеса
	now := uc.timeProvider.Now().In(uc.location)
	today := types.NewDate(now)

	resp := &Response{Date: req.Date, Slots: []Slot{}}

	// 3. Прошедшая дата
	if req.Date.Before(today) {
		uc.logger.Info("GetAvailableSlots: date %s is in the past", req.Date)
		return resp, nil
	}

	// 4. Политика записи действует только для клиентов
	var policy *domain.BusinessPolicy
	if !req.Actor.IsAdmin() {
		var err error
		policy, err = uc.policies.GetPolicy(ctx)
		if err != nil {
			uc.logger.Error("GetAvailableSlots: failed to get policy: %v", err)
			return nil, fmt.Errorf("%w: failed to get policy: %v", ErrInternal, err)
		}
		if err := validateDate(req.Date, today, *policy); err != nil {
			uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
			return nil, err
		}
	}

	// 5. Свободные слоты из каталога
	slots, err := uc.catalog.ListAvailable(ctx, req.Date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list slots: %v", err)
		return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
	}

	// 6. Отбрасываем начавшиеся и слишком близкие слоты
	earliest := earliestStart(now, req.Actor, policy)
	for _, slot := range slots {
		if slot.StartsAt(uc.location).Before(earliest) {
			continue
		}

		end, err := slot.EndTime()
		if err != nil {
			uc.logger.Error("GetAvailableSlots: slot id=%d has invalid end time: %v", slot.ID, err)
			return nil, fmt.Errorf("%w: slot id=%d: %v", ErrInternal, slot.ID, err)
		}

		resp.Slots = append(resp.Slots, Slot{
			ID:              slot.ID,
			StartTime:       slot.StartTime,
			EndTime:         end,
			DurationMinutes: slot.DurationMinutes,
			Bay:             slot.Bay,
		})
	}

	uc.logger.Info("GetAvailableSlots: found %d available slots for %s", len(resp.Slots), req.Date)
	return resp, nil
}
