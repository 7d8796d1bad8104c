package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/settings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Service сервис настроек: недельный шаблон и политика отмены/переноса
type Service struct {
	repo      SettingsRepository
	txManager TransactionManager
	clock     TimeProvider
	logger    Logger
}

// NewService создает новый экземпляр сервиса настроек
func NewService(
	repo SettingsRepository,
	txManager TransactionManager,
	clock TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		clock:     clock,
		logger:    logger,
	}
}

// GetTemplate возвращает недельный шаблон
func (s *Service) GetTemplate(ctx context.Context) (*models.WeeklyTemplateResponse, error) {
	template, err := s.repo.GetWeeklyTemplate(ctx)
	if err != nil {
		s.logger.Error("GetTemplate: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetTemplate - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainTemplate(template), nil
}

// UpdateTemplate применяет изменения к дням шаблона.
// Каждый изменённый день проверяется целиком; при ошибке не сохраняется ни один день.
// Уже созданные слоты не меняются - шаблон влияет только на следующую генерацию.
func (s *Service) UpdateTemplate(ctx context.Context, actor domain.Actor, req *models.UpdateTemplateRequest) (*models.WeeklyTemplateResponse, error) {
	s.logger.Info("UpdateTemplate: updating %d days by user=%d", len(req.Days), actor.UserID)

	if len(req.Days) == 0 {
		return nil, fmt.Errorf("%w: no days to update", ErrInvalidInput)
	}

	template, err := s.repo.GetWeeklyTemplate(ctx)
	if err != nil {
		s.logger.Error("UpdateTemplate: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpdateTemplate - repository error: %v", ErrInternal, err)
	}

	seen := make(map[int]bool, len(req.Days))
	changed := make([]domain.DayTemplate, 0, len(req.Days))

	for _, update := range req.Days {
		if update.DayOfWeek < int(time.Sunday) || update.DayOfWeek > int(time.Saturday) {
			return nil, fmt.Errorf("%w: dayOfWeek %d out of range", ErrInvalidInput, update.DayOfWeek)
		}
		if seen[update.DayOfWeek] {
			return nil, fmt.Errorf("%w: dayOfWeek %d listed twice", ErrInvalidInput, update.DayOfWeek)
		}
		seen[update.DayOfWeek] = true

		day, err := applyDayUpdate(template.Days[update.DayOfWeek], update)
		if err != nil {
			s.logger.Warn("UpdateTemplate: invalid input for day=%d: %v", update.DayOfWeek, err)
			return nil, err
		}
		if err := day.Validate(); err != nil {
			s.logger.Warn("UpdateTemplate: invalid day=%d: %v", update.DayOfWeek, err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		changed = append(changed, day)
	}

	now := s.clock.Now()
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		for _, day := range changed {
			if err := s.repo.UpdateDay(ctx, day, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("UpdateTemplate: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: UpdateTemplate - transaction error: %v", ErrInternal, err)
	}

	s.logger.Info("UpdateTemplate: updated %d days", len(changed))
	return s.GetTemplate(ctx)
}

func applyDayUpdate(day domain.DayTemplate, u models.DayUpdate) (domain.DayTemplate, error) {
	if u.IsWorkingDay != nil {
		day.IsWorkingDay = *u.IsWorkingDay
	}
	if u.SlotDurationMinutes != nil {
		day.SlotDurationMinutes = *u.SlotDurationMinutes
	}
	if u.MaxBookingsPerSlot != nil {
		day.MaxBookingsPerSlot = *u.MaxBookingsPerSlot
	}

	var err error
	if u.StartTime != nil {
		if day.StartTime, err = types.NewTimeStringFromString(*u.StartTime); err != nil {
			return day, fmt.Errorf("%w: startTime: %v", ErrInvalidInput, err)
		}
	}
	if u.EndTime != nil {
		if day.EndTime, err = types.NewTimeStringFromString(*u.EndTime); err != nil {
			return day, fmt.Errorf("%w: endTime: %v", ErrInvalidInput, err)
		}
	}

	if day.BreakStart, err = applyOptionalTime(day.BreakStart, u.BreakStart); err != nil {
		return day, fmt.Errorf("%w: breakStart: %v", ErrInvalidInput, err)
	}
	if day.BreakEnd, err = applyOptionalTime(day.BreakEnd, u.BreakEnd); err != nil {
		return day, fmt.Errorf("%w: breakEnd: %v", ErrInvalidInput, err)
	}

	return day, nil
}

// applyOptionalTime nil - не менять, "" - очистить, иначе распарсить HH:MM
func applyOptionalTime(current *types.TimeString, value *string) (*types.TimeString, error) {
	if value == nil {
		return current, nil
	}
	if *value == "" {
		return nil, nil
	}
	t, err := types.NewTimeStringFromString(*value)
	if err != nil {
		return current, err
	}
	return &t, nil
}

// GetPolicy возвращает текущую политику
func (s *Service) GetPolicy(ctx context.Context) (*models.PolicyResponse, error) {
	p, err := s.repo.GetPolicy(ctx)
	if err != nil {
		s.logger.Error("GetPolicy: repository error: %v", err)
		return nil, fmt.Errorf("%w: GetPolicy - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainPolicy(p), nil
}

// UpdatePolicy частично обновляет политику
func (s *Service) UpdatePolicy(ctx context.Context, actor domain.Actor, req *models.UpdatePolicyRequest) (*models.PolicyResponse, error) {
	s.logger.Info("UpdatePolicy: updating business policy by user=%d", actor.UserID)

	current, err := s.repo.GetPolicy(ctx)
	if err != nil {
		s.logger.Error("UpdatePolicy: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpdatePolicy - repository error: %v", ErrInternal, err)
	}

	p := *current
	if req.CancellationWindowHours != nil {
		p.CancellationWindowHours = *req.CancellationWindowHours
	}
	if req.LateCancellationFee != nil {
		p.LateCancellationFee = *req.LateCancellationFee
	}
	if req.RescheduleWindowHours != nil {
		p.RescheduleWindowHours = *req.RescheduleWindowHours
	}
	if req.RescheduleFee != nil {
		p.RescheduleFee = *req.RescheduleFee
	}
	if req.MaxReschedules != nil {
		p.MaxReschedules = *req.MaxReschedules
	}
	if req.MinBookingNoticeMinutes != nil {
		p.MinBookingNoticeMinutes = *req.MinBookingNoticeMinutes
	}
	if req.AdvanceBookingDays != nil {
		p.AdvanceBookingDays = *req.AdvanceBookingDays
	}

	if err := p.Validate(); err != nil {
		s.logger.Warn("UpdatePolicy: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if err := s.repo.UpdatePolicy(ctx, p, s.clock.Now()); err != nil {
		s.logger.Error("UpdatePolicy: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpdatePolicy - repository error: %v", ErrInternal, err)
	}

	return s.GetPolicy(ctx)
}
