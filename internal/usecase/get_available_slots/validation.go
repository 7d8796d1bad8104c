package get_available_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// validateRequest валидирует входные данные
func validateRequest(req *Request) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return nil
}

// validateDate проверяет ограничение advanceBookingDays
func validateDate(date, today types.Date, policy domain.BusinessPolicy) error {
	if !policy.WithinAdvanceLimit(date, today) {
		maxDate, _ := policy.LastBookableDate(today)
		return fmt.Errorf("%w: max %d days in advance (until %s)",
			ErrDateTooFarInFuture, policy.AdvanceBookingDays, maxDate)
	}

	return nil
}

// earliestStart момент, раньше которого слоты скрываются
func earliestStart(now time.Time, actor domain.Actor, policy *domain.BusinessPolicy) time.Time {
	if actor.IsAdmin() || policy == nil {
		return now
	}
	return now.Add(time.Duration(policy.MinBookingNoticeMinutes) * time.Minute)
}
