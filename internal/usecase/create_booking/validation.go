package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// validateRequest валидирует входные данные и определяет клиента бронирования
func validateRequest(req *Request) (int64, error) {
	if req.Actor.UserID <= 0 {
		return 0, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	if req.SlotID <= 0 {
		return 0, fmt.Errorf("%w: slotId must be positive", ErrInvalidInput)
	}

	if req.VehicleID <= 0 {
		return 0, fmt.Errorf("%w: vehicleId must be positive", ErrInvalidInput)
	}

	if req.TotalPrice < 0 {
		return 0, fmt.Errorf("%w: totalPrice must not be negative", ErrInvalidInput)
	}

	if req.CustomerID < 0 {
		return 0, fmt.Errorf("%w: customerId must be positive", ErrInvalidInput)
	}

	if req.Actor.IsAdmin() {
		if req.CustomerID == 0 {
			return 0, fmt.Errorf("%w: customerId is required for admin bookings", ErrInvalidInput)
		}
		return req.CustomerID, nil
	}

	// Клиент записывает только себя и не может сам подтвердить запись
	if req.CustomerID != 0 && req.CustomerID != req.Actor.UserID {
		return 0, ErrAccessDenied
	}
	if req.ConfirmImmediately {
		return 0, ErrAccessDenied
	}

	return req.Actor.UserID, nil
}

// validateBookingWindow проверяет minBookingNoticeMinutes и advanceBookingDays.
// now должен быть во временной зоне бизнеса: от него считается сегодняшняя дата.
func validateBookingWindow(slotDate types.Date, slotStart, now time.Time, policy domain.BusinessPolicy) error {
	notice := time.Duration(policy.MinBookingNoticeMinutes) * time.Minute
	if slotStart.Sub(now) < notice {
		return fmt.Errorf("%w: booking requires at least %d minutes notice",
			ErrTooLateToBook, policy.MinBookingNoticeMinutes)
	}

	if !policy.WithinAdvanceLimit(slotDate, types.NewDate(now)) {
		return fmt.Errorf("%w: max %d days in advance", ErrDateTooFarInFuture, policy.AdvanceBookingDays)
	}

	return nil
}
