package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ErrInvalidPolicy возвращается при некорректных настройках политики
var ErrInvalidPolicy = errors.New("domain: invalid business policy")

// BusinessPolicy правила отмены и переноса, настраиваемые администратором
type BusinessPolicy struct {
	CancellationWindowHours int
	LateCancellationFee     int64
	RescheduleWindowHours   int
	RescheduleFee           int64
	MaxReschedules          int // 0 = без ограничения
	MinBookingNoticeMinutes int
	AdvanceBookingDays      int // 0 = без ограничения
	UpdatedAt               time.Time
}

// DefaultPolicy политика, которая применяется до первой настройки
func DefaultPolicy() BusinessPolicy {
	return BusinessPolicy{
		CancellationWindowHours: DefaultCancellationWindowHours,
		RescheduleWindowHours:   DefaultRescheduleWindowHours,
		MaxReschedules:          DefaultMaxReschedules,
		MinBookingNoticeMinutes: DefaultMinBookingNoticeMinutes,
		AdvanceBookingDays:      DefaultAdvanceBookingDays,
	}
}

func (p *BusinessPolicy) HasAdvanceBookingLimit() bool {
	return p.AdvanceBookingDays > 0
}

// LastBookableDate последняя дата, на которую клиент может записаться.
// ok == false, если ограничения нет.
func (p *BusinessPolicy) LastBookableDate(today types.Date) (types.Date, bool) {
	if !p.HasAdvanceBookingLimit() {
		return types.Date{}, false
	}
	return today.AddDays(p.AdvanceBookingDays), true
}

// WithinAdvanceLimit дата слота не дальше advanceBookingDays календарных дней от today.
// Сравниваются даты во временной зоне бизнеса, а не моменты времени.
func (p *BusinessPolicy) WithinAdvanceLimit(slotDate, today types.Date) bool {
	last, limited := p.LastBookableDate(today)
	return !limited || !slotDate.After(last)
}

func (p *BusinessPolicy) HasRescheduleLimit() bool {
	return p.MaxReschedules > 0
}

func (p *BusinessPolicy) Validate() error {
	if p.CancellationWindowHours < 0 || p.CancellationWindowHours > MaxPolicyWindowHours {
		return fmt.Errorf("%w: cancellation_window_hours must be between 0 and %d", ErrInvalidPolicy, MaxPolicyWindowHours)
	}
	if p.RescheduleWindowHours < 0 || p.RescheduleWindowHours > MaxPolicyWindowHours {
		return fmt.Errorf("%w: reschedule_window_hours must be between 0 and %d", ErrInvalidPolicy, MaxPolicyWindowHours)
	}
	if p.LateCancellationFee < 0 || p.RescheduleFee < 0 {
		return fmt.Errorf("%w: fees must not be negative", ErrInvalidPolicy)
	}
	if p.MaxReschedules < 0 {
		return fmt.Errorf("%w: max_reschedules must not be negative", ErrInvalidPolicy)
	}
	if p.MinBookingNoticeMinutes < 0 || p.MinBookingNoticeMinutes > MaxBookingNoticeMinutes {
		return fmt.Errorf("%w: min_booking_notice_minutes must be between 0 and %d", ErrInvalidPolicy, MaxBookingNoticeMinutes)
	}
	if p.AdvanceBookingDays < 0 || p.AdvanceBookingDays > MaxAdvanceBookingDays {
		return fmt.Errorf("%w: advance_booking_days must be between 0 and %d", ErrInvalidPolicy, MaxAdvanceBookingDays)
	}
	return nil
}
