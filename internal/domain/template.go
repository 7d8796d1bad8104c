package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ErrInvalidTemplate возвращается, если настройки дня недельного шаблона противоречивы
var ErrInvalidTemplate = errors.New("domain: invalid weekly template")

// DayTemplate настройки одного дня недели (0 = воскресенье ... 6 = суббота, как time.Weekday)
type DayTemplate struct {
	DayOfWeek           time.Weekday
	IsWorkingDay        bool
	StartTime           types.TimeString
	EndTime             types.TimeString
	SlotDurationMinutes int
	MaxBookingsPerSlot  int // количество параллельных боксов
	BreakStart          *types.TimeString
	BreakEnd            *types.TimeString
	UpdatedAt           time.Time
}

// WeeklyTemplate шаблон рабочей недели, ровно одна запись на каждый день недели
type WeeklyTemplate struct {
	Days [7]DayTemplate
}

// ForDate возвращает настройки дня недели для даты
func (w *WeeklyTemplate) ForDate(date types.Date) DayTemplate {
	return w.Days[date.Weekday()]
}

func (d *DayTemplate) HasBreak() bool {
	return d.BreakStart != nil && d.BreakEnd != nil
}

// Validate проверяет согласованность дня шаблона.
// Для нерабочего дня проверяется только номер дня.
func (d *DayTemplate) Validate() error {
	if d.DayOfWeek < time.Sunday || d.DayOfWeek > time.Saturday {
		return fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidTemplate, d.DayOfWeek)
	}
	if !d.IsWorkingDay {
		return nil
	}

	if d.StartTime.IsZero() || d.EndTime.IsZero() {
		return fmt.Errorf("%w: %s: start and end time are required", ErrInvalidTemplate, d.DayOfWeek)
	}
	if !d.StartTime.IsBefore(d.EndTime) {
		return fmt.Errorf("%w: %s: start_time %s must be before end_time %s",
			ErrInvalidTemplate, d.DayOfWeek, d.StartTime, d.EndTime)
	}
	if d.SlotDurationMinutes < MinSlotDurationMinutes || d.SlotDurationMinutes > MaxSlotDurationMinutes {
		return fmt.Errorf("%w: %s: slot duration must be between %d and %d minutes",
			ErrInvalidTemplate, d.DayOfWeek, MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	if d.MaxBookingsPerSlot < MinBookingsPerSlot || d.MaxBookingsPerSlot > MaxBookingsPerSlot {
		return fmt.Errorf("%w: %s: max bookings per slot must be between %d and %d",
			ErrInvalidTemplate, d.DayOfWeek, MinBookingsPerSlot, MaxBookingsPerSlot)
	}

	if (d.BreakStart == nil) != (d.BreakEnd == nil) {
		return fmt.Errorf("%w: %s: break needs both start and end", ErrInvalidTemplate, d.DayOfWeek)
	}
	if d.HasBreak() {
		if !d.BreakStart.IsBefore(*d.BreakEnd) {
			return fmt.Errorf("%w: %s: break_start must be before break_end", ErrInvalidTemplate, d.DayOfWeek)
		}
		if d.BreakStart.IsBefore(d.StartTime) || d.BreakEnd.IsAfter(d.EndTime) {
			return fmt.Errorf("%w: %s: break must be within working hours", ErrInvalidTemplate, d.DayOfWeek)
		}
	}

	return nil
}

// SlotTimes возвращает времена начала всех слотов дня.
// Слоты идут с шагом SlotDurationMinutes от начала дня, не выходят за конец дня
// и не пересекаются с перерывом: после перерыва отсчёт продолжается от его конца.
func (d *DayTemplate) SlotTimes() ([]types.TimeString, error) {
	if !d.IsWorkingDay {
		return []types.TimeString{}, nil
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	times := make([]types.TimeString, 0)
	current := d.StartTime

	for current.IsBefore(d.EndTime) {
		end, err := current.AddMinutes(d.SlotDurationMinutes)
		if err != nil || end.IsAfter(d.EndTime) {
			break
		}

		// Слот пересекается с перерывом - переносим начало на конец перерыва
		if d.HasBreak() && current.IsBefore(*d.BreakEnd) && end.IsAfter(*d.BreakStart) {
			current = *d.BreakEnd
			continue
		}

		times = append(times, current)
		current = end
	}

	return times, nil
}
