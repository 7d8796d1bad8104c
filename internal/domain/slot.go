package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// SlotStatus статус временного слота
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotBlocked   SlotStatus = "blocked"
)

// SlotSource откуда появился слот
type SlotSource string

const (
	SlotSourceTemplate SlotSource = "template" // сгенерирован из недельного шаблона
	SlotSourceManual   SlotSource = "manual"   // добавлен администратором вручную
)

// Slot одно окно для записи в конкретную дату.
// Слот занят (booked) тогда и только тогда, когда на него ссылается ровно одно активное бронирование.
type Slot struct {
	ID              int64
	Date            types.Date
	StartTime       types.TimeString
	DurationMinutes int
	Bay             int // номер бокса, если в одно время доступно несколько мест
	Status          SlotStatus
	Source          SlotSource
	BlockReason     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndTime время окончания слота
func (s *Slot) EndTime() (types.TimeString, error) {
	return s.StartTime.AddMinutes(s.DurationMinutes)
}

// StartsAt момент начала слота во временной зоне бизнеса
func (s *Slot) StartsAt(loc *time.Location) time.Time {
	return s.StartTime.On(s.Date, loc)
}

func (s *Slot) IsAvailable() bool {
	return s.Status == SlotAvailable
}

func (s *Slot) IsBooked() bool {
	return s.Status == SlotBooked
}

func (s *Slot) IsBlocked() bool {
	return s.Status == SlotBlocked
}

// IsValid проверяет статус слота
func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotAvailable, SlotBooked, SlotBlocked:
		return true
	}
	return false
}
