package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модели

// DayUpdate изменения одного дня недели.
// Все поля опциональны - обновляются только переданные значения.
// Пустая строка в breakStart и breakEnd убирает перерыв.
type DayUpdate struct {
	DayOfWeek           int     `json:"dayOfWeek"` // 0 = воскресенье ... 6 = суббота
	IsWorkingDay        *bool   `json:"isWorkingDay,omitempty"`
	StartTime           *string `json:"startTime,omitempty"`
	EndTime             *string `json:"endTime,omitempty"`
	SlotDurationMinutes *int    `json:"slotDurationMinutes,omitempty"`
	MaxBookingsPerSlot  *int    `json:"maxBookingsPerSlot,omitempty"`
	BreakStart          *string `json:"breakStart,omitempty"`
	BreakEnd            *string `json:"breakEnd,omitempty"`
}

// UpdateTemplateRequest запрос на изменение недельного шаблона
type UpdateTemplateRequest struct {
	Days []DayUpdate `json:"days"`
}

// UpdatePolicyRequest запрос на изменение политики
// Все поля опциональны - обновляются только переданные значения
type UpdatePolicyRequest struct {
	CancellationWindowHours *int   `json:"cancellationWindowHours,omitempty"`
	LateCancellationFee     *int64 `json:"lateCancellationFee,omitempty"`
	RescheduleWindowHours   *int   `json:"rescheduleWindowHours,omitempty"`
	RescheduleFee           *int64 `json:"rescheduleFee,omitempty"`
	MaxReschedules          *int   `json:"maxReschedules,omitempty"`
	MinBookingNoticeMinutes *int   `json:"minBookingNoticeMinutes,omitempty"`
	AdvanceBookingDays      *int   `json:"advanceBookingDays,omitempty"`
}

// Response модели

// DayTemplateResponse настройки дня недели
type DayTemplateResponse struct {
	DayOfWeek           int       `json:"dayOfWeek"`
	DayName             string    `json:"dayName"`
	IsWorkingDay        bool      `json:"isWorkingDay"`
	StartTime           string    `json:"startTime"`
	EndTime             string    `json:"endTime"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	MaxBookingsPerSlot  int       `json:"maxBookingsPerSlot"`
	BreakStart          *string   `json:"breakStart,omitempty"`
	BreakEnd            *string   `json:"breakEnd,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// WeeklyTemplateResponse недельный шаблон, дни по порядку с воскресенья
type WeeklyTemplateResponse struct {
	Days []DayTemplateResponse `json:"days"`
}

// PolicyResponse текущая политика (0 в maxReschedules и advanceBookingDays - без ограничения)
type PolicyResponse struct {
	CancellationWindowHours int       `json:"cancellationWindowHours"`
	LateCancellationFee     int64     `json:"lateCancellationFee"`
	RescheduleWindowHours   int       `json:"rescheduleWindowHours"`
	RescheduleFee           int64     `json:"rescheduleFee"`
	MaxReschedules          int       `json:"maxReschedules"`
	MinBookingNoticeMinutes int       `json:"minBookingNoticeMinutes"`
	AdvanceBookingDays      int       `json:"advanceBookingDays"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// Методы конвертации

// FromDomainTemplate конвертирует domain модель в DTO
func FromDomainTemplate(t *domain.WeeklyTemplate) *WeeklyTemplateResponse {
	resp := &WeeklyTemplateResponse{Days: make([]DayTemplateResponse, 0, len(t.Days))}
	for _, d := range t.Days {
		day := DayTemplateResponse{
			DayOfWeek:           int(d.DayOfWeek),
			DayName:             d.DayOfWeek.String(),
			IsWorkingDay:        d.IsWorkingDay,
			StartTime:           d.StartTime.String(),
			EndTime:             d.EndTime.String(),
			SlotDurationMinutes: d.SlotDurationMinutes,
			MaxBookingsPerSlot:  d.MaxBookingsPerSlot,
			UpdatedAt:           d.UpdatedAt,
		}
		if d.HasBreak() {
			start, end := d.BreakStart.String(), d.BreakEnd.String()
			day.BreakStart = &start
			day.BreakEnd = &end
		}
		resp.Days = append(resp.Days, day)
	}
	return resp
}

// FromDomainPolicy конвертирует domain модель в DTO
func FromDomainPolicy(p *domain.BusinessPolicy) *PolicyResponse {
	return &PolicyResponse{
		CancellationWindowHours: p.CancellationWindowHours,
		LateCancellationFee:     p.LateCancellationFee,
		RescheduleWindowHours:   p.RescheduleWindowHours,
		RescheduleFee:           p.RescheduleFee,
		MaxReschedules:          p.MaxReschedules,
		MinBookingNoticeMinutes: p.MinBookingNoticeMinutes,
		AdvanceBookingDays:      p.AdvanceBookingDays,
		UpdatedAt:               p.UpdatedAt,
	}
}
