package models

import "github.com/m04kA/SMC-SchedulingService/internal/domain"

// Request модели

// CreateSlotRequest ручное добавление слота
type CreateSlotRequest struct {
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
}

// GenerateRangeRequest генерация слотов за период (включительно)
type GenerateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// BlockSlotRequest блокировка слота
type BlockSlotRequest struct {
	Reason string `json:"reason"`
}

// Response модели

// SlotResponse ответ с данными слота
type SlotResponse struct {
	ID              int64   `json:"id"`
	Date            string  `json:"date"`      // "2026-10-19"
	StartTime       string  `json:"startTime"` // "08:00"
	EndTime         string  `json:"endTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Bay             int     `json:"bay"`
	Status          string  `json:"status"`
	Source          string  `json:"source"`
	BlockReason     *string `json:"blockReason,omitempty"`
}

// SlotListResponse список слотов
type SlotListResponse struct {
	Slots []SlotResponse `json:"slots"`
}

// GenerateResponse результат генерации
type GenerateResponse struct {
	StartDate string         `json:"startDate"`
	EndDate   string         `json:"endDate"`
	Created   int            `json:"created"`
	Slots     []SlotResponse `json:"slots"`
}

// FromDomainSlot конвертирует domain.Slot в SlotResponse
func FromDomainSlot(slot *domain.Slot) SlotResponse {
	end, err := slot.EndTime()
	endStr := ""
	if err == nil {
		endStr = end.String()
	}

	return SlotResponse{
		ID:              slot.ID,
		Date:            slot.Date.String(),
		StartTime:       slot.StartTime.String(),
		EndTime:         endStr,
		DurationMinutes: slot.DurationMinutes,
		Bay:             slot.Bay,
		Status:          string(slot.Status),
		Source:          string(slot.Source),
		BlockReason:     slot.BlockReason,
	}
}

// FromDomainSlotList конвертирует список слотов
func FromDomainSlotList(slots []*domain.Slot) *SlotListResponse {
	responses := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		responses = append(responses, FromDomainSlot(s))
	}
	return &SlotListResponse{Slots: responses}
}

