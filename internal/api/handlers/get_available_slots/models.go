package get_available_slots

import (
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date  string         `json:"date"` // "2026-10-19"
	Slots []SlotResponse `json:"slots"`
}

// SlotResponse слот в ответе
type SlotResponse struct {
	ID              int64  `json:"id"`
	StartTime       string `json:"startTime"` // "10:00"
	EndTime         string `json:"endTime"`   // "12:00"
	DurationMinutes int    `json:"durationMinutes"`
	Bay             int    `json:"bay"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			ID:              s.ID,
			StartTime:       s.StartTime.String(),
			EndTime:         s.EndTime.String(),
			DurationMinutes: s.DurationMinutes,
			Bay:             s.Bay,
		})
	}

	return &AvailableSlotsResponse{
		Date:  resp.Date.String(),
		Slots: slots,
	}
}
