package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingModels "github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// Request модели

// ProposeRequest запрос клиента на перенос бронирования
type ProposeRequest struct {
	RequestedSlotID int64   `json:"requestedSlotId"`
	Reason          *string `json:"reason,omitempty"`
}

// DecisionRequest решение администратора по запросу
type DecisionRequest struct {
	AdminNotes *string `json:"adminNotes,omitempty"`
}

// ExpireRequest закрытие зависших запросов
type ExpireRequest struct {
	OlderThanHours *int `json:"olderThanHours,omitempty"`
}

// Response модели

// RequestResponse данные запроса на перенос
type RequestResponse struct {
	ID              int64      `json:"id"`
	BookingID       int64      `json:"bookingId"`
	OriginalSlotID  int64      `json:"originalSlotId"`
	RequestedSlotID int64      `json:"requestedSlotId"`
	Reason          *string    `json:"reason,omitempty"`
	Status          string     `json:"status"`
	FeeAmount       int64      `json:"feeAmount"`
	RequestedAt     time.Time  `json:"requestedAt"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
	RespondedBy     *int64     `json:"respondedBy,omitempty"`
	AdminNotes      *string    `json:"adminNotes,omitempty"`
}

// RequestListResponse список запросов
type RequestListResponse struct {
	Requests []RequestResponse `json:"requests"`
}

// DecisionResponse запрос и бронирование после решения
type DecisionResponse struct {
	Request RequestResponse                `json:"request"`
	Booking *bookingModels.BookingResponse `json:"booking"`
}

// ExpireResponse сколько запросов закрыто
type ExpireResponse struct {
	Expired int `json:"expired"`
}

// FromDomainRequest конвертирует domain модель в DTO
func FromDomainRequest(r *domain.RescheduleRequest) RequestResponse {
	return RequestResponse{
		ID:              r.ID,
		BookingID:       r.BookingID,
		OriginalSlotID:  r.OriginalSlotID,
		RequestedSlotID: r.RequestedSlotID,
		Reason:          r.Reason,
		Status:          string(r.Status),
		FeeAmount:       r.FeeAmount,
		RequestedAt:     r.RequestedAt,
		RespondedAt:     r.RespondedAt,
		RespondedBy:     r.RespondedBy,
		AdminNotes:      r.AdminNotes,
	}
}

// FromDomainRequestList конвертирует список запросов
func FromDomainRequestList(requests []*domain.RescheduleRequest) *RequestListResponse {
	resp := &RequestListResponse{Requests: make([]RequestResponse, 0, len(requests))}
	for _, r := range requests {
		resp.Requests = append(resp.Requests, FromDomainRequest(r))
	}
	return resp
}
