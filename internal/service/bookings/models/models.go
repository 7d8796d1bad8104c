package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// UpdateStatusRequest запрос на смену статуса бронирования
type UpdateStatusRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

// GetUserBookingsRequest запрос на получение бронирований клиента
type GetUserBookingsRequest struct {
	CustomerID int64   `json:"customerId"`
	Status     *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"` // "DT-1A2B3C4D"
	SlotID          int64  `json:"slotId"`
	CustomerID      int64  `json:"customerId"`
	VehicleID       int64  `json:"vehicleId"`
	Status          string `json:"status"`
	TotalPrice      int64  `json:"totalPrice"`
	FeeAmount       int64  `json:"feeAmount"`
	PaymentStatus   string `json:"paymentStatus"`
	RescheduleCount int    `json:"rescheduleCount"`

	StatusChangeReason *string `json:"statusChangeReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// DecisionResponse решение политики по одному действию
type DecisionResponse struct {
	Allowed   bool   `json:"allowed"`
	FeeAmount int64  `json:"feeAmount"`
	Reason    string `json:"reason,omitempty"`
}

// PolicyQuoteResponse что будет стоить отмена или перенос прямо сейчас
type PolicyQuoteResponse struct {
	BookingID    int64            `json:"bookingId"`
	SlotStartsAt time.Time        `json:"slotStartsAt"`
	Cancel       DecisionResponse `json:"cancel"`
	Reschedule   DecisionResponse `json:"reschedule"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		SlotID:             b.SlotID,
		CustomerID:         b.CustomerID,
		VehicleID:          b.VehicleID,
		Status:             string(b.Status),
		TotalPrice:         b.TotalPrice,
		FeeAmount:          b.FeeAmount,
		PaymentStatus:      string(b.PaymentStatus),
		RescheduleCount:    b.RescheduleCount,
		StatusChangeReason: b.StatusChangeReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
