package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	SlotID             int64 `json:"slotId"`
	CustomerID         int64 `json:"customerId,omitempty"` // только для администратора
	VehicleID          int64 `json:"vehicleId"`
	TotalPrice         int64 `json:"totalPrice"`
	ConfirmImmediately bool  `json:"confirmImmediately,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(actor domain.Actor) *createBooking.Request {
	return &createBooking.Request{
		Actor:              actor,
		SlotID:             r.SlotID,
		CustomerID:         r.CustomerID,
		VehicleID:          r.VehicleID,
		TotalPrice:         r.TotalPrice,
		ConfirmImmediately: r.ConfirmImmediately,
	}
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"reference"`
	SlotID          int64     `json:"slotId"`
	Date            string    `json:"date"`      // "2026-10-19"
	StartTime       string    `json:"startTime"` // "10:00"
	DurationMinutes int       `json:"durationMinutes"`
	Bay             int       `json:"bay"`
	CustomerID      int64     `json:"customerId"`
	VehicleID       int64     `json:"vehicleId"`
	Status          string    `json:"status"`
	TotalPrice      int64     `json:"totalPrice"`
	PaymentStatus   string    `json:"paymentStatus"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		ID:              resp.ID,
		Reference:       resp.Reference,
		SlotID:          resp.SlotID,
		Date:            resp.Date.String(),
		StartTime:       resp.StartTime.String(),
		DurationMinutes: resp.DurationMinutes,
		Bay:             resp.Bay,
		CustomerID:      resp.CustomerID,
		VehicleID:       resp.VehicleID,
		Status:          resp.Status,
		TotalPrice:      resp.TotalPrice,
		PaymentStatus:   resp.PaymentStatus,
		CreatedAt:       resp.CreatedAt,
		UpdatedAt:       resp.UpdatedAt,
	}
}
