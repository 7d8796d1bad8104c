package get_user_bookings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

const (
	msgMissingUserID    = "отсутствует ID пользователя"
	msgInvalidCustomer  = "некорректный ID клиента"
	msgInvalidStatus    = "некорректный статус бронирования"
	msgCustomerRequired = "администратор должен указать customerId"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings
// Query params: status (optional); customerId (обязателен для администратора, клиент видит только свои)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("GET /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	customerID := actor.UserID
	if actor.IsAdmin() {
		raw := r.URL.Query().Get("customerId")
		if raw == "" {
			h.logger.Warn("GET /bookings - Admin request without customerId")
			handlers.RespondBadRequest(w, msgCustomerRequired)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.logger.Warn("GET /bookings - Invalid customer ID: %q", raw)
			handlers.RespondBadRequest(w, msgInvalidCustomer)
			return
		}
		customerID = id
	}

	serviceReq := &models.GetUserBookingsRequest{
		CustomerID: customerID,
		Status:     handlers.OptionalQuery(r, "status"),
	}

	result, err := h.service.GetUserBookings(r.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, bookings.ErrInvalidInput) {
			h.logger.Warn("GET /bookings - Invalid status filter: %v", err)
			handlers.RespondBadRequest(w, msgInvalidStatus)
			return
		}
		h.logger.Error("GET /bookings - Failed to get bookings: customer_id=%d, error=%v", customerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /bookings - Bookings retrieved successfully: customer_id=%d, count=%d",
		customerID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
