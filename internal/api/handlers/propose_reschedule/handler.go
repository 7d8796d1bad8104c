package propose_reschedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgBookingNotFound    = "бронирование не найдено"
	msgSlotNotFound       = "запрошенный слот не найден"
	msgForbidden          = "доступ запрещен"
	msgNotReschedulable   = "бронирование нельзя перенести"
	msgSlotUnavailable    = "запрошенный слот недоступен"
	msgNotAllowed         = "перенос больше невозможен"
	msgInvalidInput       = "некорректные данные запроса на перенос"
)

type Handler struct {
	service RescheduleService
	logger  Logger
}

func NewHandler(service RescheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathInt64(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings/{id}/reschedule - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.ProposeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	request, err := h.service.Propose(r.Context(), actor, bookingID, &req)
	if err != nil {
		switch {
		case errors.Is(err, reschedule.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, reschedule.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, reschedule.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/reschedule - Access denied: booking_id=%d, user_id=%d", bookingID, actor.UserID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reschedule.ErrBookingNotReschedulable):
			h.logger.Warn("POST /bookings/{id}/reschedule - Not reschedulable: booking_id=%d: %v", bookingID, err)
			handlers.RespondErrorCode(w, http.StatusConflict, "booking_not_reschedulable", msgNotReschedulable)

		case errors.Is(err, reschedule.ErrSlotUnavailable):
			h.logger.Warn("POST /bookings/{id}/reschedule - Slot unavailable: slot_id=%d", req.RequestedSlotID)
			handlers.RespondErrorCode(w, http.StatusConflict, "slot_unavailable", msgSlotUnavailable)

		case errors.Is(err, reschedule.ErrRescheduleNotAllowed):
			h.logger.Warn("POST /bookings/{id}/reschedule - Refused by policy: booking_id=%d: %v", bookingID, err)
			handlers.RespondErrorCode(w, http.StatusBadRequest, "reschedule_not_allowed", msgNotAllowed)

		case errors.Is(err, reschedule.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/reschedule - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /bookings/{id}/reschedule - Failed to propose: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/reschedule - Request created: request_id=%d, booking_id=%d, user_id=%d",
		request.ID, bookingID, actor.UserID)
	handlers.RespondJSON(w, http.StatusCreated, request)
}
