package get_slot_bookings

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
)

const (
	msgInvalidSlotID = "некорректный ID слота"
	msgSlotNotFound  = "слот не найден"
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

// Handle GET /api/v1/admin/slots/{slotId}/bookings
// Вся история бронирований слота, включая отменённые
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := handlers.PathInt64(r, "slotId")
	if err != nil {
		h.logger.Warn("GET /admin/slots/{id}/bookings - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	result, err := h.service.GetSlotBookings(r.Context(), slotID)
	if err != nil {
		if errors.Is(err, bookings.ErrSlotNotFound) {
			handlers.RespondNotFound(w, msgSlotNotFound)
			return
		}
		h.logger.Error("GET /admin/slots/{id}/bookings - Failed: slot_id=%d, error=%v", slotID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /admin/slots/{id}/bookings - Bookings retrieved: slot_id=%d, count=%d", slotID, len(result.Bookings))
	handlers.RespondJSON(w, http.StatusOK, result)
}
