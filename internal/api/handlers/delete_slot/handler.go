package delete_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog"
)

const (
	msgInvalidSlotID = "некорректный ID слота"
	msgMissingUserID = "отсутствует ID пользователя"
	msgSlotNotFound  = "слот не найден"
	msgSlotHasBooked = "слот нельзя удалить: у него есть история бронирований"
	msgSlotBlocked   = "удалить можно только свободный слот"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/admin/slots/{slotId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := handlers.PathInt64(r, "slotId")
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	if err := h.service.Delete(r.Context(), actor, slotID); err != nil {
		switch {
		case errors.Is(err, catalog.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, catalog.ErrSlotHasBooking):
			h.logger.Warn("DELETE /admin/slots/{id} - Slot has bookings: slot_id=%d", slotID)
			handlers.RespondErrorCode(w, http.StatusConflict, "slot_has_booking", msgSlotHasBooked)

		case errors.Is(err, catalog.ErrSlotNotAvailable):
			handlers.RespondErrorCode(w, http.StatusConflict, "slot_not_available", msgSlotBlocked)

		default:
			h.logger.Error("DELETE /admin/slots/{id} - Failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /admin/slots/{id} - Slot deleted: slot_id=%d, admin_id=%d", slotID, actor.UserID)
	w.WriteHeader(http.StatusNoContent)
}
