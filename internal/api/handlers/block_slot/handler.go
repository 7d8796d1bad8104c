package block_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
)

const (
	msgInvalidSlotID      = "некорректный ID слота"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgSlotNotFound       = "слот не найден"
	msgSlotBooked         = "слот занят: сначала отмените или перенесите бронирование"
	msgSlotNotBlocked     = "слот не заблокирован"
	msgInvalidInput       = "некорректная причина блокировки"
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

// HandleBlock POST /api/v1/admin/slots/{slotId}/block
func (h *Handler) HandleBlock(w http.ResponseWriter, r *http.Request) {
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

	var req models.BlockSlotRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("POST /admin/slots/{id}/block - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	slot, err := h.service.Block(r.Context(), actor, slotID, &req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, catalog.ErrSlotNotAvailable):
			h.logger.Warn("POST /admin/slots/{id}/block - Slot is booked: slot_id=%d", slotID)
			handlers.RespondErrorCode(w, http.StatusConflict, "slot_not_available", msgSlotBooked)

		case errors.Is(err, catalog.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /admin/slots/{id}/block - Failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/slots/{id}/block - Slot blocked: slot_id=%d, admin_id=%d", slotID, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, slot)
}

// HandleUnblock POST /api/v1/admin/slots/{slotId}/unblock
func (h *Handler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
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

	slot, err := h.service.Unblock(r.Context(), actor, slotID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrSlotNotFound):
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, catalog.ErrSlotNotAvailable):
			handlers.RespondErrorCode(w, http.StatusConflict, "slot_not_blocked", msgSlotNotBlocked)

		default:
			h.logger.Error("POST /admin/slots/{id}/unblock - Failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/slots/{id}/unblock - Slot unblocked: slot_id=%d, admin_id=%d", slotID, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, slot)
}
