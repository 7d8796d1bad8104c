package create_slot

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidInput       = "некорректная дата или время, ожидается YYYY-MM-DD и HH:MM"
	msgInvalidSlot        = "некорректные параметры слота"
	msgAlreadyExists      = "слот уже существует"
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

// Handle POST /api/v1/admin/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.CreateSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /admin/slots - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidInput):
			h.logger.Warn("POST /admin/slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, catalog.ErrInvalidTemplate):
			h.logger.Warn("POST /admin/slots - Invalid slot: %v", err)
			handlers.RespondErrorCode(w, http.StatusBadRequest, "invalid_template", msgInvalidSlot)

		case errors.Is(err, catalog.ErrSlotAlreadyExists):
			handlers.RespondConflict(w, msgAlreadyExists)

		default:
			h.logger.Error("POST /admin/slots - Failed to create slot: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/slots - Slot created: slot_id=%d, date=%s, start=%s, admin_id=%d",
		slot.ID, slot.Date, slot.StartTime, actor.UserID)
	handlers.RespondJSON(w, http.StatusCreated, slot)
}
