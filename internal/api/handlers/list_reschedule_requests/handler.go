package list_reschedule_requests

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule"
)

const msgInvalidStatus = "некорректный статус запроса"

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

// Handle GET /api/v1/admin/reschedule-requests?status=pending
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	status := handlers.OptionalQuery(r, "status")

	result, err := h.service.List(r.Context(), status)
	if err != nil {
		if errors.Is(err, reschedule.ErrInvalidInput) {
			h.logger.Warn("GET /admin/reschedule-requests - Invalid status: %v", err)
			handlers.RespondBadRequest(w, msgInvalidStatus)
			return
		}
		h.logger.Error("GET /admin/reschedule-requests - Failed to list requests: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /admin/reschedule-requests - Requests retrieved: count=%d", len(result.Requests))
	handlers.RespondJSON(w, http.StatusOK, result)
}
