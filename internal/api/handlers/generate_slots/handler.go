package generate_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidRange       = "некорректный период генерации"
	msgInvalidTemplate    = "недельный шаблон некорректен"
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

// Handle POST /api/v1/admin/slots/generate
// Body: {"startDate": "2026-10-19", "endDate": "2026-10-25"}; без endDate генерируется один день
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.GenerateRangeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /admin/slots/generate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	var (
		result *models.GenerateResponse
		err    error
	)
	if req.EndDate == "" {
		date, parseErr := types.ParseDate(req.StartDate)
		if parseErr != nil {
			h.logger.Warn("POST /admin/slots/generate - Invalid startDate: %v", parseErr)
			handlers.RespondErrorCode(w, http.StatusBadRequest, "invalid_range", msgInvalidRange)
			return
		}
		result, err = h.service.GenerateForDate(r.Context(), actor, date)
	} else {
		result, err = h.service.GenerateForRange(r.Context(), actor, &req)
	}

	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidRange):
			h.logger.Warn("POST /admin/slots/generate - Invalid range: %v", err)
			handlers.RespondErrorCode(w, http.StatusBadRequest, "invalid_range", msgInvalidRange)

		case errors.Is(err, catalog.ErrInvalidTemplate):
			h.logger.Warn("POST /admin/slots/generate - Invalid template: %v", err)
			handlers.RespondErrorCode(w, http.StatusBadRequest, "invalid_template", msgInvalidTemplate)

		default:
			h.logger.Error("POST /admin/slots/generate - Failed to generate: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/slots/generate - Generated %s..%s: created=%d, admin_id=%d",
		result.StartDate, result.EndDate, result.Created, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
