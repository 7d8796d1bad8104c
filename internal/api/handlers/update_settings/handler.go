package update_settings

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/settings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/settings/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidInput       = "некорректные данные настроек"
	msgInvalidTemplate    = "некорректный шаблон рабочего дня"
	msgInvalidPolicy      = "некорректные параметры политики"
)

type Handler struct {
	service SettingsService
	logger  Logger
}

func NewHandler(service SettingsService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleTemplate PUT /api/v1/admin/settings/template
// Частичное обновление: передаются только изменяемые дни и поля
func (h *Handler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.UpdateTemplateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /admin/settings/template - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	template, err := h.service.UpdateTemplate(r.Context(), actor, &req)
	if err != nil {
		h.respondError(w, "PUT /admin/settings/template", err)
		return
	}

	h.logger.Info("PUT /admin/settings/template - Template updated: days=%d, admin_id=%d", len(req.Days), actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, template)
}

// HandlePolicy PUT /api/v1/admin/settings/policy
func (h *Handler) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.UpdatePolicyRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /admin/settings/policy - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	policy, err := h.service.UpdatePolicy(r.Context(), actor, &req)
	if err != nil {
		h.respondError(w, "PUT /admin/settings/policy", err)
		return
	}

	h.logger.Info("PUT /admin/settings/policy - Policy updated, admin_id=%d", actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, policy)
}

func (h *Handler) respondError(w http.ResponseWriter, route string, err error) {
	switch {
	case errors.Is(err, settings.ErrInvalidTemplate):
		h.logger.Warn("%s - Invalid template: %v", route, err)
		handlers.RespondErrorCode(w, http.StatusBadRequest, "invalid_template", msgInvalidTemplate)

	case errors.Is(err, settings.ErrInvalidPolicy):
		h.logger.Warn("%s - Invalid policy: %v", route, err)
		handlers.RespondErrorCode(w, http.StatusBadRequest, "invalid_policy", msgInvalidPolicy)

	case errors.Is(err, settings.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	default:
		h.logger.Error("%s - Failed: %v", route, err)
		handlers.RespondInternalError(w)
	}
}
