package get_settings

import (
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
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

// HandleTemplate GET /api/v1/admin/settings/template
func (h *Handler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.service.GetTemplate(r.Context())
	if err != nil {
		h.logger.Error("GET /admin/settings/template - Failed to get template: %v", err)
		handlers.RespondInternalError(w)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, template)
}

// HandlePolicy GET /api/v1/admin/settings/policy
func (h *Handler) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.GetPolicy(r.Context())
	if err != nil {
		h.logger.Error("GET /admin/settings/policy - Failed to get policy: %v", err)
		handlers.RespondInternalError(w)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, policy)
}
