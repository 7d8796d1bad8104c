package decide_reschedule

import (
	"context"
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
)

const (
	msgInvalidRequestID   = "некорректный ID запроса на перенос"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgRequestNotFound    = "запрос на перенос не найден"
	msgNotPending         = "запрос на перенос уже рассмотрен"
	msgSlotUnavailable    = "запрошенный слот уже занят, выберите другой"
	msgForbidden          = "доступ запрещен"
	msgInvalidInput       = "некорректные данные решения"
)

type decideFunc func(ctx context.Context, actor domain.Actor, requestID int64, req *models.DecisionRequest) (*models.DecisionResponse, error)

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

// HandleApprove POST /api/v1/reschedule-requests/{requestId}/approve
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "approve", h.service.Approve)
}

// HandleDecline POST /api/v1/reschedule-requests/{requestId}/decline
func (h *Handler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "decline", h.service.Decline)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, op string, decide decideFunc) {
	route := "POST /reschedule-requests/{id}/" + op

	requestID, err := handlers.PathInt64(r, "requestId")
	if err != nil {
		h.logger.Warn("%s - Invalid request ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestID)
		return
	}

	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		h.logger.Warn("%s - Missing user ID", route)
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.DecisionRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := decide(r.Context(), actor, requestID, &req)
	if err != nil {
		switch {
		case errors.Is(err, reschedule.ErrRequestNotFound):
			handlers.RespondNotFound(w, msgRequestNotFound)

		case errors.Is(err, reschedule.ErrRequestNotPending):
			h.logger.Warn("%s - Request not pending: request_id=%d", route, requestID)
			handlers.RespondErrorCode(w, http.StatusConflict, "request_not_pending", msgNotPending)

		case errors.Is(err, reschedule.ErrSlotUnavailable):
			h.logger.Warn("%s - Requested slot taken: request_id=%d", route, requestID)
			handlers.RespondErrorCode(w, http.StatusConflict, "slot_unavailable", msgSlotUnavailable)

		case errors.Is(err, reschedule.ErrAccessDenied):
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, reschedule.ErrInvalidInput):
			h.logger.Warn("%s - Invalid input: %v", route, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("%s - Failed: request_id=%d, error=%v", route, requestID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("%s - Request resolved: request_id=%d, status=%s, admin_id=%d",
		route, requestID, result.Request.Status, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
