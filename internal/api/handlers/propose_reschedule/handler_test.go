package propose_reschedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule"
	"github.com/m04kA/SMC-SchedulingService/internal/service/reschedule/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

type MockRescheduleService struct {
	mock.Mock
}

func (m *MockRescheduleService) Propose(ctx context.Context, actor domain.Actor, bookingID int64, req *models.ProposeRequest) (*models.RequestResponse, error) {
	args := m.Called(ctx, actor, bookingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RequestResponse), args.Error(1)
}

var customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}

func doRequest(h *Handler, bookingID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+bookingID+"/reschedule", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"bookingId": bookingID})
	req = req.WithContext(middleware.WithActor(req.Context(), customer))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestHandle_Created(t *testing.T) {
	svc := &MockRescheduleService{}
	h := NewHandler(svc, logger.NewNop())

	svc.On("Propose", mock.Anything, customer, int64(5), &models.ProposeRequest{RequestedSlotID: 12, Reason: ptr.Ptr("late")}).
		Return(&models.RequestResponse{ID: 3, BookingID: 5, RequestedSlotID: 12, Status: "pending"}, nil)

	rr := doRequest(h, "5", `{"requestedSlotId":12,"reason":"late"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var body models.RequestResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.ID)
	assert.Equal(t, "pending", body.Status)
	svc.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{reschedule.ErrBookingNotFound, http.StatusNotFound, "not_found"},
		{reschedule.ErrSlotNotFound, http.StatusNotFound, "not_found"},
		{reschedule.ErrAccessDenied, http.StatusForbidden, "forbidden"},
		{reschedule.ErrBookingNotReschedulable, http.StatusConflict, "booking_not_reschedulable"},
		{reschedule.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{reschedule.ErrRescheduleNotAllowed, http.StatusBadRequest, "reschedule_not_allowed"},
		{reschedule.ErrInvalidInput, http.StatusBadRequest, "bad_request"},
		{reschedule.ErrInternal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &MockRescheduleService{}
			h := NewHandler(svc, logger.NewNop())
			svc.On("Propose", mock.Anything, customer, int64(5), mock.Anything).
				Return(nil, fmt.Errorf("%w: wrapped", tt.err))

			rr := doRequest(h, "5", `{"requestedSlotId":12}`)
			assert.Equal(t, tt.status, rr.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandle_BadRequest(t *testing.T) {
	svc := &MockRescheduleService{}
	h := NewHandler(svc, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, doRequest(h, "abc", `{"requestedSlotId":12}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, "5", `{"requestedSlotId":`).Code)
	svc.AssertNotCalled(t, "Propose", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
