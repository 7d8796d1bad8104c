package update_booking_status

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
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingResponse), args.Error(1)
}

var admin = domain.Actor{UserID: 1, Role: domain.RoleAdmin}

func doRequest(h *Handler, bookingID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/"+bookingID+"/status", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"bookingId": bookingID})
	req = req.WithContext(middleware.WithActor(req.Context(), admin))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestHandle_OK(t *testing.T) {
	svc := &MockBookingService{}
	h := NewHandler(svc, logger.NewNop())

	svc.On("UpdateStatus", mock.Anything, admin, int64(5), &models.UpdateStatusRequest{Status: "confirmed"}).
		Return(&models.BookingResponse{ID: 5, Status: "confirmed"}, nil)

	rr := doRequest(h, "5", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var body models.BookingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "confirmed", body.Status)
	svc.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{bookings.ErrBookingNotFound, http.StatusNotFound, "not_found"},
		{bookings.ErrAccessDenied, http.StatusForbidden, "forbidden"},
		{bookings.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{bookings.ErrCancellationNotAllowed, http.StatusBadRequest, "cancellation_not_allowed"},
		{bookings.ErrInvalidInput, http.StatusBadRequest, "bad_request"},
		{bookings.ErrInternal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := &MockBookingService{}
			h := NewHandler(svc, logger.NewNop())
			svc.On("UpdateStatus", mock.Anything, admin, int64(5), mock.Anything).
				Return(nil, fmt.Errorf("%w: wrapped", tt.err))

			rr := doRequest(h, "5", `{"status":"cancelled"}`)
			assert.Equal(t, tt.status, rr.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandle_BadRequest(t *testing.T) {
	svc := &MockBookingService{}
	h := NewHandler(svc, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, doRequest(h, "abc", `{"status":"confirmed"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, "5", `{"status":`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, "5", `{"status":"confirmed","extra":1}`).Code)
	svc.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
