package create_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type MockUseCase struct {
	mock.Mock
}

func (m *MockUseCase) Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*createBooking.Response), args.Error(1)
}

func doRequest(h *Handler, body string, actor *domain.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestHandle_Created(t *testing.T) {
	uc := &MockUseCase{}
	h := NewHandler(uc, logger.NewNop())
	actor := domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	uc.On("Execute", mock.Anything, &createBooking.Request{
		Actor:      actor,
		SlotID:     3,
		VehicleID:  70,
		TotalPrice: 5000,
	}).Return(&createBooking.Response{
		ID:              11,
		Reference:       "DT-1A2B3C4D",
		SlotID:          3,
		Date:            types.MustDate("2026-10-19"),
		StartTime:       types.MustTimeString("10:00"),
		DurationMinutes: 120,
		Bay:             1,
		CustomerID:      7,
		VehicleID:       70,
		Status:          "pending",
		TotalPrice:      5000,
		PaymentStatus:   "unpaid",
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil)

	rr := doRequest(h, `{"slotId":3,"vehicleId":70,"totalPrice":5000}`, &actor)
	require.Equal(t, http.StatusCreated, rr.Code)

	var body CreateBookingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "DT-1A2B3C4D", body.Reference)
	assert.Equal(t, "2026-10-19", body.Date)
	assert.Equal(t, "10:00", body.StartTime)
	uc.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	actor := domain.Actor{UserID: 7, Role: domain.RoleCustomer}

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{createBooking.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{createBooking.ErrSlotNotFound, http.StatusNotFound, "not_found"},
		{createBooking.ErrTooLateToBook, http.StatusBadRequest, "too_late_to_book"},
		{createBooking.ErrDateTooFarInFuture, http.StatusBadRequest, "date_too_far"},
		{createBooking.ErrAccessDenied, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: vehicleId", createBooking.ErrInvalidInput), http.StatusBadRequest, "bad_request"},
		{createBooking.ErrInternal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			uc := &MockUseCase{}
			uc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			rr := doRequest(NewHandler(uc, logger.NewNop()), `{"slotId":3,"vehicleId":70}`, &actor)
			assert.Equal(t, tt.status, rr.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestHandle_BadRequests(t *testing.T) {
	uc := &MockUseCase{}
	h := NewHandler(uc, logger.NewNop())
	actor := domain.Actor{UserID: 7, Role: domain.RoleCustomer}

	assert.Equal(t, http.StatusUnauthorized, doRequest(h, `{"slotId":3}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"slotId":`, &actor).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"slotId":3,"unknown":1}`, &actor).Code)
	uc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}
