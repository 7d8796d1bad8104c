package get_available_slots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type MockUseCase struct {
	mock.Mock
}

func (m *MockUseCase) Execute(ctx context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*getAvailableSlots.Response), args.Error(1)
}

var customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}

func get(h *Handler, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), customer))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestHandle_OK(t *testing.T) {
	uc := &MockUseCase{}
	date := types.MustDate("2026-10-19")

	uc.On("Execute", mock.Anything, &getAvailableSlots.Request{Actor: customer, Date: date}).
		Return(&getAvailableSlots.Response{
			Date: date,
			Slots: []getAvailableSlots.Slot{{
				ID:              5,
				StartTime:       types.MustTimeString("10:00"),
				EndTime:         types.MustTimeString("12:00"),
				DurationMinutes: 120,
				Bay:             1,
			}},
		}, nil)

	rr := get(NewHandler(uc, logger.NewNop()), "/api/v1/availability?date=2026-10-19")
	require.Equal(t, http.StatusOK, rr.Code)

	var body AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Slots, 1)
	assert.Equal(t, "12:00", body.Slots[0].EndTime)
	assert.Equal(t, int64(5), body.Slots[0].ID)
}

func TestHandle_Errors(t *testing.T) {
	uc := &MockUseCase{}
	uc.On("Execute", mock.Anything, mock.Anything).Return(nil, getAvailableSlots.ErrDateTooFarInFuture)
	h := NewHandler(uc, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/v1/availability").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/v1/availability?date=19.10.2026").Code)

	rr := get(h, "/api/v1/availability?date=2027-10-19")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "date_too_far")
}
