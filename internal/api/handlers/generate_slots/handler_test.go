package generate_slots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog"
	"github.com/m04kA/SMC-SchedulingService/internal/service/catalog/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

type MockSlotService struct {
	mock.Mock
}

func (m *MockSlotService) GenerateForDate(ctx context.Context, actor domain.Actor, date types.Date) (*models.GenerateResponse, error) {
	args := m.Called(ctx, actor, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerateResponse), args.Error(1)
}

func (m *MockSlotService) GenerateForRange(ctx context.Context, actor domain.Actor, req *models.GenerateRangeRequest) (*models.GenerateResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerateResponse), args.Error(1)
}

var admin = domain.Actor{UserID: 1, Role: domain.RoleAdmin}

func doRequest(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/slots/generate", strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), admin))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestHandle_SingleDay(t *testing.T) {
	svc := &MockSlotService{}
	h := NewHandler(svc, logger.NewNop())

	svc.On("GenerateForDate", mock.Anything, admin, types.MustDate("2026-10-19")).
		Return(&models.GenerateResponse{StartDate: "2026-10-19", EndDate: "2026-10-19", Created: 5}, nil)

	rr := doRequest(h, `{"startDate":"2026-10-19"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var body models.GenerateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Created)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "GenerateForRange", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_Range(t *testing.T) {
	svc := &MockSlotService{}
	h := NewHandler(svc, logger.NewNop())

	req := &models.GenerateRangeRequest{StartDate: "2026-10-19", EndDate: "2026-10-25"}
	svc.On("GenerateForRange", mock.Anything, admin, req).
		Return(&models.GenerateResponse{StartDate: "2026-10-19", EndDate: "2026-10-25", Created: 25}, nil)

	rr := doRequest(h, `{"startDate":"2026-10-19","endDate":"2026-10-25"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{catalog.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
		{catalog.ErrInvalidTemplate, http.StatusBadRequest, "invalid_template"},
		{catalog.ErrInternal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := &MockSlotService{}
			h := NewHandler(svc, logger.NewNop())
			svc.On("GenerateForRange", mock.Anything, admin, mock.Anything).Return(nil, fmt.Errorf("%w: wrapped", tt.err))

			rr := doRequest(h, `{"startDate":"2026-10-25","endDate":"2026-10-19"}`)
			assert.Equal(t, tt.status, rr.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandle_InvalidStartDate(t *testing.T) {
	svc := &MockSlotService{}
	h := NewHandler(svc, logger.NewNop())

	rr := doRequest(h, `{"startDate":"19.10.2026"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "invalid_range", body.Code)
	svc.AssertNotCalled(t, "GenerateForDate", mock.Anything, mock.Anything, mock.Anything)
}
