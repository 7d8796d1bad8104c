package create_slot

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
)

type MockSlotService struct {
	mock.Mock
}

func (m *MockSlotService) CreateSlot(ctx context.Context, actor domain.Actor, req *models.CreateSlotRequest) (*models.SlotResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SlotResponse), args.Error(1)
}

var admin = domain.Actor{UserID: 1, Role: domain.RoleAdmin}

func doRequest(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/slots", strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), admin))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestHandle_Created(t *testing.T) {
	svc := &MockSlotService{}
	h := NewHandler(svc, logger.NewNop())

	svc.On("CreateSlot", mock.Anything, admin, &models.CreateSlotRequest{Date: "2026-10-19", StartTime: "19:00", DurationMinutes: 60}).
		Return(&models.SlotResponse{ID: 21, Date: "2026-10-19", StartTime: "19:00", Status: "available", Source: "manual"}, nil)

	rr := doRequest(h, `{"date":"2026-10-19","startTime":"19:00","durationMinutes":60}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var body models.SlotResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(21), body.ID)
	assert.Equal(t, "manual", body.Source)
	svc.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{catalog.ErrInvalidInput, http.StatusBadRequest, "bad_request"},
		{catalog.ErrInvalidTemplate, http.StatusBadRequest, "invalid_template"},
		{catalog.ErrSlotAlreadyExists, http.StatusConflict, "conflict"},
		{catalog.ErrInternal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := &MockSlotService{}
			h := NewHandler(svc, logger.NewNop())
			svc.On("CreateSlot", mock.Anything, admin, mock.Anything).Return(nil, fmt.Errorf("%w: wrapped", tt.err))

			rr := doRequest(h, `{"date":"2026-10-19","startTime":"19:00"}`)
			assert.Equal(t, tt.status, rr.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHandle_InvalidBody(t *testing.T) {
	svc := &MockSlotService{}
	h := NewHandler(svc, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"date":`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, `{"date":"2026-10-19","bay":2}`).Code)
	svc.AssertNotCalled(t, "CreateSlot", mock.Anything, mock.Anything, mock.Anything)
}
