package list_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/activity/list"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, requester models.Requester, filter models.ActivityFilter) ([]models.Activity, error) {
	args := m.Called(ctx, requester, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Activity), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListHandler(t *testing.T) {
	requester := models.Requester{ID: "lead-1", Role: models.RoleLead}
	weekly := models.ActivityWeekly

	tests := []struct {
		name       string
		url        string
		setupMock  func(m *MockService)
		wantStatus int
		wantLen    int
	}{
		{
			name: "no filters",
			url:  "/api/activities",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, requester, models.ActivityFilter{DateRange: models.RangeAll}).
					Return([]models.Activity{{ID: "a-1"}, {ID: "a-2"}}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLen:    2,
		},
		{
			name: "ALL type is no filter",
			url:  "/api/activities?type=ALL&dateRange=WEEK",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, requester, models.ActivityFilter{DateRange: models.RangeWeek}).
					Return([]models.Activity{}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "weekly this month",
			url:  "/api/activities?type=WEEKLY&dateRange=MONTH",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, requester, models.ActivityFilter{ActivityType: &weekly, DateRange: models.RangeMonth}).
					Return(nil, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad type",
			url:        "/api/activities?type=HOURLY",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad range",
			url:        "/api/activities?dateRange=YEAR",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown role",
			url:  "/api/activities",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, requester, mock.Anything).Return(nil, models.ErrForbidden).Once()
			},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			req = req.WithContext(middlewarectx.WithRequester(req.Context(), requester))
			rr := httptest.NewRecorder()
			list.New(newNoopLogger(), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var got []models.Activity
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.NotNil(t, got)
				assert.Len(t, got, tt.wantLen)
			}
			svc.AssertExpectations(t)
		})
	}
}
