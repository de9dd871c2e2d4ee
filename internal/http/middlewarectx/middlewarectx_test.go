package middlewarectx_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/response"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

type AuthMock struct {
	mock.Mock
}

func (m *AuthMock) Authenticate(ctx context.Context, token string) (models.Requester, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Requester), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var qa = models.Requester{ID: "q-1", Name: "QA Engineer", Role: models.RoleQA}

func decodeError(t *testing.T, body []byte) response.ErrorResponse {
	t.Helper()
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		mockResp       models.Requester
		mockErr        error
		wantStatusCode int
		wantMessage    string
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Authorization header missing",
		},
		{
			name:           "invalid Authorization header scheme",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Token not provided",
		},
		{
			name:           "bearer without token",
			authHeader:     "Bearer ",
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Token not provided",
		},
		{
			name:           "expired token",
			authHeader:     "Bearer token",
			mockErr:        models.NewAuthError("Token has expired"),
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Token has expired",
		},
		{
			name:           "deleted user",
			authHeader:     "Bearer token",
			mockErr:        models.NewAuthError("User no longer exists"),
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "User no longer exists",
		},
		{
			name:           "valid token",
			authHeader:     "Bearer token",
			mockResp:       qa,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthMock)
			authMock.On("Authenticate", mock.Anything, "token").Return(tt.mockResp, tt.mockErr).Maybe()

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				got, ok := middlewarectx.RequesterFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, qa, got)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(authMock, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			if tt.wantMessage != "" {
				body := decodeError(t, rr.Body.Bytes())
				assert.Equal(t, tt.wantMessage, body.Error)
				assert.Equal(t, models.CodeAuth, body.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := middlewarectx.RequireRole(newNoopLogger(), models.RoleManager)(next)

	tests := []struct {
		name      string
		requester *models.Requester
		want      int
	}{
		{name: "manager", requester: &models.Requester{ID: "m-1", Role: models.RoleManager}, want: http.StatusNoContent},
		{name: "lead", requester: &models.Requester{ID: "l-1", Role: models.RoleLead}, want: http.StatusForbidden},
		{name: "qa", requester: &qa, want: http.StatusForbidden},
		{name: "anonymous", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
			if tt.requester != nil {
				req = req.WithContext(middlewarectx.WithRequester(req.Context(), *tt.requester))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "Access denied. Insufficient permissions.", decodeError(t, rr.Body.Bytes()).Error)
			}
		})
	}
}

func TestRateLimiter_PerUser(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 2)
	h := limiter.Middleware(newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(r models.Requester) int {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/summary", nil)
		req = req.WithContext(middlewarectx.WithRequester(req.Context(), r))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call(qa))
	assert.Equal(t, http.StatusOK, call(qa))
	assert.Equal(t, http.StatusTooManyRequests, call(qa))

	other := models.Requester{ID: "q-2", Role: models.RoleQA}
	assert.Equal(t, http.StatusOK, call(other))
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middlewarectx.Metrics)
	r.Get("/api/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	const name = "qa_tracker_http_request_duration_seconds"
	before, err := testutil.GatherAndCount(prometheus.DefaultGatherer, name)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/things/42", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)

	after, err := testutil.GatherAndCount(prometheus.DefaultGatherer, name)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}
