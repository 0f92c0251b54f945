package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScheduler struct{ mock.Mock }

func (m *mockScheduler) RunTick(ctx context.Context) (*model.TickReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*model.TickReport)
	return r, args.Error(1)
}

func (m *mockScheduler) ScheduleStats(ctx context.Context, userID, scheduleID int64) (*dto.ScheduleStats, error) {
	args := m.Called(ctx, userID, scheduleID)
	s, _ := args.Get(0).(*dto.ScheduleStats)
	return s, args.Error(1)
}

func (m *mockScheduler) RecentRuns(ctx context.Context, limit int) ([]model.TickReport, error) {
	args := m.Called(ctx, limit)
	r, _ := args.Get(0).([]model.TickReport)
	return r, args.Error(1)
}

type mockTokenRefresh struct{ mock.Mock }

func (m *mockTokenRefresh) RefreshExpiring(ctx context.Context) (usecase.RefreshSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.RefreshSummary), args.Error(1)
}

func (m *mockTokenRefresh) RefreshAccount(ctx context.Context, userID, accountID int64) (*model.Account, error) {
	args := m.Called(ctx, userID, accountID)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

func (m *mockTokenRefresh) TestAccount(ctx context.Context, userID, accountID int64) (*dto.AccountTestResult, error) {
	args := m.Called(ctx, userID, accountID)
	r, _ := args.Get(0).(*dto.AccountTestResult)
	return r, args.Error(1)
}

type mockConnect struct{ mock.Mock }

func (m *mockConnect) AuthURL(userID int64, platform string) (*dto.OAuthURLResponse, error) {
	args := m.Called(userID, platform)
	r, _ := args.Get(0).(*dto.OAuthURLResponse)
	return r, args.Error(1)
}

func (m *mockConnect) CompleteConnect(ctx context.Context, state, code string) (*model.Account, error) {
	args := m.Called(ctx, state, code)
	a, _ := args.Get(0).(*model.Account)
	return a, args.Error(1)
}

// serve routes a single request through handler with user_id preset as the auth middleware would.
func serve(method, pattern, target, userID string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, pattern, func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}, handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Res {
	t.Helper()
	var res dto.Res
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestSchedulerHandler_RunNow(t *testing.T) {
	m := &mockScheduler{}
	report := &model.TickReport{ID: "r1", Schedules: []model.ScheduleOutcome{{ScheduleID: 1, Verdict: model.VerdictProcessed, Published: 1}}}
	m.On("RunTick", mock.Anything).Return(report, nil).Once()

	w := serve(http.MethodPost, "/api/scheduler/run", "/api/scheduler/run", "7", NewSchedulerHandler(m).RunNow)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "200", decode(t, w).ResponseCode)
	assert.Contains(t, w.Body.String(), `"verdict":"processed"`)
	m.AssertExpectations(t)
}

func TestSchedulerHandler_RunNowSkipped(t *testing.T) {
	m := &mockScheduler{}
	m.On("RunTick", mock.Anything).Return(&model.TickReport{ID: "r2", Skipped: true}, nil)

	w := serve(http.MethodPost, "/api/scheduler/run", "/api/scheduler/run", "7", NewSchedulerHandler(m).RunNow)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSchedulerHandler_RecentRuns(t *testing.T) {
	m := &mockScheduler{}
	m.On("RecentRuns", mock.Anything, 5).Return([]model.TickReport{{ID: "a", StartedAt: time.Now()}}, nil)

	h := NewSchedulerHandler(m)
	w := serve(http.MethodGet, "/api/scheduler/runs", "/api/scheduler/runs?limit=5", "7", h.RecentRuns)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodGet, "/api/scheduler/runs", "/api/scheduler/runs?limit=0", "7", h.RecentRuns)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.On("RecentRuns", mock.Anything, usecase.MaxRecentRuns).Return([]model.TickReport{}, nil).Once()
	w = serve(http.MethodGet, "/api/scheduler/runs", fmt.Sprintf("/api/scheduler/runs?limit=%d", usecase.MaxRecentRuns), "7", h.RecentRuns)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodGet, "/api/scheduler/runs", fmt.Sprintf("/api/scheduler/runs?limit=%d", usecase.MaxRecentRuns+1), "7", h.RecentRuns)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.AssertExpectations(t)
}

func TestSchedulerHandler_ScheduleStats(t *testing.T) {
	m := &mockScheduler{}
	m.On("ScheduleStats", mock.Anything, int64(7), int64(3)).Return(&dto.ScheduleStats{ScheduleID: 3, RemainingToday: 2}, nil)
	m.On("ScheduleStats", mock.Anything, int64(7), int64(4)).Return(nil, fmt.Errorf("schedule 4: %w", model.ErrNotFound))

	h := NewSchedulerHandler(m)
	w := serve(http.MethodGet, "/api/schedules/:id/stats", "/api/schedules/3/stats", "7", h.ScheduleStats)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"remaining_today":2`)

	w = serve(http.MethodGet, "/api/schedules/:id/stats", "/api/schedules/4/stats", "7", h.ScheduleStats)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(http.MethodGet, "/api/schedules/:id/stats", "/api/schedules/abc/stats", "7", h.ScheduleStats)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodGet, "/api/schedules/:id/stats", "/api/schedules/3/stats", "", h.ScheduleStats)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountHandler_RefreshAccountMapsErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: nil, status: http.StatusOK},
		{err: fmt.Errorf("%w: no refresh token", model.ErrTokenUnavailable), status: http.StatusConflict},
		{err: fmt.Errorf("%w: invalid_grant", model.ErrUpstreamRejected), status: http.StatusBadGateway},
		{err: fmt.Errorf("%w: timeout", model.ErrTransientIO), status: http.StatusServiceUnavailable},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		refresh := &mockTokenRefresh{}
		if tt.err == nil {
			refresh.On("RefreshAccount", mock.Anything, int64(7), int64(11)).Return(&model.Account{ID: 11, UserID: 7}, nil)
		} else {
			refresh.On("RefreshAccount", mock.Anything, int64(7), int64(11)).Return(nil, tt.err)
		}
		h := NewAccountHandler(refresh, &mockConnect{})
		w := serve(http.MethodPost, "/api/accounts/:id/refresh", "/api/accounts/11/refresh", "7", h.RefreshAccount)
		assert.Equal(t, tt.status, w.Code, "error %v", tt.err)
	}
}

func TestAccountHandler_TestAccount(t *testing.T) {
	refresh := &mockTokenRefresh{}
	refresh.On("TestAccount", mock.Anything, int64(7), int64(11)).
		Return(&dto.AccountTestResult{AccountID: 11, Connected: true, Refreshed: true}, nil)

	w := serve(http.MethodPost, "/api/accounts/:id/test", "/api/accounts/11/test", "7", NewAccountHandler(refresh, &mockConnect{}).TestAccount)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"connected":true`)
}

func TestAccountHandler_OAuthURL(t *testing.T) {
	connect := &mockConnect{}
	connect.On("AuthURL", int64(7), "tiktok").Return(&dto.OAuthURLResponse{URL: "https://www.tiktok.com/v2/auth/authorize/?state=s", State: "s"}, nil)
	connect.On("AuthURL", int64(7), "myspace").Return(nil, fmt.Errorf("%w: platform %q does not support connect", model.ErrConfigurationGap, "myspace"))

	h := NewAccountHandler(&mockTokenRefresh{}, connect)
	w := serve(http.MethodGet, "/api/accounts/oauth/url", "/api/accounts/oauth/url", "7", h.OAuthURL)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"s"`)

	w = serve(http.MethodGet, "/api/accounts/oauth/url", "/api/accounts/oauth/url?platform=myspace", "7", h.OAuthURL)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAccountHandler_OAuthCallback(t *testing.T) {
	connect := &mockConnect{}
	connect.On("CompleteConnect", mock.Anything, "st", "cd").Return(&model.Account{ID: 42, UserID: 7, Platform: "tiktok"}, nil)

	h := NewAccountHandler(&mockTokenRefresh{}, connect)
	w := serve(http.MethodGet, "/auth/:platform/callback", "/auth/tiktok/callback?code=cd&state=st", "", h.OAuthCallback)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":42`)

	w = serve(http.MethodGet, "/auth/:platform/callback", "/auth/tiktok/callback?error=access_denied", "", h.OAuthCallback)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).ResponseMessage, "access_denied")

	w = serve(http.MethodGet, "/auth/:platform/callback", "/auth/tiktok/callback?code=cd", "", h.OAuthCallback)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	connect.AssertNumberOfCalls(t, "CompleteConnect", 1)
}

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	w := serve(http.MethodGet, "/healthz", "/healthz", "", NewHealthHandler(stubPinger{}).Healthz)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(http.MethodGet, "/healthz", "/healthz", "", NewHealthHandler(stubPinger{err: errors.New("down")}).Healthz)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(http.MethodGet, "/healthz", "/healthz", "", NewHealthHandler(nil).Healthz)
	assert.Equal(t, http.StatusOK, w.Code)
}
