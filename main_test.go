package main

import (
	"context"
	"testing"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/infrastructure/configuration"
	"content-scheduler/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleScheduler struct{}

func (idleScheduler) RunTick(context.Context) (*model.TickReport, error) {
	return &model.TickReport{}, nil
}
func (idleScheduler) ScheduleStats(context.Context, int64, int64) (*dto.ScheduleStats, error) {
	return nil, model.ErrNotFound
}
func (idleScheduler) RecentRuns(context.Context, int) ([]model.TickReport, error) { return nil, nil }

type idleRefresh struct{}

func (idleRefresh) RefreshExpiring(context.Context) (usecase.RefreshSummary, error) {
	return usecase.RefreshSummary{}, nil
}
func (idleRefresh) RefreshAccount(context.Context, int64, int64) (*model.Account, error) {
	return nil, model.ErrNotFound
}
func (idleRefresh) TestAccount(context.Context, int64, int64) (*dto.AccountTestResult, error) {
	return nil, model.ErrNotFound
}

func TestInitiateTrigger(t *testing.T) {
	settings := configuration.Scheduler{
		TickSpec:           "*/10 * * * *",
		TokenRefreshSpec:   "0 * * * *",
		Timezone:           "Asia/Jakarta",
		TickTimeoutSeconds: 60,
	}
	tr, err := InitiateTrigger(settings, idleScheduler{}, idleRefresh{})
	require.NoError(t, err)
	require.NoError(t, tr.Reschedule(tickJob, "*/5 * * * *"))
	assert.Error(t, tr.Reschedule(tokenRefreshJob, "every now and then"))
}

func TestInitiateTrigger_InvalidSpec(t *testing.T) {
	settings := configuration.Scheduler{TickSpec: "bogus", TokenRefreshSpec: "0 * * * *", Timezone: "Mars/Olympus"}
	_, err := InitiateTrigger(settings, idleScheduler{}, idleRefresh{})
	assert.Error(t, err)
}
