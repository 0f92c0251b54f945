package repository

import (
	"context"

	"content-scheduler/domain/model"
)

type ISchedule interface {
	// FindActiveSchedules returns active schedules ordered by priority DESC, id ASC.
	FindActiveSchedules(ctx context.Context) ([]model.Schedule, error)
	GetSchedule(ctx context.Context, id int64) (*model.Schedule, error)
	UpdateScheduleState(ctx context.Context, id int64, state model.ScheduleState) error
}
