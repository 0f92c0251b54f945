package usecase

import (
	"context"
	"fmt"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

// Quota is a schedule's publish usage against its caps.
type Quota struct {
	Today          int `json:"today"`
	Hour           int `json:"hour"`
	RemainingToday int `json:"remaining_today"`
	RemainingHour  int `json:"remaining_hour"`
}

func (q Quota) Allows() bool { return q.RemainingToday > 0 && q.RemainingHour > 0 }

// Capacity is how many more publishes both caps permit.
func (q Quota) Capacity() int { return max(0, min(q.RemainingToday, q.RemainingHour)) }

type IRateLimiter interface {
	CanPublish(ctx context.Context, schedule *model.Schedule, now time.Time) (bool, error)
	Remaining(ctx context.Context, schedule *model.Schedule, now time.Time) (Quota, error)
}

type rateLimiter struct {
	logs repository.IPublishLog
}

func NewRateLimiter(logs repository.IPublishLog) IRateLimiter {
	return &rateLimiter{logs: logs}
}

func (r *rateLimiter) CanPublish(ctx context.Context, schedule *model.Schedule, now time.Time) (bool, error) {
	q, err := r.Remaining(ctx, schedule, now)
	if err != nil {
		return false, err
	}
	return q.Allows(), nil
}

// Remaining counts successful publishes in the schedule's scope. The day is the local calendar day in
// the schedule's timezone; the hour is the trailing sixty minutes.
func (r *rateLimiter) Remaining(ctx context.Context, schedule *model.Schedule, now time.Time) (Quota, error) {
	loc, err := loadLocation(schedule.Timezone)
	if err != nil {
		return Quota{}, fmt.Errorf("%w: timezone %q: %v", model.ErrConfigurationGap, schedule.Timezone, err)
	}
	dayStart, dayEnd := localMidnight(now, loc)

	today, err := r.logs.CountPublishLogs(ctx, model.PublishLogFilter{
		UserID:     schedule.UserID,
		CategoryID: schedule.CategoryID,
		Status:     model.PublishSuccess,
		From:       dayStart.UTC(),
		To:         dayEnd.UTC(),
	})
	if err != nil {
		return Quota{}, fmt.Errorf("count today's publishes: %w", err)
	}
	hour, err := r.logs.CountPublishLogs(ctx, model.PublishLogFilter{
		UserID:     schedule.UserID,
		CategoryID: schedule.CategoryID,
		Status:     model.PublishSuccess,
		From:       now.Add(-time.Hour).UTC(),
	})
	if err != nil {
		return Quota{}, fmt.Errorf("count last hour's publishes: %w", err)
	}

	return Quota{
		Today:          today,
		Hour:           hour,
		RemainingToday: max(0, schedule.MaxPostsPerDay-today),
		RemainingHour:  max(0, schedule.MaxPostsPerHour-hour),
	}, nil
}
