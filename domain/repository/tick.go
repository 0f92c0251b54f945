package repository

import (
	"context"
	"time"

	"content-scheduler/domain/model"
)

// ITickLock guards a tick against concurrent runs on other replicas.
type ITickLock interface {
	Acquire(ctx context.Context, ttl time.Duration) (release func(context.Context), ok bool, err error)
}

type ITickReport interface {
	SaveTickReport(ctx context.Context, report *model.TickReport) error
	ListTickReports(ctx context.Context, limit int) ([]model.TickReport, error)
}

// IPublishEvents receives publish outcomes for fan-out to subscribers.
type IPublishEvents interface {
	PublishEvent(ctx context.Context, event model.PublishEvent) error
}
