package repository

import (
	"context"

	"content-scheduler/domain/model"
)

type IPublishLog interface {
	InsertPublishLog(ctx context.Context, log *model.PublishLog) error
	CountPublishLogs(ctx context.Context, filter model.PublishLogFilter) (int, error)
}
