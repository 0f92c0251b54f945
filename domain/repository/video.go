package repository

import (
	"context"
	"time"

	"content-scheduler/domain/model"
)

type IVideo interface {
	// FindPendingVideos returns candidates ordered by priority DESC, created_at ASC.
	FindPendingVideos(ctx context.Context, filter model.VideoFilter) ([]model.Video, error)
	// FindUnscheduledVideos returns candidates not covered by any active schedule of their owner.
	FindUnscheduledVideos(ctx context.Context, now time.Time, limit int) ([]model.Video, error)
	UpdateVideoStatus(ctx context.Context, id int64, status model.VideoStatus) error
}
