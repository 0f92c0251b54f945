package usecase

import (
	"context"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"
)

// Notifiers fans a publish event out to every sink. Sink failures are logged and never reach the caller.
type Notifiers []repository.IPublishEvents

func (n Notifiers) PublishEvent(ctx context.Context, event model.PublishEvent) error {
	for _, sink := range n {
		if sink == nil {
			continue
		}
		if err := sink.PublishEvent(ctx, event); err != nil {
			logger.GetLogger().
				WithField("video_id", event.VideoID).
				WithField("status", event.Status).
				WithField("error", err).
				Warn("publish event delivery failed")
		}
	}
	return nil
}
