package usecase

import (
	"context"
	"fmt"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"
)

type IPublishExecutor interface {
	// Publish makes one attempt to publish video through account. The bool reports whether the
	// platform accepted the video; a non-nil error means the outcome could not be fully recorded.
	Publish(ctx context.Context, video *model.Video, account *model.Account, scheduleID *int64) (bool, error)
}

type ExecutorOptions struct {
	RequestTimeout time.Duration
	// MaxErrorCount is the consecutive failure count at which an account is deactivated.
	MaxErrorCount int
	Notifier      repository.IPublishEvents
}

type publishExecutor struct {
	guard      ITokenGuard
	publishers Publishers
	videos     repository.IVideo
	accounts   repository.IAccount
	logs       repository.IPublishLog
	clock      Clock
	opts       ExecutorOptions
}

func NewPublishExecutor(
	guard ITokenGuard,
	publishers Publishers,
	videos repository.IVideo,
	accounts repository.IAccount,
	logs repository.IPublishLog,
	clock Clock,
	opts ExecutorOptions,
) IPublishExecutor {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxErrorCount <= 0 {
		opts.MaxErrorCount = 5
	}
	return &publishExecutor{
		guard:      guard,
		publishers: publishers,
		videos:     videos,
		accounts:   accounts,
		logs:       logs,
		clock:      clock,
		opts:       opts,
	}
}

func (e *publishExecutor) Publish(ctx context.Context, video *model.Video, account *model.Account, scheduleID *int64) (bool, error) {
	lg := logger.GetLogger().
		WithField("video_id", video.ID).
		WithField("account_id", account.ID)

	acc, err := e.guard.EnsureValidToken(ctx, account)
	if err != nil {
		lg.WithField("error", err).Warn("token unavailable, recording failure")
		return false, e.recordFailure(ctx, video, account, scheduleID, err)
	}

	pub, ok := e.publishers.For(acc.PlatformOrDefault())
	if !ok {
		err := fmt.Errorf("%w: no publisher for platform %s", model.ErrConfigurationGap, acc.PlatformOrDefault())
		return false, e.recordFailure(ctx, video, acc, scheduleID, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	res, err := pub.UploadVideo(callCtx, acc.AccessToken, model.UploadRequest{
		FilePath: video.FilePath,
		Title:    video.Title,
		Caption:  video.Caption(),
	})
	cancel()
	if err != nil {
		lg.WithField("error", err).WithField("kind", model.KindOf(err)).Warn("upload failed")
		return false, e.recordFailure(ctx, video, acc, scheduleID, err)
	}

	lg.WithField("external_video_id", res.ExternalVideoID).Info("video published")
	return true, e.recordSuccess(ctx, video, acc, scheduleID, res)
}

func (e *publishExecutor) recordSuccess(ctx context.Context, video *model.Video, account *model.Account, scheduleID *int64, res *model.UploadResult) error {
	now := e.clock.Now()
	var externalID *string
	if res.ExternalVideoID != "" {
		id := res.ExternalVideoID
		externalID = &id
	}
	if err := e.logs.InsertPublishLog(ctx, &model.PublishLog{
		VideoID:         video.ID,
		AccountID:       account.ID,
		ExternalVideoID: externalID,
		Status:          model.PublishSuccess,
		Response:        res.Raw,
		CreatedAt:       now,
	}); err != nil {
		return fmt.Errorf("insert publish log: %w", err)
	}
	if err := e.videos.UpdateVideoStatus(ctx, video.ID, model.VideoPublished); err != nil {
		return fmt.Errorf("mark video %d published: %w", video.ID, err)
	}
	if err := e.accounts.UpdateAccountPublishState(ctx, account.ID, model.AccountPublishState{
		LastPublishAt: &now,
		ErrorCount:    0,
		LastError:     nil,
		IsActive:      true,
	}); err != nil {
		return fmt.Errorf("update account %d publish state: %w", account.ID, err)
	}

	e.notify(ctx, model.PublishEvent{
		VideoID:         video.ID,
		AccountID:       account.ID,
		UserID:          video.UserID,
		ScheduleID:      scheduleID,
		Platform:        account.PlatformOrDefault(),
		Status:          model.PublishSuccess,
		ExternalVideoID: res.ExternalVideoID,
		OccurredAt:      now,
	})
	return nil
}

func (e *publishExecutor) recordFailure(ctx context.Context, video *model.Video, account *model.Account, scheduleID *int64, cause error) error {
	now := e.clock.Now()
	msg := cause.Error()
	if err := e.logs.InsertPublishLog(ctx, &model.PublishLog{
		VideoID:   video.ID,
		AccountID: account.ID,
		Status:    model.PublishFailed,
		Error:     &msg,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("insert publish log: %w", err)
	}
	if err := e.videos.UpdateVideoStatus(ctx, video.ID, model.VideoFailed); err != nil {
		return fmt.Errorf("mark video %d failed: %w", video.ID, err)
	}

	errorCount := account.ErrorCount + 1
	active := account.IsActive && errorCount < e.opts.MaxErrorCount
	if err := e.accounts.UpdateAccountPublishState(ctx, account.ID, model.AccountPublishState{
		LastPublishAt: account.LastPublishAt,
		ErrorCount:    errorCount,
		LastError:     &msg,
		IsActive:      active,
	}); err != nil {
		return fmt.Errorf("update account %d publish state: %w", account.ID, err)
	}
	if account.IsActive && !active {
		logger.GetLogger().
			WithField("account_id", account.ID).
			WithField("error_count", errorCount).
			Warn("account deactivated after repeated failures")
	}

	e.notify(ctx, model.PublishEvent{
		VideoID:    video.ID,
		AccountID:  account.ID,
		UserID:     video.UserID,
		ScheduleID: scheduleID,
		Platform:   account.PlatformOrDefault(),
		Status:     model.PublishFailed,
		ErrorKind:  model.KindOf(cause),
		Error:      msg,
		OccurredAt: now,
	})
	return nil
}

func (e *publishExecutor) notify(ctx context.Context, event model.PublishEvent) {
	if e.opts.Notifier == nil {
		return
	}
	if err := e.opts.Notifier.PublishEvent(ctx, event); err != nil {
		logger.GetLogger().
			WithField("video_id", event.VideoID).
			WithField("status", event.Status).
			WithField("error", err).
			Warn("publish event delivery failed")
	}
}
