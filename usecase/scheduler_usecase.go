package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"

	"github.com/google/uuid"
)

type ISchedulerUsecase interface {
	RunTick(ctx context.Context) (*model.TickReport, error)
	ScheduleStats(ctx context.Context, userID, scheduleID int64) (*dto.ScheduleStats, error)
	RecentRuns(ctx context.Context, limit int) ([]model.TickReport, error)
}

const (
	DefaultRecentRuns = 20
	MaxRecentRuns     = 200
)

type SchedulerOptions struct {
	FallbackBatchSize int
	LockTTL           time.Duration
	// RunGuard serializes ticks in this process; shared with the token refresh pass.
	RunGuard *RunGuard
	// TickLock, when set, makes RunTick skip while another replica holds the lock.
	TickLock repository.ITickLock
	Reports  repository.ITickReport
}

type schedulerUsecase struct {
	schedules repository.ISchedule
	videos    repository.IVideo
	limiter   IRateLimiter
	selector  ICandidateSelector
	accounts  IAccountSelector
	executor  IPublishExecutor
	clock     Clock
	opts      SchedulerOptions
}

func NewSchedulerUsecase(
	schedules repository.ISchedule,
	videos repository.IVideo,
	limiter IRateLimiter,
	selector ICandidateSelector,
	accounts IAccountSelector,
	executor IPublishExecutor,
	clock Clock,
	opts SchedulerOptions,
) ISchedulerUsecase {
	if opts.FallbackBatchSize <= 0 {
		opts.FallbackBatchSize = 5
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 9 * time.Minute
	}
	if opts.RunGuard == nil {
		opts.RunGuard = NewRunGuard()
	}
	return &schedulerUsecase{
		schedules: schedules,
		videos:    videos,
		limiter:   limiter,
		selector:  selector,
		accounts:  accounts,
		executor:  executor,
		clock:     clock,
		opts:      opts,
	}
}

func (u *schedulerUsecase) RunTick(ctx context.Context) (*model.TickReport, error) {
	now := u.clock.Now()
	report := &model.TickReport{ID: uuid.NewString(), StartedAt: now}
	lg := logger.GetLogger().WithField("tick_id", report.ID)

	releaseGuard, ok := u.opts.RunGuard.TryAcquire()
	if !ok {
		lg.Info("tick or token refresh already running in this process, skipping")
		report.Skipped = true
		report.FinishedAt = u.clock.Now()
		return report, nil
	}
	defer releaseGuard()

	if u.opts.TickLock != nil {
		release, ok, err := u.opts.TickLock.Acquire(ctx, u.opts.LockTTL)
		switch {
		case err != nil:
			lg.WithField("error", err).Warn("tick lock unavailable, relying on the in-process guard")
		case !ok:
			lg.Info("tick already running elsewhere, skipping")
			report.Skipped = true
			report.FinishedAt = u.clock.Now()
			return report, nil
		default:
			defer release(context.WithoutCancel(ctx))
		}
	}

	schedules, err := u.schedules.FindActiveSchedules(ctx)
	if err != nil {
		report.Error = err.Error()
		report.FinishedAt = u.clock.Now()
		u.saveReport(ctx, report)
		return report, fmt.Errorf("load active schedules: %w", err)
	}
	sort.SliceStable(schedules, func(i, j int) bool { return schedules[i].Priority > schedules[j].Priority })

	claims := tickClaims{}
	for i := range schedules {
		if ctx.Err() != nil {
			break
		}
		outcome := u.runSchedule(ctx, &schedules[i], now, claims)
		report.Schedules = append(report.Schedules, outcome)
	}

	if ctx.Err() == nil {
		report.Fallback = u.runFallback(ctx, now, claims)
	}

	report.FinishedAt = u.clock.Now()
	u.saveReport(ctx, report)
	lg.WithField("schedules", len(report.Schedules)).
		WithField("fallback_published", report.Fallback.Published).
		WithField("duration", report.FinishedAt.Sub(report.StartedAt).String()).
		Info("scheduler tick finished")
	return report, ctx.Err()
}

func (u *schedulerUsecase) runSchedule(ctx context.Context, s *model.Schedule, now time.Time, claims tickClaims) (out model.ScheduleOutcome) {
	out.ScheduleID = s.ID
	lg := logger.GetLogger().WithField("schedule_id", s.ID)
	defer func() {
		if r := recover(); r != nil {
			lg.WithField("panic", r).Error("schedule processing panicked")
			out.Verdict = model.VerdictError
			out.Error = fmt.Sprint(r)
		}
	}()

	if err := ValidateSchedule(s); err != nil {
		lg.WithField("error", err).Warn("skipping invalid schedule")
		out.Verdict = model.VerdictInvalid
		out.Error = err.Error()
		return out
	}

	if e := Evaluate(s, now); !e.Due {
		out.Verdict = model.VerdictNotDue
		out.Reason = e.Reason
		return out
	}

	quota, err := u.limiter.Remaining(ctx, s, now)
	if err != nil {
		lg.WithField("error", err).Error("rate limit check failed")
		out.Verdict = model.VerdictError
		out.Error = err.Error()
		return out
	}
	if !quota.Allows() {
		out.Verdict = model.VerdictRateLimited
		return out
	}

	candidates, err := u.selector.FetchCandidates(ctx, s, now, quota.Capacity())
	if err != nil {
		lg.WithField("error", err).Error("fetching candidates failed")
		out.Verdict = model.VerdictError
		out.Error = err.Error()
		return out
	}
	if len(candidates) == 0 {
		out.Verdict = model.VerdictNoCandidates
		return out
	}

	out.Verdict = model.VerdictProcessed
	state := s.State
	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		video := &candidates[i]
		account, err := u.accounts.SelectAccount(ctx, PoolForSchedule(s), claims.heldByOthers(s.ID))
		if err != nil {
			lg.WithField("error", err).Error("account selection failed")
			out.Verdict = model.VerdictError
			out.Error = err.Error()
			return out
		}
		if account == nil {
			lg.WithField("video_id", video.ID).Debug("no eligible account, video left pending")
			out.Skipped++
			continue
		}
		claims.claim(account.ID, s.ID)

		ok, err := u.executor.Publish(ctx, video, account, &s.ID)
		if err != nil {
			lg.WithField("video_id", video.ID).WithField("error", err).Error("recording publish outcome failed")
		}
		if !ok {
			out.Failed++
			continue
		}
		out.Published++
		state = state.Advance(now)
		if err := u.schedules.UpdateScheduleState(ctx, s.ID, state); err != nil {
			lg.WithField("error", err).Error("persisting schedule state failed")
		}
		s.State = state
	}
	return out
}

// runFallback publishes pending videos that no active schedule covers, ignoring rate limits.
func (u *schedulerUsecase) runFallback(ctx context.Context, now time.Time, claims tickClaims) (out model.FallbackOutcome) {
	lg := logger.GetLogger().WithField("pass", "fallback")
	videos, err := u.videos.FindUnscheduledVideos(ctx, now, u.opts.FallbackBatchSize)
	if err != nil {
		lg.WithField("error", err).Error("loading unscheduled videos failed")
		return out
	}
	out.Considered = len(videos)
	for i := range videos {
		if ctx.Err() != nil {
			break
		}
		video := &videos[i]
		account, err := u.accounts.SelectAccount(ctx, AccountPool{UserID: video.UserID, Rotation: model.RotationRoundRobin}, claims.heldByOthers(fallbackOwner))
		if err != nil {
			lg.WithField("video_id", video.ID).WithField("error", err).Error("account selection failed")
			out.Skipped++
			continue
		}
		if account == nil {
			out.Skipped++
			continue
		}
		claims.claim(account.ID, fallbackOwner)
		ok, err := u.executor.Publish(ctx, video, account, nil)
		if err != nil {
			lg.WithField("video_id", video.ID).WithField("error", err).Error("recording publish outcome failed")
		}
		if ok {
			out.Published++
		} else {
			out.Failed++
		}
	}
	return out
}

func (u *schedulerUsecase) saveReport(ctx context.Context, report *model.TickReport) {
	if u.opts.Reports == nil {
		return
	}
	if err := u.opts.Reports.SaveTickReport(context.WithoutCancel(ctx), report); err != nil {
		logger.GetLogger().WithField("tick_id", report.ID).WithField("error", err).Warn("saving tick report failed")
	}
}

func (u *schedulerUsecase) ScheduleStats(ctx context.Context, userID, scheduleID int64) (*dto.ScheduleStats, error) {
	s, err := u.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, model.ErrNotFound
	}
	now := u.clock.Now()
	quota, err := u.limiter.Remaining(ctx, s, now)
	if err != nil && !errors.Is(err, model.ErrConfigurationGap) {
		return nil, err
	}
	e := Evaluate(s, now)
	return &dto.ScheduleStats{
		ScheduleID:      s.ID,
		Name:            s.Name,
		IsActive:        s.IsActive,
		TotalPublished:  s.State.TotalPublished,
		LastProcessedAt: s.State.LastProcessedAt,
		TodayCount:      quota.Today,
		HourCount:       quota.Hour,
		RemainingToday:  quota.RemainingToday,
		RemainingHour:   quota.RemainingHour,
		DueNow:          s.IsActive && e.Due,
		DueReason:       e.Reason,
	}, nil
}

func (u *schedulerUsecase) RecentRuns(ctx context.Context, limit int) ([]model.TickReport, error) {
	if u.opts.Reports == nil {
		return []model.TickReport{}, nil
	}
	if limit <= 0 {
		limit = DefaultRecentRuns
	}
	limit = min(limit, MaxRecentRuns)
	return u.opts.Reports.ListTickReports(ctx, limit)
}
