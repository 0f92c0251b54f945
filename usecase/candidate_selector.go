package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

type ICandidateSelector interface {
	FetchCandidates(ctx context.Context, schedule *model.Schedule, now time.Time, limit int) ([]model.Video, error)
}

type candidateSelector struct {
	videos repository.IVideo
}

func NewCandidateSelector(videos repository.IVideo) ICandidateSelector {
	return &candidateSelector{videos: videos}
}

// FetchCandidates returns at most min(limit, maxPostsPerHour) ready videos, highest priority first
// and oldest first within a priority.
func (c *candidateSelector) FetchCandidates(ctx context.Context, schedule *model.Schedule, now time.Time, limit int) ([]model.Video, error) {
	limit = min(limit, schedule.MaxPostsPerHour)
	if limit <= 0 {
		return nil, nil
	}
	videos, err := c.videos.FindPendingVideos(ctx, model.VideoFilter{
		UserID:     schedule.UserID,
		CategoryID: schedule.CategoryID,
		Now:        now,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find pending videos: %w", err)
	}

	out := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if v.IsCandidate(now) {
			out = append(out, v)
		}
	}
	sortCandidates(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortCandidates(videos []model.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i], videos[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
