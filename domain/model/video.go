package model

import (
	"strings"
	"time"
)

type VideoStatus string

const (
	VideoPending   VideoStatus = "pending"
	VideoPublished VideoStatus = "published"
	VideoFailed    VideoStatus = "failed"
	VideoArchived  VideoStatus = "archived"
)

type Video struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	CategoryID  *int64      `json:"category_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Hashtags    string      `json:"hashtags"`
	FilePath    string      `json:"file_path"`
	Status      VideoStatus `json:"status"`
	Priority    int         `json:"priority"`
	PublishAt   *time.Time  `json:"publish_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IsCandidate reports whether the video is pending and its publishAt, if any, has passed.
func (v *Video) IsCandidate(now time.Time) bool {
	if v.Status != VideoPending {
		return false
	}
	return v.PublishAt == nil || !v.PublishAt.After(now)
}

// Caption is the text sent to the platform: description followed by hashtags.
func (v *Video) Caption() string {
	return strings.TrimSpace(v.Description + " " + v.Hashtags)
}

// VideoFilter narrows the pending video lookup for one schedule.
type VideoFilter struct {
	UserID     int64
	CategoryID *int64
	Now        time.Time
	Limit      int
}
