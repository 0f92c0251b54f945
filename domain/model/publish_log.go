package model

import (
	"encoding/json"
	"time"
)

type PublishStatus string

const (
	PublishSuccess    PublishStatus = "success"
	PublishFailed     PublishStatus = "failed"
	PublishProcessing PublishStatus = "processing"
)

type PublishLog struct {
	ID              int64           `json:"id"`
	VideoID         int64           `json:"video_id"`
	AccountID       int64           `json:"account_id"`
	ExternalVideoID *string         `json:"external_video_id,omitempty"`
	Status          PublishStatus   `json:"status"`
	Response        json.RawMessage `json:"response,omitempty"`
	Error           *string         `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PublishLogFilter counts logs of one status for a user, optionally one category, in [From, To).
// A zero To leaves the window open ended.
type PublishLogFilter struct {
	UserID     int64
	CategoryID *int64
	Status     PublishStatus
	From       time.Time
	To         time.Time
}

type UploadRequest struct {
	FilePath string
	Title    string
	Caption  string
}

type UploadResult struct {
	ExternalVideoID string
	Raw             json.RawMessage
}
