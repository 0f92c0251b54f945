package model

import "time"

type Verdict string

const (
	VerdictProcessed    Verdict = "processed"
	VerdictNotDue       Verdict = "not_due"
	VerdictRateLimited  Verdict = "rate_limited"
	VerdictNoCandidates Verdict = "no_candidates"
	VerdictInvalid      Verdict = "invalid"
	VerdictError        Verdict = "error"
)

// ScheduleOutcome summarizes one schedule's pass through a tick.
type ScheduleOutcome struct {
	ScheduleID int64   `json:"schedule_id"           bson:"scheduleId"`
	Verdict    Verdict `json:"verdict"               bson:"verdict"`
	Reason     string  `json:"reason,omitempty"      bson:"reason,omitempty"`
	Published  int     `json:"published"             bson:"published"`
	Failed     int     `json:"failed"                bson:"failed"`
	Skipped    int     `json:"skipped"               bson:"skipped"`
	Error      string  `json:"error,omitempty"       bson:"error,omitempty"`
}

type FallbackOutcome struct {
	Considered int `json:"considered" bson:"considered"`
	Published  int `json:"published"  bson:"published"`
	Failed     int `json:"failed"     bson:"failed"`
	Skipped    int `json:"skipped"    bson:"skipped"`
}

// TickReport records what one scheduler tick did.
type TickReport struct {
	ID         string            `json:"id"          bson:"_id"`
	StartedAt  time.Time         `json:"started_at"  bson:"startedAt"`
	FinishedAt time.Time         `json:"finished_at" bson:"finishedAt"`
	Skipped    bool              `json:"skipped"     bson:"skipped"`
	Schedules  []ScheduleOutcome `json:"schedules"   bson:"schedules"`
	Fallback   FallbackOutcome   `json:"fallback"    bson:"fallback"`
	Error      string            `json:"error,omitempty" bson:"error,omitempty"`
}

// PublishEvent is emitted after every publish attempt.
type PublishEvent struct {
	VideoID         int64         `json:"video_id"`
	AccountID       int64         `json:"account_id"`
	UserID          int64         `json:"user_id"`
	ScheduleID      *int64        `json:"schedule_id,omitempty"`
	Platform        string        `json:"platform"`
	Status          PublishStatus `json:"status"`
	ExternalVideoID string        `json:"external_video_id,omitempty"`
	ErrorKind       FailureKind   `json:"error_kind,omitempty"`
	Error           string        `json:"error,omitempty"`
	OccurredAt      time.Time     `json:"occurred_at"`
}
