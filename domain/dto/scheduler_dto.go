package dto

import "time"

type ScheduleStats struct {
	ScheduleID      int64      `json:"schedule_id"`
	Name            string     `json:"name"`
	IsActive        bool       `json:"is_active"`
	TotalPublished  int        `json:"total_published"`
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
	TodayCount      int        `json:"today_count"`
	HourCount       int        `json:"hour_count"`
	RemainingToday  int        `json:"remaining_today"`
	RemainingHour   int        `json:"remaining_hour"`
	DueNow          bool       `json:"due_now"`
	DueReason       string     `json:"due_reason,omitempty"`
}

type AccountTestResult struct {
	AccountID int64  `json:"account_id"`
	Connected bool   `json:"connected"`
	Refreshed bool   `json:"refreshed"`
	Error     string `json:"error,omitempty"`
}

type OAuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}
