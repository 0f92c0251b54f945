package model

import "time"

type AccountRotation string

const (
	RotationRoundRobin AccountRotation = "round_robin"
	RotationRandom     AccountRotation = "random"
	RotationPriority   AccountRotation = "priority"
)

// TimeWindow restricts when a schedule may fire. An empty slice places no restriction on that field.
type TimeWindow struct {
	Days    []int `json:"days"    validate:"dive,min=0,max=6"`
	Hours   []int `json:"hours"   validate:"dive,min=0,max=23"`
	Minutes []int `json:"minutes" validate:"dive,min=0,max=59"`
}

// ScheduleState is the runtime state the orchestrator advances after each successful publish.
type ScheduleState struct {
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
	TotalPublished  int        `json:"total_published"`
}

type Schedule struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	CategoryID         *int64          `json:"category_id,omitempty"`
	Name               string          `json:"name"`
	Window             TimeWindow      `json:"window"`
	MaxPostsPerDay     int             `json:"max_posts_per_day"    validate:"min=1,gtefield=MaxPostsPerHour"`
	MaxPostsPerHour    int             `json:"max_posts_per_hour"   validate:"min=1"`
	MinIntervalMinutes int             `json:"min_interval_minutes" validate:"min=1"`
	AccountIDs         []int64         `json:"account_ids"`
	AccountRotation    AccountRotation `json:"account_rotation"     validate:"omitempty,oneof=round_robin random priority"`
	Priority           int             `json:"priority"`
	IsActive           bool            `json:"is_active"`
	Timezone           string          `json:"timezone"             validate:"required"`
	State              ScheduleState   `json:"state"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Rotation returns the configured strategy, defaulting to round robin.
func (s *Schedule) Rotation() AccountRotation {
	if s.AccountRotation == "" {
		return RotationRoundRobin
	}
	return s.AccountRotation
}

// Advance returns the state after one more successful publish at now.
func (st ScheduleState) Advance(now time.Time) ScheduleState {
	t := now
	return ScheduleState{LastProcessedAt: &t, TotalPublished: st.TotalPublished + 1}
}
