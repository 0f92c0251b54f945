package usecase

import (
	"slices"
	"time"

	"content-scheduler/domain/model"
)

const (
	ReasonDue             = "due"
	ReasonInvalidTimezone = "invalid_timezone"
	ReasonDayExcluded     = "day_excluded"
	ReasonHourExcluded    = "hour_excluded"
	ReasonMinuteExcluded  = "minute_excluded"
	ReasonMinInterval     = "min_interval"
)

type Eligibility struct {
	Due    bool   `json:"due"`
	Reason string `json:"reason"`
}

// Evaluate decides whether schedule is due at now. Windows are matched against the wall clock in the
// schedule's timezone; an empty window field allows any value.
func Evaluate(schedule *model.Schedule, now time.Time) Eligibility {
	loc, err := loadLocation(schedule.Timezone)
	if err != nil {
		return Eligibility{Reason: ReasonInvalidTimezone}
	}
	local := now.In(loc)

	w := schedule.Window
	if len(w.Days) > 0 && !slices.Contains(w.Days, int(local.Weekday())) {
		return Eligibility{Reason: ReasonDayExcluded}
	}
	if len(w.Hours) > 0 && !slices.Contains(w.Hours, local.Hour()) {
		return Eligibility{Reason: ReasonHourExcluded}
	}
	if len(w.Minutes) > 0 && !slices.Contains(w.Minutes, local.Minute()) {
		return Eligibility{Reason: ReasonMinuteExcluded}
	}

	if last := schedule.State.LastProcessedAt; last != nil {
		interval := time.Duration(schedule.MinIntervalMinutes) * time.Minute
		if now.Sub(*last) < interval {
			return Eligibility{Reason: ReasonMinInterval}
		}
	}
	return Eligibility{Due: true, Reason: ReasonDue}
}

func IsDue(schedule *model.Schedule, now time.Time) bool {
	return Evaluate(schedule, now).Due
}
