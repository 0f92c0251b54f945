package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

// scheduleRepositoryMSSQL keeps the window and account arrays as JSON text.
type scheduleRepositoryMSSQL struct {
	db *sql.DB
}

func NewScheduleRepositoryMSSQL(db *sql.DB) repository.ISchedule {
	return &scheduleRepositoryMSSQL{db: db}
}

const scheduleSelectMSSQL = `SELECT id, user_id, category_id, name, days, hours, minutes, max_posts_per_day, max_posts_per_hour, min_interval_minutes, account_ids, account_rotation, priority, is_active, timezone, last_processed_at, total_published, created_at, updated_at
FROM dbo.[publish_schedules]`

func scanScheduleMSSQL(row rowScanner) (model.Schedule, error) {
	var (
		s                    model.Schedule
		categoryID           sql.NullInt64
		days, hours, minutes sql.NullString
		accountIDs           sql.NullString
		rotation             sql.NullString
		lastProcessed        sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &categoryID, &s.Name, &days, &hours, &minutes,
		&s.MaxPostsPerDay, &s.MaxPostsPerHour, &s.MinIntervalMinutes, &accountIDs, &rotation,
		&s.Priority, &s.IsActive, &s.Timezone, &lastProcessed, &s.State.TotalPublished, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return s, err
	}
	s.CategoryID = int64Ptr(categoryID)
	if s.Window.Days, err = parseJSONInts[int](days); err != nil {
		return s, fmt.Errorf("schedule %d days: %w", s.ID, err)
	}
	if s.Window.Hours, err = parseJSONInts[int](hours); err != nil {
		return s, fmt.Errorf("schedule %d hours: %w", s.ID, err)
	}
	if s.Window.Minutes, err = parseJSONInts[int](minutes); err != nil {
		return s, fmt.Errorf("schedule %d minutes: %w", s.ID, err)
	}
	if s.AccountIDs, err = parseJSONInts[int64](accountIDs); err != nil {
		return s, fmt.Errorf("schedule %d account_ids: %w", s.ID, err)
	}
	s.AccountRotation = model.AccountRotation(rotation.String)
	s.State.LastProcessedAt = timePtr(lastProcessed)
	return s, nil
}

func (r *scheduleRepositoryMSSQL) FindActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, scheduleSelectMSSQL+`
WHERE is_active = 1
ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		s, err := scanScheduleMSSQL(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *scheduleRepositoryMSSQL) GetSchedule(ctx context.Context, id int64) (*model.Schedule, error) {
	row := r.db.QueryRowContext(ctx, scheduleSelectMSSQL+`
WHERE id = @p1`, id)
	s, err := scanScheduleMSSQL(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepositoryMSSQL) UpdateScheduleState(ctx context.Context, id int64, state model.ScheduleState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[publish_schedules]
SET last_processed_at = @p1, total_published = @p2, updated_at = @p3
WHERE id = @p4`, nullable(state.LastProcessedAt), state.TotalPublished, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "schedule", id)
}
