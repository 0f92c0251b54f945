package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"

	"github.com/lib/pq"
)

type scheduleRepository struct {
	db *sql.DB
}

func NewScheduleRepository(db *sql.DB) repository.ISchedule {
	return &scheduleRepository{db: db}
}

const scheduleSelect = `SELECT id, user_id, category_id, name, days, hours, minutes, max_posts_per_day, max_posts_per_hour, min_interval_minutes, account_ids, account_rotation, priority, is_active, timezone, last_processed_at, total_published, created_at, updated_at
FROM publish_schedules`

func scanSchedulePq(row rowScanner) (model.Schedule, error) {
	var (
		s                    model.Schedule
		categoryID           sql.NullInt64
		days, hours, minutes pq.Int64Array
		accountIDs           pq.Int64Array
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
	s.Window = model.TimeWindow{
		Days:    int64sToInts(days),
		Hours:   int64sToInts(hours),
		Minutes: int64sToInts(minutes),
	}
	if len(accountIDs) > 0 {
		s.AccountIDs = []int64(accountIDs)
	}
	s.AccountRotation = model.AccountRotation(rotation.String)
	s.State.LastProcessedAt = timePtr(lastProcessed)
	return s, nil
}

func (r *scheduleRepository) FindActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, scheduleSelect+`
WHERE is_active = TRUE
ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		s, err := scanSchedulePq(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *scheduleRepository) GetSchedule(ctx context.Context, id int64) (*model.Schedule, error) {
	row := r.db.QueryRowContext(ctx, scheduleSelect+`
WHERE id = $1`, id)
	s, err := scanSchedulePq(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepository) UpdateScheduleState(ctx context.Context, id int64, state model.ScheduleState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE publish_schedules
SET last_processed_at = $1, total_published = $2, updated_at = $3
WHERE id = $4`, nullable(state.LastProcessedAt), state.TotalPublished, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "schedule", id)
}

// expectAffected maps an update that matched nothing to ErrNotFound.
func expectAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, model.ErrNotFound)
	}
	return nil
}
