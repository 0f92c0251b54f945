package persistence

import (
	"context"
	"database/sql"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

type publishLogRepository struct {
	db *sql.DB
}

func NewPublishLogRepository(db *sql.DB) repository.IPublishLog {
	return &publishLogRepository{db: db}
}

func (r *publishLogRepository) InsertPublishLog(ctx context.Context, log *model.PublishLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx, `INSERT INTO publish_logs (video_id, account_id, external_video_id, status, response, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		log.VideoID, log.AccountID, nullable(log.ExternalVideoID), string(log.Status),
		nullableJSON(log.Response), nullable(log.Error), log.CreatedAt,
	).Scan(&log.ID)
}

// CountPublishLogs scopes logs to a user through the video they belong to.
func (r *publishLogRepository) CountPublishLogs(ctx context.Context, filter model.PublishLogFilter) (int, error) {
	stmt, err := r.db.PrepareContext(ctx, `SELECT COUNT(*)
FROM publish_logs pl
JOIN videos v ON v.id = pl.video_id
WHERE v.user_id = $1
  AND pl.status = $2
  AND pl.created_at >= $3
  AND ($4::TIMESTAMPTZ IS NULL OR pl.created_at < $4)
  AND ($5::BIGINT IS NULL OR v.category_id = $5)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var count int
	err = stmt.QueryRowContext(ctx, filter.UserID, string(filter.Status), filter.From,
		nullableTime(filter.To), nullable(filter.CategoryID)).Scan(&count)
	return count, err
}
