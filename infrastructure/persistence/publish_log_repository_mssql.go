package persistence

import (
	"context"
	"database/sql"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

type publishLogRepositoryMSSQL struct {
	db *sql.DB
}

func NewPublishLogRepositoryMSSQL(db *sql.DB) repository.IPublishLog {
	return &publishLogRepositoryMSSQL{db: db}
}

func (r *publishLogRepositoryMSSQL) InsertPublishLog(ctx context.Context, log *model.PublishLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return r.db.QueryRowContext(ctx, `INSERT INTO dbo.[publish_logs] (video_id, account_id, external_video_id, status, response, error, created_at)
OUTPUT INSERTED.id
VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7)`,
		log.VideoID, log.AccountID, nullable(log.ExternalVideoID), string(log.Status),
		nullableJSON(log.Response), nullable(log.Error), log.CreatedAt,
	).Scan(&log.ID)
}

func (r *publishLogRepositoryMSSQL) CountPublishLogs(ctx context.Context, filter model.PublishLogFilter) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)
FROM dbo.[publish_logs] pl
JOIN dbo.[videos] v ON v.id = pl.video_id
WHERE v.user_id = @p1
  AND pl.status = @p2
  AND pl.created_at >= @p3
  AND (@p4 IS NULL OR pl.created_at < @p4)
  AND (@p5 IS NULL OR v.category_id = @p5)`,
		filter.UserID, string(filter.Status), filter.From, nullableTime(filter.To), nullable(filter.CategoryID),
	).Scan(&count)
	return count, err
}
