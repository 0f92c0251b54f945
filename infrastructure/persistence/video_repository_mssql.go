package persistence

import (
	"context"
	"database/sql"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

type videoRepositoryMSSQL struct {
	db *sql.DB
}

func NewVideoRepositoryMSSQL(db *sql.DB) repository.IVideo {
	return &videoRepositoryMSSQL{db: db}
}

func (r *videoRepositoryMSSQL) FindPendingVideos(ctx context.Context, filter model.VideoFilter) ([]model.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p4) `+videoColumns+`
FROM dbo.[videos]
WHERE user_id = @p1
  AND status = 'pending'
  AND (publish_at IS NULL OR publish_at <= @p2)
  AND (@p3 IS NULL OR category_id = @p3)
ORDER BY priority DESC, created_at ASC, id ASC`, filter.UserID, filter.Now, nullable(filter.CategoryID), filter.Limit)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

func (r *videoRepositoryMSSQL) FindUnscheduledVideos(ctx context.Context, now time.Time, limit int) ([]model.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT TOP (@p2) v.id, v.user_id, v.category_id, v.title, v.description, v.hashtags, v.file_path, v.status, v.priority, v.publish_at, v.created_at
FROM dbo.[videos] v
WHERE v.status = 'pending'
  AND (v.publish_at IS NULL OR v.publish_at <= @p1)
  AND NOT EXISTS (
    SELECT 1 FROM dbo.[publish_schedules] s
    WHERE s.is_active = 1
      AND s.user_id = v.user_id
      AND (s.category_id IS NULL OR s.category_id = v.category_id)
  )
ORDER BY v.priority DESC, v.created_at ASC, v.id ASC`, now, limit)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

func (r *videoRepositoryMSSQL) UpdateVideoStatus(ctx context.Context, id int64, status model.VideoStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[videos] SET status = @p1, updated_at = @p2 WHERE id = @p3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "video", id)
}
