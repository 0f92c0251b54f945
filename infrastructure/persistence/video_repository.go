package persistence

import (
	"context"
	"database/sql"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
)

type videoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) repository.IVideo {
	return &videoRepository{db: db}
}

func (r *videoRepository) FindPendingVideos(ctx context.Context, filter model.VideoFilter) ([]model.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+`
FROM videos
WHERE user_id = $1
  AND status = 'pending'
  AND (publish_at IS NULL OR publish_at <= $2)
  AND ($3::BIGINT IS NULL OR category_id = $3)
ORDER BY priority DESC, created_at ASC, id ASC
LIMIT $4`, filter.UserID, filter.Now, nullable(filter.CategoryID), filter.Limit)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

// FindUnscheduledVideos skips videos whose owner has an active schedule for their category or for all categories.
func (r *videoRepository) FindUnscheduledVideos(ctx context.Context, now time.Time, limit int) ([]model.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT v.id, v.user_id, v.category_id, v.title, v.description, v.hashtags, v.file_path, v.status, v.priority, v.publish_at, v.created_at
FROM videos v
WHERE v.status = 'pending'
  AND (v.publish_at IS NULL OR v.publish_at <= $1)
  AND NOT EXISTS (
    SELECT 1 FROM publish_schedules s
    WHERE s.is_active = TRUE
      AND s.user_id = v.user_id
      AND (s.category_id IS NULL OR s.category_id = v.category_id)
  )
ORDER BY v.priority DESC, v.created_at ASC, v.id ASC
LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

func (r *videoRepository) UpdateVideoStatus(ctx context.Context, id int64, status model.VideoStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "video", id)
}

func collectVideos(rows *sql.Rows) ([]model.Video, error) {
	defer rows.Close()
	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
