package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var schedulerSchema = []string{
	`CREATE TABLE IF NOT EXISTS videos (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  category_id BIGINT NULL,
  title TEXT NOT NULL,
  description TEXT NULL,
  hashtags TEXT NULL,
  file_path TEXT NOT NULL,
  status VARCHAR(20) NOT NULL DEFAULT 'pending',
  priority INTEGER NOT NULL DEFAULT 0,
  publish_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_pending ON videos (user_id, status, priority DESC, created_at)`,
	`CREATE TABLE IF NOT EXISTS platform_accounts (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  platform VARCHAR(20) NOT NULL DEFAULT 'tiktok',
  account_name TEXT NOT NULL,
  external_user_id VARCHAR(255) NOT NULL DEFAULT '',
  access_token TEXT NULL,
  refresh_token TEXT NULL,
  token_expires_at TIMESTAMPTZ NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  last_publish_at TIMESTAMPTZ NULL,
  error_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  UNIQUE (user_id, platform, external_user_id)
)`,
	`CREATE TABLE IF NOT EXISTS publish_schedules (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  category_id BIGINT NULL,
  name TEXT NOT NULL,
  days INTEGER[] NOT NULL DEFAULT '{}',
  hours INTEGER[] NOT NULL DEFAULT '{}',
  minutes INTEGER[] NOT NULL DEFAULT '{}',
  max_posts_per_day INTEGER NOT NULL DEFAULT 3,
  max_posts_per_hour INTEGER NOT NULL DEFAULT 1,
  min_interval_minutes INTEGER NOT NULL DEFAULT 60,
  account_ids BIGINT[] NOT NULL DEFAULT '{}',
  account_rotation VARCHAR(20) NOT NULL DEFAULT 'round_robin',
  priority INTEGER NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
  last_processed_at TIMESTAMPTZ NULL,
  total_published INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS publish_logs (
  id BIGSERIAL PRIMARY KEY,
  video_id BIGINT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
  account_id BIGINT NOT NULL,
  external_video_id VARCHAR(255) NULL,
  status VARCHAR(20) NOT NULL,
  response JSONB NULL,
  error TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_publish_logs_status_created ON publish_logs (status, created_at)`,
}

// EnsureSchedulerSchema creates the scheduler tables in PostgreSQL when missing.
func EnsureSchedulerSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i, stmt := range schedulerSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure scheduler schema step %d: %w", i+1, err)
		}
	}
	return nil
}
