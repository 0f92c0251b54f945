package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSchedulerSchemaMSSQL creates the scheduler tables in SQL Server/Azure SQL when missing.
func EnsureSchedulerSchemaMSSQL(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createIfMissing := func(table, ddl string) error {
		q := fmt.Sprintf(`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.[%s]') AND type in (N'U'))
BEGIN
%s
END`, table, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure table %s: %w", table, err)
		}
		return nil
	}

	tables := []struct{ name, ddl string }{
		{"videos", `CREATE TABLE dbo.[videos] (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  user_id BIGINT NOT NULL,
  category_id BIGINT NULL,
  title NVARCHAR(500) NOT NULL,
  description NVARCHAR(MAX) NULL,
  hashtags NVARCHAR(1000) NULL,
  file_path NVARCHAR(1000) NOT NULL,
  status NVARCHAR(20) NOT NULL DEFAULT 'pending',
  priority INT NOT NULL DEFAULT 0,
  publish_at DATETIME2 NULL,
  created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
  updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
)`},
		{"platform_accounts", `CREATE TABLE dbo.[platform_accounts] (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  user_id BIGINT NOT NULL,
  platform NVARCHAR(20) NOT NULL DEFAULT 'tiktok',
  account_name NVARCHAR(255) NOT NULL,
  external_user_id NVARCHAR(255) NOT NULL DEFAULT '',
  access_token NVARCHAR(MAX) NULL,
  refresh_token NVARCHAR(MAX) NULL,
  token_expires_at DATETIME2 NULL,
  is_active BIT NOT NULL DEFAULT 1,
  last_publish_at DATETIME2 NULL,
  error_count INT NOT NULL DEFAULT 0,
  last_error NVARCHAR(MAX) NULL,
  created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
  updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
  CONSTRAINT uq_platform_accounts_identity UNIQUE (user_id, platform, external_user_id)
)`},
		{"publish_schedules", `CREATE TABLE dbo.[publish_schedules] (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  user_id BIGINT NOT NULL,
  category_id BIGINT NULL,
  name NVARCHAR(255) NOT NULL,
  days NVARCHAR(100) NOT NULL DEFAULT '[]',
  hours NVARCHAR(200) NOT NULL DEFAULT '[]',
  minutes NVARCHAR(400) NOT NULL DEFAULT '[]',
  max_posts_per_day INT NOT NULL DEFAULT 3,
  max_posts_per_hour INT NOT NULL DEFAULT 1,
  min_interval_minutes INT NOT NULL DEFAULT 60,
  account_ids NVARCHAR(MAX) NOT NULL DEFAULT '[]',
  account_rotation NVARCHAR(20) NOT NULL DEFAULT 'round_robin',
  priority INT NOT NULL DEFAULT 0,
  is_active BIT NOT NULL DEFAULT 1,
  timezone NVARCHAR(64) NOT NULL DEFAULT 'UTC',
  last_processed_at DATETIME2 NULL,
  total_published INT NOT NULL DEFAULT 0,
  created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
  updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
)`},
		{"publish_logs", `CREATE TABLE dbo.[publish_logs] (
  id BIGINT IDENTITY(1,1) PRIMARY KEY,
  video_id BIGINT NOT NULL REFERENCES dbo.[videos](id) ON DELETE CASCADE,
  account_id BIGINT NOT NULL,
  external_video_id NVARCHAR(255) NULL,
  status NVARCHAR(20) NOT NULL,
  response NVARCHAR(MAX) NULL,
  error NVARCHAR(MAX) NULL,
  created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
)`},
	}
	for _, t := range tables {
		if err := createIfMissing(t.name, t.ddl); err != nil {
			return err
		}
	}

	idx := `IF NOT EXISTS (SELECT * FROM sys.indexes WHERE name = 'idx_publish_logs_status_created' AND object_id = OBJECT_ID(N'dbo.[publish_logs]'))
CREATE INDEX idx_publish_logs_status_created ON dbo.[publish_logs] (status, created_at)`
	if _, err := db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("ensure index idx_publish_logs_status_created: %w", err)
	}

	// Columns added after the first release.
	addIfMissing := func(table, column, ddl string) error {
		q := fmt.Sprintf(`IF COL_LENGTH('%s', '%s') IS NULL BEGIN %s END`, table, column, ddl)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure column %s.%s: %w", table, column, err)
		}
		return nil
	}
	return addIfMissing("dbo.platform_accounts", "last_error", "ALTER TABLE dbo.[platform_accounts] ADD last_error NVARCHAR(MAX) NULL")
}
