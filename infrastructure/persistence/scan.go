package persistence

import (
	"database/sql"
	"encoding/json"
	"time"

	"content-scheduler/domain/model"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const videoColumns = `id, user_id, category_id, title, description, hashtags, file_path, status, priority, publish_at, created_at`

const accountColumns = `id, user_id, platform, account_name, external_user_id, access_token, refresh_token, token_expires_at, is_active, last_publish_at, error_count, last_error, created_at, updated_at`

func scanVideo(row rowScanner) (model.Video, error) {
	var (
		v          model.Video
		categoryID sql.NullInt64
		desc, tags sql.NullString
		publishAt  sql.NullTime
		status     string
	)
	if err := row.Scan(&v.ID, &v.UserID, &categoryID, &v.Title, &desc, &tags, &v.FilePath, &status, &v.Priority, &publishAt, &v.CreatedAt); err != nil {
		return v, err
	}
	v.CategoryID = int64Ptr(categoryID)
	v.Description = desc.String
	v.Hashtags = tags.String
	v.Status = model.VideoStatus(status)
	v.PublishAt = timePtr(publishAt)
	return v, nil
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		a                        model.Account
		platform, externalUserID sql.NullString
		access, refresh          sql.NullString
		expiresAt, lastPublish   sql.NullTime
		lastError                sql.NullString
	)
	if err := row.Scan(&a.ID, &a.UserID, &platform, &a.AccountName, &externalUserID, &access, &refresh, &expiresAt, &a.IsActive, &lastPublish, &a.ErrorCount, &lastError, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return a, err
	}
	a.Platform = platform.String
	a.ExternalUserID = externalUserID.String
	a.AccessToken = access.String
	a.RefreshToken = refresh.String
	a.TokenExpiresAt = timePtr(expiresAt)
	a.LastPublishAt = timePtr(lastPublish)
	if lastError.Valid {
		a.LastError = &lastError.String
	}
	return a, nil
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// nullable converts optional values to database NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableJSON passes JSON as text so both jsonb and NVARCHAR columns accept it.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// jsonInts encodes ints for columns stored as JSON text.
func jsonInts[T int | int64](values []T) string {
	if len(values) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func parseJSONInts[T int | int64](s sql.NullString) ([]T, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func int64sToInts(in []int64) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func intsToInt64s(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}
