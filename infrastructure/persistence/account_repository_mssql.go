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

type accountRepositoryMSSQL struct {
	db *sql.DB
}

func NewAccountRepositoryMSSQL(db *sql.DB) repository.IAccount {
	return &accountRepositoryMSSQL{db: db}
}

func (r *accountRepositoryMSSQL) FindActiveAccounts(ctx context.Context, userID int64, ids []int64) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+`
FROM dbo.[platform_accounts]
WHERE user_id = @p1
  AND is_active = 1
  AND (@p2 = '[]' OR id IN (SELECT CAST([value] AS BIGINT) FROM OPENJSON(@p2)))
ORDER BY id ASC`, userID, jsonInts(ids))
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *accountRepositoryMSSQL) FindAccountsNeedingRefresh(ctx context.Context, before time.Time) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+`
FROM dbo.[platform_accounts]
WHERE is_active = 1
  AND ISNULL(refresh_token, '') <> ''
  AND token_expires_at IS NOT NULL
  AND token_expires_at < @p1
ORDER BY token_expires_at ASC`, before)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *accountRepositoryMSSQL) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM dbo.[platform_accounts] WHERE id = @p1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepositoryMSSQL) UpsertConnectedAccount(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	q := `MERGE dbo.[platform_accounts] WITH (HOLDLOCK) AS target
USING (VALUES (@p1, @p2, @p4)) AS src(user_id, platform, external_user_id)
ON target.user_id = src.user_id AND target.platform = src.platform AND target.external_user_id = src.external_user_id
WHEN MATCHED THEN UPDATE SET
  account_name = @p3,
  access_token = @p5,
  refresh_token = CASE WHEN @p6 = '' THEN target.refresh_token ELSE @p6 END,
  token_expires_at = @p7,
  is_active = 1,
  error_count = 0,
  last_error = NULL,
  updated_at = @p8
WHEN NOT MATCHED THEN
  INSERT (user_id, platform, account_name, external_user_id, access_token, refresh_token, token_expires_at, is_active, error_count, created_at, updated_at)
  VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, 1, 0, @p8, @p8)
OUTPUT INSERTED.id;`
	err := r.db.QueryRowContext(ctx, q,
		account.UserID, account.PlatformOrDefault(), account.AccountName, account.ExternalUserID,
		account.AccessToken, account.RefreshToken, nullable(account.TokenExpiresAt), now,
	).Scan(&account.ID)
	if err != nil {
		return err
	}
	account.IsActive = true
	account.ErrorCount = 0
	account.LastError = nil
	account.UpdatedAt = now
	return nil
}

func (r *accountRepositoryMSSQL) UpdateAccountToken(ctx context.Context, account *model.Account) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[platform_accounts]
SET access_token = @p1, refresh_token = @p2, token_expires_at = @p3, error_count = @p4, last_error = @p5, updated_at = @p6
WHERE id = @p7`,
		account.AccessToken, account.RefreshToken, nullable(account.TokenExpiresAt),
		account.ErrorCount, nullable(account.LastError), time.Now().UTC(), account.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, "account", account.ID)
}

func (r *accountRepositoryMSSQL) UpdateAccountPublishState(ctx context.Context, id int64, state model.AccountPublishState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[platform_accounts]
SET last_publish_at = @p1, error_count = @p2, last_error = @p3, is_active = @p4, updated_at = @p5
WHERE id = @p6`,
		nullable(state.LastPublishAt), state.ErrorCount, nullable(state.LastError), state.IsActive, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "account", id)
}
