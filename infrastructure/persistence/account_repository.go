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

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.IAccount {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindActiveAccounts(ctx context.Context, userID int64, ids []int64) ([]model.Account, error) {
	if ids == nil {
		ids = []int64{}
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+`
FROM platform_accounts
WHERE user_id = $1
  AND is_active = TRUE
  AND (cardinality($2::BIGINT[]) = 0 OR id = ANY($2::BIGINT[]))
ORDER BY id ASC`, userID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *accountRepository) FindAccountsNeedingRefresh(ctx context.Context, before time.Time) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+`
FROM platform_accounts
WHERE is_active = TRUE
  AND COALESCE(refresh_token, '') <> ''
  AND token_expires_at IS NOT NULL
  AND token_expires_at < $1
ORDER BY token_expires_at ASC`, before)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *accountRepository) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM platform_accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertConnectedAccount reactivates an existing connection for the same platform identity.
func (r *accountRepository) UpsertConnectedAccount(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, `INSERT INTO platform_accounts
  (user_id, platform, account_name, external_user_id, access_token, refresh_token, token_expires_at, is_active, error_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, 0, $8, $8)
ON CONFLICT (user_id, platform, external_user_id) DO UPDATE SET
  account_name = EXCLUDED.account_name,
  access_token = EXCLUDED.access_token,
  refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), platform_accounts.refresh_token),
  token_expires_at = EXCLUDED.token_expires_at,
  is_active = TRUE,
  error_count = 0,
  last_error = NULL,
  updated_at = EXCLUDED.updated_at
RETURNING id`,
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

func (r *accountRepository) UpdateAccountToken(ctx context.Context, account *model.Account) error {
	res, err := r.db.ExecContext(ctx, `UPDATE platform_accounts
SET access_token = $1, refresh_token = $2, token_expires_at = $3, error_count = $4, last_error = $5, updated_at = $6
WHERE id = $7`,
		account.AccessToken, account.RefreshToken, nullable(account.TokenExpiresAt),
		account.ErrorCount, nullable(account.LastError), time.Now().UTC(), account.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, "account", account.ID)
}

func (r *accountRepository) UpdateAccountPublishState(ctx context.Context, id int64, state model.AccountPublishState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE platform_accounts
SET last_publish_at = $1, error_count = $2, last_error = $3, is_active = $4, updated_at = $5
WHERE id = $6`,
		nullable(state.LastPublishAt), state.ErrorCount, nullable(state.LastError), state.IsActive, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectAffected(res, "account", id)
}

func collectAccounts(rows *sql.Rows) ([]model.Account, error) {
	defer rows.Close()
	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
