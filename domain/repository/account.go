package repository

import (
	"context"
	"time"

	"content-scheduler/domain/model"
)

type IAccount interface {
	// FindActiveAccounts returns active accounts of the user; ids, when non-empty, restricts the result.
	FindActiveAccounts(ctx context.Context, userID int64, ids []int64) ([]model.Account, error)
	// FindAccountsNeedingRefresh returns active accounts holding a refresh token that expire before the given instant.
	FindAccountsNeedingRefresh(ctx context.Context, before time.Time) ([]model.Account, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	UpsertConnectedAccount(ctx context.Context, account *model.Account) error
	UpdateAccountToken(ctx context.Context, account *model.Account) error
	UpdateAccountPublishState(ctx context.Context, id int64, state model.AccountPublishState) error
}
