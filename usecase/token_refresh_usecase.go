package usecase

import (
	"context"
	"fmt"
	"time"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"
)

type RefreshSummary struct {
	Checked   int `json:"checked"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

type ITokenRefreshUsecase interface {
	// RefreshExpiring refreshes every active account whose token expires within the lookahead.
	RefreshExpiring(ctx context.Context) (RefreshSummary, error)
	RefreshAccount(ctx context.Context, userID, accountID int64) (*model.Account, error)
	TestAccount(ctx context.Context, userID, accountID int64) (*dto.AccountTestResult, error)
}

type tokenRefreshUsecase struct {
	accounts      repository.IAccount
	guard         ITokenGuard
	publishers    Publishers
	clock         Clock
	lookahead     time.Duration
	maxErrorCount int
	runGuard      *RunGuard
}

// NewTokenRefreshUsecase builds the refresh job. Pass the scheduler's RunGuard so a refresh pass never
// overlaps a tick.
func NewTokenRefreshUsecase(accounts repository.IAccount, guard ITokenGuard, publishers Publishers, clock Clock, lookahead time.Duration, maxErrorCount int, runGuard *RunGuard) ITokenRefreshUsecase {
	if lookahead <= 0 {
		lookahead = 2 * time.Hour
	}
	if maxErrorCount <= 0 {
		maxErrorCount = 5
	}
	if runGuard == nil {
		runGuard = NewRunGuard()
	}
	return &tokenRefreshUsecase{
		accounts:      accounts,
		guard:         guard,
		publishers:    publishers,
		clock:         clock,
		lookahead:     lookahead,
		maxErrorCount: maxErrorCount,
		runGuard:      runGuard,
	}
}

func (u *tokenRefreshUsecase) RefreshExpiring(ctx context.Context) (RefreshSummary, error) {
	var sum RefreshSummary
	release, err := u.runGuard.Acquire(ctx)
	if err != nil {
		return sum, err
	}
	defer release()

	accounts, err := u.accounts.FindAccountsNeedingRefresh(ctx, u.clock.Now().Add(u.lookahead))
	if err != nil {
		return sum, fmt.Errorf("find accounts needing refresh: %w", err)
	}
	sum.Checked = len(accounts)
	for i := range accounts {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		acc := &accounts[i]
		if _, err := u.guard.Refresh(ctx, acc); err != nil {
			sum.Failed++
			u.recordRefreshFailure(ctx, acc, err)
			continue
		}
		sum.Refreshed++
	}
	logger.GetLogger().
		WithField("checked", sum.Checked).
		WithField("refreshed", sum.Refreshed).
		WithField("failed", sum.Failed).
		Info("token refresh pass finished")
	return sum, nil
}

func (u *tokenRefreshUsecase) recordRefreshFailure(ctx context.Context, acc *model.Account, cause error) {
	msg := "Token refresh failed: " + cause.Error()
	errorCount := acc.ErrorCount + 1
	state := model.AccountPublishState{
		LastPublishAt: acc.LastPublishAt,
		ErrorCount:    errorCount,
		LastError:     &msg,
		IsActive:      acc.IsActive && errorCount < u.maxErrorCount,
	}
	lg := logger.GetLogger().WithField("account_id", acc.ID).WithField("error", cause)
	if err := u.accounts.UpdateAccountPublishState(ctx, acc.ID, state); err != nil {
		lg.WithField("store_error", err).Error("failed recording token refresh failure")
		return
	}
	lg.WithField("error_count", errorCount).Warn("token refresh failed")
}

func (u *tokenRefreshUsecase) ownedAccount(ctx context.Context, userID, accountID int64) (*model.Account, error) {
	acc, err := u.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.UserID != userID {
		return nil, model.ErrNotFound
	}
	return acc, nil
}

func (u *tokenRefreshUsecase) RefreshAccount(ctx context.Context, userID, accountID int64) (*model.Account, error) {
	acc, err := u.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return u.guard.Refresh(ctx, acc)
}

// TestAccount checks that the account holds a usable token and, where the platform allows it,
// that the token is accepted by the profile endpoint.
func (u *tokenRefreshUsecase) TestAccount(ctx context.Context, userID, accountID int64) (*dto.AccountTestResult, error) {
	acc, err := u.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	res := &dto.AccountTestResult{AccountID: acc.ID}
	valid, err := u.guard.EnsureValidToken(ctx, acc)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Refreshed = valid.AccessToken != acc.AccessToken
	if c, ok := u.publishers.Connector(valid.PlatformOrDefault()); ok {
		if _, err := c.FetchProfile(ctx, valid.AccessToken); err != nil {
			res.Error = err.Error()
			return res, nil
		}
	}
	res.Connected = true
	return res, nil
}
