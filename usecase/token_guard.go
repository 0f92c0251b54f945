package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"
)

type ITokenGuard interface {
	// EnsureValidToken returns the account unchanged when its token is not near expiry, otherwise
	// refreshes and persists it. Failures wrap model.ErrTokenUnavailable.
	EnsureValidToken(ctx context.Context, account *model.Account) (*model.Account, error)
	// Refresh refreshes unconditionally.
	Refresh(ctx context.Context, account *model.Account) (*model.Account, error)
}

type tokenGuard struct {
	accounts   repository.IAccount
	publishers Publishers
	clock      Clock
	skew       time.Duration
	timeout    time.Duration

	// mu serializes refreshes so a rotated refresh token is never spent twice.
	mu sync.Mutex
}

func NewTokenGuard(accounts repository.IAccount, publishers Publishers, clock Clock, skew, timeout time.Duration) ITokenGuard {
	if skew <= 0 {
		skew = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &tokenGuard{accounts: accounts, publishers: publishers, clock: clock, skew: skew, timeout: timeout}
}

func (g *tokenGuard) needsRefresh(account *model.Account) bool {
	if account.AccessToken == "" {
		return true
	}
	if account.TokenExpiresAt == nil {
		return false
	}
	return !account.TokenExpiresAt.After(g.clock.Now().Add(g.skew))
}

func (g *tokenGuard) EnsureValidToken(ctx context.Context, account *model.Account) (*model.Account, error) {
	if !g.needsRefresh(account) {
		return account, nil
	}
	return g.Refresh(ctx, account)
}

func (g *tokenGuard) Refresh(ctx context.Context, account *model.Account) (*model.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if stored, err := g.accounts.GetAccount(ctx, account.ID); err == nil &&
		stored.AccessToken != account.AccessToken && !g.needsRefresh(stored) {
		// Refreshed by another caller while this one waited.
		return stored, nil
	}
	if account.RefreshToken == "" {
		return nil, fmt.Errorf("%w: account %d has no refresh token", model.ErrTokenUnavailable, account.ID)
	}
	pub, ok := g.publishers.For(account.PlatformOrDefault())
	if !ok {
		return nil, fmt.Errorf("%w: no publisher for platform %s", model.ErrTokenUnavailable, account.PlatformOrDefault())
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	grant, err := pub.RefreshToken(callCtx, account.RefreshToken)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrTokenUnavailable, err)
	}
	if grant == nil || grant.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in refresh response", model.ErrTokenUnavailable)
	}

	now := g.clock.Now()
	updated := *account
	updated.AccessToken = grant.AccessToken
	if grant.RefreshToken != "" {
		updated.RefreshToken = grant.RefreshToken
	}
	if grant.ExpiresIn > 0 {
		exp := now.Add(grant.ExpiresIn)
		updated.TokenExpiresAt = &exp
	}
	updated.ErrorCount = 0
	updated.LastError = nil
	updated.UpdatedAt = now

	if err := g.accounts.UpdateAccountToken(ctx, &updated); err != nil {
		// The fresh credential is still usable for this attempt.
		logger.GetLogger().
			WithField("account_id", account.ID).
			WithField("error", err).
			Error("failed persisting refreshed token")
	}
	logger.GetLogger().
		WithField("account_id", account.ID).
		WithField("expires_at", updated.TokenExpiresAt).
		Info("access token refreshed")
	return &updated, nil
}
