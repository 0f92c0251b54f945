package usecase

import (
	"context"
	"fmt"
	"time"

	"content-scheduler/domain/dto"
	"content-scheduler/domain/model"
	"content-scheduler/domain/repository"
	"content-scheduler/infrastructure/logger"
	"content-scheduler/infrastructure/utils"

	"github.com/golang-jwt/jwt"
)

type IAccountConnectUsecase interface {
	AuthURL(userID int64, platform string) (*dto.OAuthURLResponse, error)
	CompleteConnect(ctx context.Context, state, code string) (*model.Account, error)
}

type accountConnectUsecase struct {
	accounts   repository.IAccount
	publishers Publishers
	clock      Clock
	secretKey  string
	stateTTL   time.Duration
}

func NewAccountConnectUsecase(accounts repository.IAccount, publishers Publishers, clock Clock, secretKey string) IAccountConnectUsecase {
	return &accountConnectUsecase{
		accounts:   accounts,
		publishers: publishers,
		clock:      clock,
		secretKey:  secretKey,
		stateTTL:   10 * time.Minute,
	}
}

func (u *accountConnectUsecase) AuthURL(userID int64, platform string) (*dto.OAuthURLResponse, error) {
	connector, ok := u.publishers.Connector(platform)
	if !ok {
		return nil, fmt.Errorf("%w: platform %q does not support connect", model.ErrConfigurationGap, platform)
	}
	now := u.clock.Now()
	state, err := utils.GenerateToken(map[string]interface{}{
		"uid":      userID,
		"platform": platform,
		"iat":      now.Unix(),
		"exp":      now.Add(u.stateTTL).Unix(),
		"aud":      model.OAuthStateAudience,
	}, u.secretKey)
	if err != nil {
		return nil, err
	}
	return &dto.OAuthURLResponse{URL: connector.AuthURL(state), State: state}, nil
}

func (u *accountConnectUsecase) parseState(state string) (*model.OAuthStateClaims, error) {
	var claims model.OAuthStateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(u.secretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid oauth state: %v", err)
	}
	if !claims.VerifyAudience(model.OAuthStateAudience, true) || claims.UserID <= 0 {
		return nil, fmt.Errorf("invalid oauth state: not an oauth state token")
	}
	return &claims, nil
}

func (u *accountConnectUsecase) CompleteConnect(ctx context.Context, state, code string) (*model.Account, error) {
	claims, err := u.parseState(state)
	if err != nil {
		return nil, err
	}
	connector, ok := u.publishers.Connector(claims.Platform)
	if !ok {
		return nil, fmt.Errorf("%w: platform %q does not support connect", model.ErrConfigurationGap, claims.Platform)
	}
	grant, err := connector.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	profile, err := connector.FetchProfile(ctx, grant.AccessToken)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	acc := &model.Account{
		UserID:         claims.UserID,
		Platform:       claims.Platform,
		AccountName:    profile.DisplayName,
		ExternalUserID: profile.ExternalUserID,
		AccessToken:    grant.AccessToken,
		RefreshToken:   grant.RefreshToken,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if acc.ExternalUserID == "" {
		acc.ExternalUserID = grant.OpenID
	}
	if grant.ExpiresIn > 0 {
		exp := now.Add(grant.ExpiresIn)
		acc.TokenExpiresAt = &exp
	}
	if err := u.accounts.UpsertConnectedAccount(ctx, acc); err != nil {
		return nil, fmt.Errorf("save connected account: %w", err)
	}
	logger.GetLogger().
		WithField("user_id", acc.UserID).
		WithField("account_id", acc.ID).
		WithField("platform", acc.Platform).
		Info("account connected")
	return acc, nil
}
