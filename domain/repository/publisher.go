package repository

import (
	"context"

	"content-scheduler/domain/model"
)

// IPublisher is the contract with an external platform. Implementations wrap failures with the
// sentinel errors in the model package.
type IPublisher interface {
	Platform() string
	RefreshToken(ctx context.Context, refreshToken string) (*model.TokenGrant, error)
	UploadVideo(ctx context.Context, accessToken string, req model.UploadRequest) (*model.UploadResult, error)
}

// IPlatformConnector is implemented by publishers that support the OAuth connect flow.
type IPlatformConnector interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*model.TokenGrant, error)
	FetchProfile(ctx context.Context, accessToken string) (*model.PlatformProfile, error)
}
