package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/usecase"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountConnect_RoundTrip(t *testing.T) {
	store := newMemStore()
	conn := mockConnector{newMockPublisher("tiktok")}
	conn.On("ExchangeCode", mock.Anything, "auth-code").
		Return(&model.TokenGrant{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 24 * time.Hour, OpenID: "open-1"}, nil)
	conn.On("FetchProfile", mock.Anything, "at").
		Return(&model.PlatformProfile{DisplayName: "creator"}, nil)
	uc := usecase.NewAccountConnectUsecase(store, usecase.NewPublishers(conn), usecase.NewSystemClock(), "s3cret")

	res, err := uc.AuthURL(7, "tiktok")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.URL, "state="+res.State))

	acc, err := uc.CompleteConnect(context.Background(), res.State, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, int64(7), acc.UserID)
	assert.Equal(t, "open-1", acc.ExternalUserID)
	assert.Equal(t, "creator", acc.AccountName)
	assert.True(t, acc.IsActive)
	assert.NotNil(t, acc.TokenExpiresAt)

	stored := store.account(acc.ID)
	assert.Equal(t, "rt", stored.RefreshToken)
}

func TestAccountConnect_RejectsForeignState(t *testing.T) {
	conn := mockConnector{newMockPublisher("tiktok")}
	other := usecase.NewAccountConnectUsecase(newMemStore(), usecase.NewPublishers(conn), usecase.NewSystemClock(), "other-secret")
	res, err := other.AuthURL(7, "tiktok")
	require.NoError(t, err)

	uc := usecase.NewAccountConnectUsecase(newMemStore(), usecase.NewPublishers(conn), usecase.NewSystemClock(), "s3cret")
	_, err = uc.CompleteConnect(context.Background(), res.State, "auth-code")
	require.Error(t, err)
	conn.AssertNotCalled(t, "ExchangeCode", mock.Anything, mock.Anything)
}

func TestAccountConnect_UnknownPlatform(t *testing.T) {
	uc := usecase.NewAccountConnectUsecase(newMemStore(), usecase.NewPublishers(), usecase.NewSystemClock(), "s3cret")
	_, err := uc.AuthURL(7, "tiktok")
	require.ErrorIs(t, err, model.ErrConfigurationGap)
}

func TestAccountConnect_StateCarriesOnlyConnectClaims(t *testing.T) {
	conn := mockConnector{newMockPublisher("tiktok")}
	uc := usecase.NewAccountConnectUsecase(newMemStore(), usecase.NewPublishers(conn), usecase.NewSystemClock(), "s3cret")
	res, err := uc.AuthURL(42, "tiktok")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.State, claims, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
	require.NoError(t, err)
	assert.NotContains(t, claims, "iss")
	assert.Equal(t, model.OAuthStateAudience, claims["aud"])
	assert.EqualValues(t, 42, claims["uid"])
}

func TestAccountConnect_RejectsStateWithoutAudience(t *testing.T) {
	conn := mockConnector{newMockPublisher("tiktok")}
	uc := usecase.NewAccountConnectUsecase(newMemStore(), usecase.NewPublishers(conn), usecase.NewSystemClock(), "s3cret")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":      7,
		"platform": "tiktok",
		"iss":      "7",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = uc.CompleteConnect(context.Background(), forged, "auth-code")
	require.Error(t, err)
	conn.AssertNotCalled(t, "ExchangeCode", mock.Anything, mock.Anything)
}
