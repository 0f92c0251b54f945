package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"content-scheduler/domain/model"

	"github.com/google/go-querystring/query"
	"golang.org/x/oauth2"
)

type tokenRequest struct {
	ClientKey    string `url:"client_key"`
	ClientSecret string `url:"client_secret"`
	GrantType    string `url:"grant_type"`
	Code         string `url:"code,omitempty"`
	RedirectURI  string `url:"redirect_uri,omitempty"`
	RefreshToken string `url:"refresh_token,omitempty"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	OpenID           string `json:"open_id"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Scope            string `json:"scope"`
	TokenType        string `json:"token_type"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	LogID            string `json:"log_id"`
}

func (t *tokenResponse) grant() *model.TokenGrant {
	return &model.TokenGrant{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    time.Duration(t.ExpiresIn) * time.Second,
		OpenID:       t.OpenID,
		Scope:        t.Scope,
	}
}

// AuthURL builds the consent page URL. TikTok expects client_key and comma separated scopes.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("client_key", c.cfg.ClientKey),
		oauth2.SetAuthURLParam("scope", strings.Join(c.cfg.Scopes, ",")),
	)
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.TokenGrant, error) {
	return c.token(ctx, tokenRequest{
		GrantType:   "authorization_code",
		Code:        code,
		RedirectURI: c.cfg.RedirectURI,
	})
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	return c.token(ctx, tokenRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
}

func (c *Client) token(ctx context.Context, tr tokenRequest) (*model.TokenGrant, error) {
	tr.ClientKey = c.cfg.ClientKey
	tr.ClientSecret = c.cfg.ClientSecret
	form, err := query.Values(tr)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	var out tokenResponse
	if err := c.do(c.httpClient, req, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", model.ErrUpstreamRejected, out.Error, out.ErrorDescription)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access_token", model.ErrUpstreamRejected)
	}
	return out.grant(), nil
}

type userInfoResponse struct {
	Data struct {
		User struct {
			OpenID      string `json:"open_id"`
			UnionID     string `json:"union_id"`
			AvatarURL   string `json:"avatar_url"`
			DisplayName string `json:"display_name"`
		} `json:"user"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.PlatformProfile, error) {
	q := url.Values{}
	q.Set("fields", "open_id,union_id,avatar_url,display_name")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/user/info/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out userInfoResponse
	if err := c.do(c.authorized(ctx, accessToken), req, &out); err != nil {
		return nil, err
	}
	if out.Error.failed() {
		return nil, fmt.Errorf("%w: %s: %s", model.ErrUpstreamRejected, out.Error.Code, out.Error.Message)
	}
	user := out.Data.User
	return &model.PlatformProfile{
		ExternalUserID: user.OpenID,
		DisplayName:    user.DisplayName,
		AvatarURL:      user.AvatarURL,
	}, nil
}
