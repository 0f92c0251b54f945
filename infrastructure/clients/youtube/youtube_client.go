package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/infrastructure/configuration"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Config represents YouTube API configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Privacy      string
	CategoryID   string

	// Endpoint and TokenURL override Google's defaults, mainly for tests.
	Endpoint   string
	TokenURL   string
	HTTPClient *http.Client
}

func ConfigFromSettings(y configuration.YouTube) Config {
	return Config{
		ClientID:     y.ClientID,
		ClientSecret: y.ClientSecret,
		RedirectURL:  y.RedirectURI,
		Scopes:       y.Scopes,
		Privacy:      y.Privacy,
		CategoryID:   y.CategoryID,
	}
}

// Client publishes videos to the channel owning the supplied access token.
type Client struct {
	cfg         Config
	oauthConfig *oauth2.Config
	httpClient  *http.Client
}

// NewYouTubeClient creates a new YouTube API client
func NewYouTubeClient(config Config) *Client {
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{youtube.YoutubeUploadScope, youtube.YoutubeReadonlyScope}
	}
	endpoint := google.Endpoint
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	if config.Privacy == "" {
		config.Privacy = "private"
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Client{
		cfg: config,
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
	}
}

func (c *Client) Platform() string { return model.PlatformYouTube }

// AuthURL asks for offline access so Google returns a refresh token.
func (c *Client) AuthURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.TokenGrant, error) {
	tok, err := c.oauthConfig.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, classify("exchange code", err)
	}
	return grantFrom(tok), nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenGrant, error) {
	tok, err := c.oauthConfig.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, classify("refresh token", err)
	}
	return grantFrom(tok), nil
}

func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.PlatformProfile, error) {
	service, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, classify("get my channel", err)
	}
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("%w: no channel found for authenticated user", model.ErrUpstreamRejected)
	}

	channel := response.Items[0]
	profile := &model.PlatformProfile{ExternalUserID: channel.Id}
	if channel.Snippet != nil {
		profile.DisplayName = channel.Snippet.Title
		if channel.Snippet.Thumbnails != nil && channel.Snippet.Thumbnails.Default != nil {
			profile.AvatarURL = channel.Snippet.Thumbnails.Default.Url
		}
	}
	return profile, nil
}

// UploadVideo uploads a video to YouTube
func (c *Client) UploadVideo(ctx context.Context, accessToken string, req model.UploadRequest) (*model.UploadResult, error) {
	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	service, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       truncate(req.Title, 100),
			Description: req.Caption,
			Tags:        hashtags(req.Caption),
			CategoryId:  c.cfg.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: c.cfg.Privacy,
		},
	}
	response, err := service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("upload video", err)
	}

	raw, _ := json.Marshal(map[string]any{
		"id":     response.Id,
		"status": response.Status,
	})
	return &model.UploadResult{ExternalVideoID: response.Id, Raw: raw}, nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	httpClient := oauth2.NewClient(c.withHTTPClient(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.cfg.Endpoint))
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

func grantFrom(tok *oauth2.Token) *model.TokenGrant {
	grant := &model.TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		grant.ExpiresIn = time.Until(tok.Expiry).Round(time.Second)
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		grant.Scope = scope
	}
	return grant
}

// classify maps Google API and OAuth errors onto the publish failure kinds.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return fmt.Errorf("%w: %s: %w", model.ErrTransientIO, op, err)
		}
		return fmt.Errorf("%w: %s: %w", model.ErrUpstreamRejected, op, err)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: %s: %w", model.ErrTransientIO, op, err)
		}
		return fmt.Errorf("%w: %s: %w", model.ErrUpstreamRejected, op, err)
	}
	return fmt.Errorf("%w: %s: %w", model.ErrTransientIO, op, err)
}

func hashtags(caption string) []string {
	var tags []string
	for _, field := range strings.Fields(caption) {
		if strings.HasPrefix(field, "#") && len(field) > 1 {
			tags = append(tags, strings.TrimPrefix(field, "#"))
		}
	}
	return tags
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
