package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"content-scheduler/domain/model"
	"content-scheduler/infrastructure/configuration"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://open.tiktokapis.com/v2"
	defaultAuthURL = "https://www.tiktok.com/v2/auth/authorize/"
	maxErrorBody   = 4 << 10
)

// Config holds the TikTok app credentials and API endpoints.
type Config struct {
	ClientKey        string
	ClientSecret     string
	RedirectURI      string
	BaseURL          string
	AuthURL          string
	Scopes           []string
	PrivacyLevel     string
	UploadsPerMinute int
	HTTPClient       *http.Client
}

// ConfigFromSettings maps the application configuration onto a client Config.
func ConfigFromSettings(t configuration.TikTok, s configuration.Scheduler) Config {
	return Config{
		ClientKey:        t.ClientKey,
		ClientSecret:     t.ClientSecret,
		RedirectURI:      t.RedirectURI,
		BaseURL:          t.BaseURL,
		AuthURL:          t.AuthURL,
		Scopes:           t.Scopes,
		PrivacyLevel:     t.PrivacyLevel,
		UploadsPerMinute: s.UploadsPerMinute,
	}
}

// Client talks to the TikTok Open API v2 for OAuth and direct posting.
type Client struct {
	cfg        Config
	oauth      *oauth2.Config
	httpClient *http.Client
	uploads    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.PrivacyLevel == "" {
		cfg.PrivacyLevel = "SELF_ONLY"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	perMinute := cfg.UploadsPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientKey,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.BaseURL + "/oauth/token/",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		uploads:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (c *Client) Platform() string { return model.PlatformTikTok }

// authorized returns an HTTP client that sends the bearer token on every request.
func (c *Client) authorized(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// apiError is the error object every v2 endpoint returns; code "ok" means success.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

func (e *apiError) failed() bool {
	return e != nil && e.Code != "" && e.Code != "ok"
}

// do executes req and decodes a JSON body into out, classifying failures.
func (c *Client) do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read tiktok response: %w", model.ErrTransientIO, err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode tiktok response: %w", model.ErrUpstreamRejected, err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: tiktok status %d: %s", model.ErrTransientIO, status, snippet(body))
	default:
		return fmt.Errorf("%w: tiktok status %d: %s", model.ErrUpstreamRejected, status, snippet(body))
	}
}

// transportError treats every failure to get a response as retryable.
func transportError(err error) error {
	return fmt.Errorf("%w: %w", model.ErrTransientIO, err)
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
