package model

import "time"

const (
	PlatformTikTok  = "tiktok"
	PlatformYouTube = "youtube"
)

type Account struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	Platform       string     `json:"platform"`
	AccountName    string     `json:"account_name"`
	ExternalUserID string     `json:"external_user_id"`
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastPublishAt  *time.Time `json:"last_publish_at,omitempty"`
	ErrorCount     int        `json:"error_count"`
	LastError      *string    `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PlatformOrDefault treats an unset platform as tiktok.
func (a *Account) PlatformOrDefault() string {
	if a.Platform == "" {
		return PlatformTikTok
	}
	return a.Platform
}

// TokenGrant is what a platform returns from a token exchange or refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	OpenID       string
	Scope        string
}

// PlatformProfile is the identity fetched after connecting an account.
type PlatformProfile struct {
	ExternalUserID string `json:"external_user_id"`
	DisplayName    string `json:"display_name"`
	AvatarURL      string `json:"avatar_url,omitempty"`
}

// AccountPublishState is persisted after every publish attempt.
type AccountPublishState struct {
	LastPublishAt *time.Time
	ErrorCount    int
	LastError     *string
	IsActive      bool
}
