package configuration

import (
	"fmt"
	"os"
	"strings"
)

func initPlatforms(C *Config) {
	scheme := "http"
	if C.App.TLSEnabled {
		scheme = "https"
	}
	callback := func(platform string) string {
		return fmt.Sprintf("%s://localhost:%d/auth/%s/callback", scheme, C.App.Port, platform)
	}

	C.TikTok.ClientKey = getConfigValue(C.TikTok.ClientKey, "TIKTOK_CLIENT_KEY", "")
	C.TikTok.ClientSecret = getConfigValue(C.TikTok.ClientSecret, "TIKTOK_CLIENT_SECRET", "")
	C.TikTok.RedirectURI = getConfigValue(C.TikTok.RedirectURI, "TIKTOK_REDIRECT_URI", callback("tiktok"))

	C.YouTube.ClientID = getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", "")
	C.YouTube.ClientSecret = getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", "")
	C.YouTube.RedirectURI = getConfigValue(C.YouTube.RedirectURI, "YOUTUBE_REDIRECT_URL", callback("youtube"))

	if C.App.TLSEnabled {
		if !hasHTTPS(C.TikTok.RedirectURI) {
			C.TikTok.RedirectURI = toHTTPSCallback(C.TikTok.RedirectURI)
		}
		if !hasHTTPS(C.YouTube.RedirectURI) {
			C.YouTube.RedirectURI = toHTTPSCallback(C.YouTube.RedirectURI)
		}
	}
}

// Enabled reports whether client credentials are present.
func (t TikTok) Enabled() bool {
	return t.ClientKey != "" && t.ClientSecret != ""
}

func (y YouTube) Enabled() bool {
	return y.ClientID != "" && y.ClientSecret != ""
}

// getConfigValue gets value from config first, then environment variable, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Ignore placeholders such as YOUR_CLIENT_KEY
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
