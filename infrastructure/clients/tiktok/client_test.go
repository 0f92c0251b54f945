package tiktok

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"content-scheduler/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		ClientKey:        "ck",
		ClientSecret:     "cs",
		RedirectURI:      "https://app.example.com/auth/tiktok/callback",
		BaseURL:          srv.URL,
		Scopes:           []string{"user.info.basic", "video.publish"},
		UploadsPerMinute: 600,
		HTTPClient:       srv.Client(),
	})
}

func TestClient_AuthURL(t *testing.T) {
	c := NewClient(Config{
		ClientKey:   "ck",
		RedirectURI: "https://app.example.com/auth/tiktok/callback",
		Scopes:      []string{"user.info.basic", "video.publish"},
	})

	u, err := url.Parse(c.AuthURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "www.tiktok.com", u.Host)
	q := u.Query()
	assert.Equal(t, "ck", q.Get("client_key"))
	assert.Equal(t, "user.info.basic,video.publish", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "https://app.example.com/auth/tiktok/callback", q.Get("redirect_uri"))
}

func TestClient_ExchangeCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ck", r.PostForm.Get("client_key"))
		assert.Equal(t, "cs", r.PostForm.Get("client_secret"))
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Empty(t, r.PostForm.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"access_token":"at","expires_in":86400,"open_id":"open-1","refresh_token":"rt","refresh_expires_in":31536000,"scope":"video.publish","token_type":"Bearer"}`))
	}))

	grant, err := c.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", grant.AccessToken)
	assert.Equal(t, "rt", grant.RefreshToken)
	assert.Equal(t, 24*time.Hour, grant.ExpiresIn)
	assert.Equal(t, "open-1", grant.OpenID)
}

func TestClient_RefreshTokenRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-rt", r.PostForm.Get("refresh_token"))
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token is invalid or expired.","log_id":"x"}`))
	}))

	_, err := c.RefreshToken(context.Background(), "old-rt")
	require.ErrorIs(t, err, model.ErrUpstreamRejected)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestClient_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.RefreshToken(context.Background(), "rt")
	require.ErrorIs(t, err, model.ErrTransientIO)
	assert.Equal(t, model.FailureTransient, model.KindOf(err))
}

func TestClient_ClientErrorIsRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"access_token_invalid","message":"expired"}}`))
	}))

	_, err := c.FetchProfile(context.Background(), "at")
	require.ErrorIs(t, err, model.ErrUpstreamRejected)
	assert.Contains(t, err.Error(), "access_token_invalid")
}

func TestClient_FetchProfile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/info/", r.URL.Path)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Query().Get("fields"), "open_id")
		_, _ = w.Write([]byte(`{"data":{"user":{"open_id":"open-1","display_name":"Creator","avatar_url":"https://cdn/a.png"}},"error":{"code":"ok","message":"","log_id":"l"}}`))
	}))

	profile, err := c.FetchProfile(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, &model.PlatformProfile{ExternalUserID: "open-1", DisplayName: "Creator", AvatarURL: "https://cdn/a.png"}, profile)
}

func writeVideo(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("v", size)), 0o600))
	return path
}

func TestClient_UploadVideo(t *testing.T) {
	var uploaded int
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/post/publish/video/init/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		var body initRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "desc #tag", body.PostInfo.Title)
		assert.Equal(t, "SELF_ONLY", body.PostInfo.PrivacyLevel)
		assert.Equal(t, "FILE_UPLOAD", body.SourceInfo.Source)
		assert.Equal(t, int64(2048), body.SourceInfo.VideoSize)
		assert.Equal(t, int64(1), body.SourceInfo.TotalChunkCount)
		_, _ = w.Write([]byte(`{"data":{"publish_id":"v_pub_1","upload_url":"` + srvURL + `/upload/abc"},"error":{"code":"ok"}}`))
	})
	mux.HandleFunc("/upload/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "bytes 0-2047/2048", r.Header.Get("Content-Range"))
		assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		uploaded = len(b)
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	c := NewClient(Config{ClientKey: "ck", BaseURL: srv.URL, HTTPClient: srv.Client(), UploadsPerMinute: 600})
	res, err := c.UploadVideo(context.Background(), "at", model.UploadRequest{
		FilePath: writeVideo(t, 2048),
		Title:    "Clip",
		Caption:  "desc #tag",
	})
	require.NoError(t, err)
	assert.Equal(t, "v_pub_1", res.ExternalVideoID)
	assert.Contains(t, string(res.Raw), "v_pub_1")
	assert.Equal(t, 2048, uploaded)
}

func TestClient_UploadVideoInitRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{},"error":{"code":"spam_risk_too_many_posts","message":"daily post cap reached"}}`))
	}))

	_, err := c.UploadVideo(context.Background(), "at", model.UploadRequest{FilePath: writeVideo(t, 10), Title: "t"})
	require.ErrorIs(t, err, model.ErrUpstreamRejected)
	assert.Contains(t, err.Error(), "spam_risk_too_many_posts")
}

func TestClient_UploadVideoMissingFile(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.UploadVideo(context.Background(), "at", model.UploadRequest{FilePath: "/does/not/exist.mp4"})
	require.Error(t, err)
	assert.Equal(t, model.FailureUnclassified, model.KindOf(err))
}

func TestChunkPlan(t *testing.T) {
	tests := []struct {
		size      int64
		chunkSize int64
		count     int64
	}{
		{size: 1 << 20, chunkSize: 1 << 20, count: 1},
		{size: 10 << 20, chunkSize: 10 << 20, count: 1},
		{size: 25 << 20, chunkSize: 10 << 20, count: 2},
		{size: 30 << 20, chunkSize: 10 << 20, count: 3},
	}
	for _, tt := range tests {
		chunkSize, count := chunkPlan(tt.size)
		assert.Equal(t, tt.chunkSize, chunkSize, "size %d", tt.size)
		assert.Equal(t, tt.count, count, "size %d", tt.size)
	}
}

func TestCaptionFor(t *testing.T) {
	assert.Equal(t, "title only", captionFor(model.UploadRequest{Title: "title only"}))
	long := strings.Repeat("é", maxCaptionRunes+10)
	assert.Len(t, []rune(captionFor(model.UploadRequest{Caption: long})), maxCaptionRunes)
}
