package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"content-scheduler/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestClient_AuthURLRequestsOfflineAccess(t *testing.T) {
	c := NewYouTubeClient(Config{ClientID: "cid", RedirectURL: "https://app.example.com/auth/youtube/callback"})

	u, err := url.Parse(c.AuthURL("s1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "s1", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "youtube.upload")
}

func TestClient_RefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"new-at","expires_in":3600,"token_type":"Bearer","scope":"https://www.googleapis.com/auth/youtube.upload"}`))
	}))
	defer srv.Close()

	c := NewYouTubeClient(Config{ClientID: "cid", ClientSecret: "sec", TokenURL: srv.URL, HTTPClient: srv.Client()})
	grant, err := c.RefreshToken(context.Background(), "rt")
	require.NoError(t, err)
	assert.Equal(t, "new-at", grant.AccessToken)
	assert.InDelta(t, 3600, grant.ExpiresIn.Seconds(), 2)
	assert.Contains(t, grant.Scope, "youtube.upload")
}

func TestClient_RefreshTokenRevoked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	}))
	defer srv.Close()

	c := NewYouTubeClient(Config{ClientID: "cid", ClientSecret: "sec", TokenURL: srv.URL, HTTPClient: srv.Client()})
	_, err := c.RefreshToken(context.Background(), "rt")
	require.ErrorIs(t, err, model.ErrUpstreamRejected)
}

func TestClient_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("mine"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"UC123","snippet":{"title":"My Channel","thumbnails":{"default":{"url":"https://yt/a.jpg"}}}}]}`))
	}))
	defer srv.Close()

	c := NewYouTubeClient(Config{Endpoint: srv.URL + "/", HTTPClient: srv.Client()})
	profile, err := c.FetchProfile(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, "UC123", profile.ExternalUserID)
	assert.Equal(t, "My Channel", profile.DisplayName)
	assert.Equal(t, "https://yt/a.jpg", profile.AvatarURL)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify("op", &googleapi.Error{Code: 503}), model.ErrTransientIO)
	assert.ErrorIs(t, classify("op", &googleapi.Error{Code: 429}), model.ErrTransientIO)
	assert.ErrorIs(t, classify("op", &googleapi.Error{Code: 403}), model.ErrUpstreamRejected)
	assert.ErrorIs(t, classify("op", errors.New("connection reset")), model.ErrTransientIO)
}

func TestHashtags(t *testing.T) {
	assert.Equal(t, []string{"go", "scheduler"}, hashtags("shipping #go today #scheduler #"))
	assert.Nil(t, hashtags("no tags"))
}
