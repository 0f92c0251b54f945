package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_SchedulerDefaults(t *testing.T) {
	s := SchedulerSettings()
	require.NotEmpty(t, s.TickSpec)
	require.NotEmpty(t, s.TokenRefreshSpec)
	assert.Positive(t, s.FallbackBatchSize)
	assert.Positive(t, s.MaxErrorCount)
	assert.Equal(t, time.Duration(s.RefreshSkewMinutes)*time.Minute, s.RefreshSkew())
}

func TestConfiguration_DefaultValues(t *testing.T) {
	require.NotZero(t, C.App.Port)
	require.NotEmpty(t, C.App.AllowedOrigins)
	assert.NotEmpty(t, C.TikTok.BaseURL)
	assert.NotEmpty(t, C.TikTok.RedirectURI)
}

func TestLoadEnvFromFile_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("# comment\nCS_TEST_NEW=from-file\nCS_TEST_SET=\"from-file\"\n"), 0o600))
	t.Setenv("CS_TEST_SET", "from-env")

	LoadEnvFromFile(filepath.Join(dir, "missing.env"), file)
	t.Cleanup(func() { _ = os.Unsetenv("CS_TEST_NEW") })

	assert.Equal(t, "from-file", os.Getenv("CS_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("CS_TEST_SET"))
}

func TestGetConfigValue(t *testing.T) {
	t.Setenv("CS_TEST_KEY", "")
	assert.Equal(t, "cfg", getConfigValue("cfg", "CS_TEST_KEY", "def"))
	assert.Equal(t, "def", getConfigValue("YOUR_CLIENT_KEY", "CS_TEST_KEY", "def"))

	t.Setenv("CS_TEST_KEY", "env")
	assert.Equal(t, "env", getConfigValue("cfg", "CS_TEST_KEY", "def"))
}

func TestToHTTPSCallback(t *testing.T) {
	assert.Equal(t, "https://localhost:10001/auth/tiktok/callback", toHTTPSCallback("http://localhost:10001/auth/tiktok/callback"))
	assert.Equal(t, "https://x", toHTTPSCallback("https://x"))
	assert.True(t, hasHTTPS("https://x"))
	assert.False(t, hasHTTPS("http://x"))
}
