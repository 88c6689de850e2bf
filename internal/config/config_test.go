package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the package reads so the host environment
// does not leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvUserEmail, EnvUserPassword, EnvStoreURL, EnvStoreKey, EnvBaseURL, EnvHeadless, EnvCoverageDir} {
		t.Setenv(k, "")
	}
}

func TestDefaultBrowserConfig(t *testing.T) {
	cfg := DefaultBrowserConfig()

	assert.True(t, cfg.Headless)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1920, cfg.ViewportWidth)
	assert.Equal(t, 1080, cfg.ViewportHeight)
	assert.True(t, cfg.IgnoreCertErrors)
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultCoverageDir, cfg.CoverageDir)
	assert.True(t, cfg.Headless)
	assert.False(t, cfg.Credentials.Complete())
	assert.False(t, cfg.Store.Complete())
}

func TestFromEnv_TrimsStoreSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStoreURL, "  https://abc.supabase.co/ \n")
	t.Setenv(EnvStoreKey, " anon-key ")
	t.Setenv(EnvBaseURL, "http://127.0.0.1:4000/")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://abc.supabase.co", cfg.Store.URL)
	assert.Equal(t, "anon-key", cfg.Store.AnonKey)
	assert.True(t, cfg.Store.Complete())
	assert.Equal(t, "http://127.0.0.1:4000", cfg.BaseURL)
}

func TestFromEnv_PartialCredentialsAreIncomplete(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvUserEmail, "qa@example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Credentials.Complete(), "password missing")

	t.Setenv(EnvUserPassword, "secret")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Credentials.Complete())
}

func TestFromEnv_Headless(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvHeadless, "false")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Headless)
	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, 1920, cfg.Browser().ViewportWidth)

	t.Setenv(EnvHeadless, "sometimes")
	_, err = FromEnv()
	assert.ErrorContains(t, err, EnvHeadless)
}

func TestLoad_ReadsDotenvWithoutOverriding(t *testing.T) {
	clearEnv(t)
	// godotenv only fills unset variables, so drop the blanks set above.
	require.NoError(t, os.Unsetenv(EnvUserEmail))
	require.NoError(t, os.Unsetenv(EnvUserPassword))
	t.Setenv(EnvStoreKey, "from-env")

	path := filepath.Join(t.TempDir(), ".env.local")
	require.NoError(t, os.WriteFile(path, []byte(
		"TEST_USER_EMAIL=dotenv@example.com\n"+
			"TEST_USER_PASSWORD=hunter2\n"+
			"NEXT_PUBLIC_SUPABASE_ANON_KEY=from-file\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv(EnvUserEmail)
		os.Unsetenv(EnvUserPassword)
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dotenv@example.com", cfg.Credentials.Email)
	assert.Equal(t, "hunter2", cfg.Credentials.Password)
	assert.Equal(t, "from-env", cfg.Store.AnonKey, "existing environment wins")
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	assert.NoError(t, err)
}
