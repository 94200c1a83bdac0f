package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: build a Getenv from a map
func mapEnv(env map[string]string) Getenv {
	return func(key string) string { return env[key] }
}

// TestApplyEnv verifies HELLOWORK_* variables override settings
func TestApplyEnv(t *testing.T) {
	s := Default()

	err := s.ApplyEnv(mapEnv(map[string]string{
		EnvURLTemplate:       "https://example.test/?p=%d",
		EnvStartPage:         "3",
		EnvEndPage:           "4",
		EnvWaitTimeout:       "5s",
		EnvProvider:          "http",
		EnvHeadless:          "false",
		EnvUserAgent:         "agent",
		EnvBrowserPath:       "/usr/bin/chromium",
		EnvRequestsPerSecond: "2.5",
		EnvDatabaseDSN:       "other.db",
		EnvArchiveDir:        "runs",
		EnvElasticAddresses:  "http://es1:9200, http://es2:9200,",
		EnvElasticIndex:      "jobs",
		EnvElasticUsername:   "elastic",
		EnvElasticPassword:   "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/?p=%d", s.URLTemplate)
	assert.Equal(t, 3, s.StartPage)
	assert.Equal(t, 4, s.EndPage)
	assert.Equal(t, 5*time.Second, s.WaitTimeout)
	assert.Equal(t, "http", s.Provider)
	assert.False(t, s.Headless)
	assert.Equal(t, "agent", s.UserAgent)
	assert.Equal(t, "/usr/bin/chromium", s.ExecPath)
	assert.Equal(t, 2.5, s.RequestsPerSecond)
	assert.Equal(t, "other.db", s.DatabasePath)
	assert.Equal(t, "runs", s.ArchiveDir)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, s.Elastic.Addresses)
	assert.Equal(t, "jobs", s.Elastic.Index)
	assert.Equal(t, "elastic", s.Elastic.Username)
	assert.Equal(t, "secret", s.Elastic.Password)
}

// TestApplyEnv_Empty verifies unset variables keep current values
func TestApplyEnv_Empty(t *testing.T) {
	s := Default()

	require.NoError(t, s.ApplyEnv(mapEnv(nil)))

	assert.Equal(t, Default(), s)
}

// TestApplyEnv_Invalid verifies malformed values are rejected with the key
func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		EnvStartPage:         "first",
		EnvEndPage:           "1.5",
		EnvWaitTimeout:       "ten seconds",
		EnvHeadless:          "maybe",
		EnvRequestsPerSecond: "fast",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			err := Default().ApplyEnv(mapEnv(map[string]string{key: value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

// TestLoadDotEnv verifies .env values reach the environment without
// overriding variables already set
func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HELLOWORK_TEST_DOTENV=from-file\nHELLOWORK_TEST_KEEP=from-file\n"), 0o600))

	t.Setenv("HELLOWORK_TEST_DOTENV", "")
	os.Unsetenv("HELLOWORK_TEST_DOTENV")
	t.Setenv("HELLOWORK_TEST_KEEP", "from-env")

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "from-file", os.Getenv("HELLOWORK_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("HELLOWORK_TEST_KEEP"))
}

// TestLoadDotEnv_Missing verifies a missing .env file is ignored
func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
