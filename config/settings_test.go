package config

import (
	"os"
	"testing"
	"time"

	"github.com/pevans/hellowork/browser"
	"github.com/pevans/hellowork/crawler"
	"github.com/pevans/hellowork/offers"
	"github.com/pevans/hellowork/pacing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault verifies the built-in settings
func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, crawler.DefaultURLTemplate, s.URLTemplate)
	assert.Equal(t, 1, s.StartPage)
	assert.Equal(t, 50, s.EndPage)
	assert.Equal(t, 10*time.Second, s.WaitTimeout)
	assert.Equal(t, "chromedp", s.Provider)
	assert.True(t, s.Headless)
	assert.Equal(t, *pacing.DefaultConfig(), s.Pacing)
	assert.Equal(t, *offers.DefaultSelectors(), s.Selectors)
	assert.Equal(t, DefaultDatabasePath, s.DatabasePath)
	assert.False(t, s.ElasticEnabled())
	assert.NoError(t, s.Validate())
}

// TestApplyFile verifies file values overlay defaults
func TestApplyFile(t *testing.T) {
	headless := false
	fc := &FileConfig{}
	fc.Crawl.EndPage = 5
	fc.Browser.Provider = "http"
	fc.Browser.Headless = &headless
	fc.Pacing = &pacing.Config{ScrollMin: 1, ScrollMax: 2}
	fc.Selectors = &offers.Selectors{Container: "ul.results"}
	fc.Storage.SQLite.DSN = "file.db"
	fc.Storage.Elastic.Addresses = []string{"http://localhost:9200"}

	s := Default()
	s.ApplyFile(fc)

	assert.Equal(t, 1, s.StartPage, "unset values keep defaults")
	assert.Equal(t, 5, s.EndPage)
	assert.Equal(t, "http", s.Provider)
	assert.False(t, s.Headless)
	assert.Equal(t, 2, s.Pacing.ScrollMax)
	assert.Equal(t, "ul.results", s.Selectors.Container)
	assert.Equal(t, offers.DefaultSelectors().Item, s.Selectors.Item, "unset selectors keep defaults")
	assert.Equal(t, "file.db", s.DatabasePath)
	assert.True(t, s.ElasticEnabled())
}

// TestApplyFile_PartialPacing verifies a partial pacing section keeps the
// other default ranges
func TestApplyFile_PartialPacing(t *testing.T) {
	writeConfigFile(t, `pacing:
  page_delay_min: 2s
  page_delay_max: 5s
`)
	fc, err := LoadConfigFile()
	require.NoError(t, err)

	s := Default()
	s.ApplyFile(fc)

	defaults := pacing.DefaultConfig()
	assert.Equal(t, defaults.ScrollMin, s.Pacing.ScrollMin)
	assert.Equal(t, defaults.ScrollMax, s.Pacing.ScrollMax)
	assert.Equal(t, defaults.JitterMin, s.Pacing.JitterMin)
	assert.Equal(t, defaults.JitterMax, s.Pacing.JitterMax)
	assert.Equal(t, 2*time.Second, s.Pacing.PageDelayMin)
	assert.Equal(t, 5*time.Second, s.Pacing.PageDelayMax)
	assert.NoError(t, s.Validate())
}

// TestApplyFile_PacingMinOnly verifies a raised minimum is checked against
// the default maximum
func TestApplyFile_PacingMinOnly(t *testing.T) {
	s := Default()
	s.ApplyFile(&FileConfig{Pacing: &pacing.Config{ScrollMin: 500}})

	assert.Equal(t, 500, s.Pacing.ScrollMin)
	assert.Equal(t, pacing.DefaultConfig().ScrollMax, s.Pacing.ScrollMax)
	assert.NoError(t, s.Validate())

	s.ApplyFile(&FileConfig{Pacing: &pacing.Config{ScrollMin: 900}})
	assert.ErrorIs(t, s.Validate(), pacing.ErrInvalidRange)
}

// TestApplyFile_Nil verifies a missing file changes nothing
func TestApplyFile_Nil(t *testing.T) {
	s := Default()
	s.ApplyFile(nil)
	assert.Equal(t, Default(), s)
}

// TestLoad_Precedence verifies environment beats file beats default
func TestLoad_Precedence(t *testing.T) {
	writeConfigFile(t, `crawl:
  start_page: 2
  end_page: 9
storage:
  sqlite:
    dsn: "file.db"
`)
	t.Chdir(t.TempDir())
	t.Setenv(EnvEndPage, "4")
	t.Setenv(EnvDatabaseDSN, "")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2, s.StartPage, "file value")
	assert.Equal(t, 4, s.EndPage, "environment value")
	assert.Equal(t, "file.db", s.DatabasePath, "empty environment value is ignored")
	assert.Equal(t, crawler.DefaultWaitTimeout, s.WaitTimeout, "default value")
}

// TestLoad_DotEnv verifies .env in the working directory acts as environment
func TestLoad_DotEnv(t *testing.T) {
	writeConfigFile(t, "")
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte(EnvProvider+"=rod\n"), 0o600))
	t.Setenv(EnvProvider, "")
	os.Unsetenv(EnvProvider)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "rod", s.Provider)
}

// TestValidate verifies settings a crawl cannot run with are rejected
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
		target error
	}{
		{"no placeholder", func(s *Settings) { s.URLTemplate = "https://example.test/" }, crawler.ErrInvalidTemplate},
		{"zero timeout", func(s *Settings) { s.WaitTimeout = 0 }, nil},
		{"unknown provider", func(s *Settings) { s.Provider = "lynx" }, browser.ErrUnknownProvider},
		{"negative rate", func(s *Settings) { s.RequestsPerSecond = -1 }, nil},
		{"inverted pacing", func(s *Settings) { s.Pacing.ScrollMin = 900 }, pacing.ErrInvalidRange},
		{"no database", func(s *Settings) { s.DatabasePath = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)

			err := s.Validate()
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

// TestValidate_InvertedPageRange verifies an inverted range is allowed
func TestValidate_InvertedPageRange(t *testing.T) {
	s := Default()
	s.StartPage, s.EndPage = 5, 3
	assert.NoError(t, s.Validate())
}

// TestBrowserOptions verifies provider options follow the settings
func TestBrowserOptions(t *testing.T) {
	s := Default()
	s.Provider = "HTTP"
	s.Headless = false
	s.WaitTimeout = 3 * time.Second
	s.RequestsPerSecond = 0.5
	s.UserAgent = ""

	opts := s.BrowserOptions()

	assert.Equal(t, browser.KindHTTP, opts.Kind)
	assert.False(t, opts.Headless)
	assert.Equal(t, 3*time.Second, opts.RequestTimeout)
	assert.Equal(t, 0.5, opts.RequestsPerSecond)
	assert.Equal(t, browser.DefaultUserAgent, opts.UserAgent, "empty agent keeps the default")
}

// TestCrawlerConfig verifies driver settings follow the settings
func TestCrawlerConfig(t *testing.T) {
	s := Default()
	s.Selectors.Container = "ul.results"

	cfg := s.CrawlerConfig()

	assert.Equal(t, s.URLTemplate, cfg.URLTemplate)
	assert.Equal(t, s.WaitTimeout, cfg.WaitTimeout)
	require.NotNil(t, cfg.Selectors)
	assert.Equal(t, "ul.results", cfg.Selectors.Container)

	s.Selectors.Container = "changed"
	assert.Equal(t, "ul.results", cfg.Selectors.Container, "config holds a copy")
}
