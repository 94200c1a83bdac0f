// Package config resolves crawler settings from built-in defaults, the
// ~/.hellowork/config.yaml file, and HELLOWORK_* environment variables
// (optionally seeded from a .env file). Command-line flags are applied by
// the CLI on top of the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pevans/hellowork/browser"
	"github.com/pevans/hellowork/crawler"
	"github.com/pevans/hellowork/offers"
	"github.com/pevans/hellowork/pacing"
	"github.com/pevans/hellowork/sink"
)

// DefaultDatabasePath is the SQLite database used when none is configured.
const DefaultDatabasePath = "hellowork.db"

// Settings holds every crawler tunable.
type Settings struct {
	URLTemplate string
	StartPage   int
	EndPage     int
	WaitTimeout time.Duration

	Provider          string
	Headless          bool
	UserAgent         string
	ExecPath          string
	RequestsPerSecond float64

	Pacing    pacing.Config
	Selectors offers.Selectors

	DatabasePath string
	ArchiveDir   string
	Elastic      sink.ElasticConfig
}

// Default returns the built-in settings.
func Default() *Settings {
	opts := browser.DefaultOptions()
	return &Settings{
		URLTemplate:       crawler.DefaultURLTemplate,
		StartPage:         crawler.DefaultStartPage,
		EndPage:           crawler.DefaultEndPage,
		WaitTimeout:       crawler.DefaultWaitTimeout,
		Provider:          string(opts.Kind),
		Headless:          opts.Headless,
		UserAgent:         opts.UserAgent,
		RequestsPerSecond: opts.RequestsPerSecond,
		Pacing:            *pacing.DefaultConfig(),
		Selectors:         *offers.DefaultSelectors(),
		DatabasePath:      DefaultDatabasePath,
	}
}

// Load resolves settings: .env first, then defaults overlaid by the config
// file and then by the environment.
func Load() (*Settings, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	s := Default()

	fc, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}
	s.ApplyFile(fc)

	if err := s.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	return s, nil
}

// ApplyFile overlays the values set in fc. A nil fc changes nothing.
func (s *Settings) ApplyFile(fc *FileConfig) {
	if fc == nil {
		return
	}

	if fc.Crawl.URLTemplate != "" {
		s.URLTemplate = fc.Crawl.URLTemplate
	}
	if fc.Crawl.StartPage != 0 {
		s.StartPage = fc.Crawl.StartPage
	}
	if fc.Crawl.EndPage != 0 {
		s.EndPage = fc.Crawl.EndPage
	}
	if fc.Crawl.WaitTimeout != 0 {
		s.WaitTimeout = fc.Crawl.WaitTimeout
	}

	if fc.Browser.Provider != "" {
		s.Provider = fc.Browser.Provider
	}
	if fc.Browser.Headless != nil {
		s.Headless = *fc.Browser.Headless
	}
	if fc.Browser.UserAgent != "" {
		s.UserAgent = fc.Browser.UserAgent
	}
	if fc.Browser.ExecPath != "" {
		s.ExecPath = fc.Browser.ExecPath
	}
	if fc.Browser.RequestsPerSecond != 0 {
		s.RequestsPerSecond = fc.Browser.RequestsPerSecond
	}

	if fc.Pacing != nil {
		s.Pacing = mergePacing(s.Pacing, *fc.Pacing)
	}
	if fc.Selectors != nil {
		s.Selectors = mergeSelectors(s.Selectors, *fc.Selectors)
	}

	if fc.Storage.SQLite.DSN != "" {
		s.DatabasePath = fc.Storage.SQLite.DSN
	}
	if fc.Storage.Archive.Dir != "" {
		s.ArchiveDir = fc.Storage.Archive.Dir
	}
	if len(fc.Storage.Elastic.Addresses) > 0 {
		s.Elastic.Addresses = fc.Storage.Elastic.Addresses
	}
	if fc.Storage.Elastic.Index != "" {
		s.Elastic.Index = fc.Storage.Elastic.Index
	}
	if fc.Storage.Elastic.Username != "" {
		s.Elastic.Username = fc.Storage.Elastic.Username
	}
	if fc.Storage.Elastic.Password != "" {
		s.Elastic.Password = fc.Storage.Elastic.Password
	}
}

// mergePacing keeps base values for bounds left zero in override. Pacing is
// turned off with --no-pacing, not with zero ranges.
func mergePacing(base, override pacing.Config) pacing.Config {
	if override.ScrollMin != 0 {
		base.ScrollMin = override.ScrollMin
	}
	if override.ScrollMax != 0 {
		base.ScrollMax = override.ScrollMax
	}
	if override.JitterMin != 0 {
		base.JitterMin = override.JitterMin
	}
	if override.JitterMax != 0 {
		base.JitterMax = override.JitterMax
	}
	if override.PageDelayMin != 0 {
		base.PageDelayMin = override.PageDelayMin
	}
	if override.PageDelayMax != 0 {
		base.PageDelayMax = override.PageDelayMax
	}
	return base
}

// mergeSelectors keeps base values for selectors left empty in override.
func mergeSelectors(base, override offers.Selectors) offers.Selectors {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return offers.Selectors{
		Container:         pick(base.Container, override.Container),
		Item:              pick(base.Item, override.Item),
		TitleLink:         pick(base.TitleLink, override.TitleLink),
		TitleHeading:      pick(base.TitleHeading, override.TitleHeading),
		Location:          pick(base.Location, override.Location),
		Published:         pick(base.Published, override.Published),
		DetailAnchor:      pick(base.DetailAnchor, override.DetailAnchor),
		DescriptionPrefix: pick(base.DescriptionPrefix, override.DescriptionPrefix),
		SalaryMarker:      pick(base.SalaryMarker, override.SalaryMarker),
		CurrencyMarker:    pick(base.CurrencyMarker, override.CurrencyMarker),
	}
}

// Validate rejects settings a crawl cannot run with. An inverted page range
// is allowed; the crawl is then empty.
func (s *Settings) Validate() error {
	if err := crawler.ValidateTemplate(s.URLTemplate); err != nil {
		return err
	}
	if s.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive, got %v", s.WaitTimeout)
	}
	if _, err := browser.ParseKind(s.Provider); err != nil {
		return err
	}
	if s.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %v", s.RequestsPerSecond)
	}
	if err := s.Pacing.Validate(); err != nil {
		return err
	}
	if s.DatabasePath == "" {
		return errors.New("database path must be set")
	}
	return nil
}

// BrowserOptions returns provider options for these settings. The provider
// kind must already be valid.
func (s *Settings) BrowserOptions() *browser.Options {
	opts := browser.DefaultOptions()
	opts.Kind, _ = browser.ParseKind(s.Provider)
	opts.Headless = s.Headless
	opts.NoSandbox = true
	opts.ExecPath = s.ExecPath
	opts.RequestTimeout = s.WaitTimeout
	opts.RequestsPerSecond = s.RequestsPerSecond
	if s.UserAgent != "" {
		opts.UserAgent = s.UserAgent
	}
	return opts
}

// CrawlerConfig returns driver settings. Pacing is left for the caller.
func (s *Settings) CrawlerConfig() *crawler.Config {
	sel := s.Selectors
	return &crawler.Config{
		URLTemplate: s.URLTemplate,
		WaitTimeout: s.WaitTimeout,
		Selectors:   &sel,
	}
}

// ElasticEnabled reports whether an Elasticsearch store is configured.
func (s *Settings) ElasticEnabled() bool {
	return len(s.Elastic.Addresses) > 0
}
