package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by Settings.ApplyEnv.
const (
	EnvURLTemplate       = "HELLOWORK_URL_TEMPLATE"
	EnvStartPage         = "HELLOWORK_START_PAGE"
	EnvEndPage           = "HELLOWORK_END_PAGE"
	EnvWaitTimeout       = "HELLOWORK_WAIT_TIMEOUT"
	EnvProvider          = "HELLOWORK_PROVIDER"
	EnvHeadless          = "HELLOWORK_HEADLESS"
	EnvUserAgent         = "HELLOWORK_USER_AGENT"
	EnvBrowserPath       = "HELLOWORK_BROWSER_PATH"
	EnvRequestsPerSecond = "HELLOWORK_REQUESTS_PER_SECOND"
	EnvDatabaseDSN       = "HELLOWORK_DB_DSN"
	EnvArchiveDir        = "HELLOWORK_ARCHIVE_DIR"
	EnvElasticAddresses  = "HELLOWORK_ES_ADDRESSES"
	EnvElasticIndex      = "HELLOWORK_ES_INDEX"
	EnvElasticUsername   = "HELLOWORK_ES_USERNAME"
	EnvElasticPassword   = "HELLOWORK_ES_PASSWORD"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables already set are kept.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(key string) string

// ApplyEnv overrides settings from HELLOWORK_* variables. Unset or empty
// variables leave the current value alone.
func (s *Settings) ApplyEnv(getenv Getenv) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvURLTemplate); v != "" {
		s.URLTemplate = v
	}
	if err := envInt(getenv, EnvStartPage, &s.StartPage); err != nil {
		return err
	}
	if err := envInt(getenv, EnvEndPage, &s.EndPage); err != nil {
		return err
	}
	if err := envDuration(getenv, EnvWaitTimeout, &s.WaitTimeout); err != nil {
		return err
	}
	if v := getenv(EnvProvider); v != "" {
		s.Provider = v
	}
	if v := getenv(EnvHeadless); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		s.Headless = b
	}
	if v := getenv(EnvUserAgent); v != "" {
		s.UserAgent = v
	}
	if v := getenv(EnvBrowserPath); v != "" {
		s.ExecPath = v
	}
	if v := getenv(EnvRequestsPerSecond); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRequestsPerSecond, err)
		}
		s.RequestsPerSecond = f
	}
	if v := getenv(EnvDatabaseDSN); v != "" {
		s.DatabasePath = v
	}
	if v := getenv(EnvArchiveDir); v != "" {
		s.ArchiveDir = v
	}
	if v := getenv(EnvElasticAddresses); v != "" {
		s.Elastic.Addresses = splitList(v)
	}
	if v := getenv(EnvElasticIndex); v != "" {
		s.Elastic.Index = v
	}
	if v := getenv(EnvElasticUsername); v != "" {
		s.Elastic.Username = v
	}
	if v := getenv(EnvElasticPassword); v != "" {
		s.Elastic.Password = v
	}

	return nil
}

func envInt(getenv Getenv, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(getenv Getenv, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
