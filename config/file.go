package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/hellowork/offers"
	"github.com/pevans/hellowork/pacing"
	"github.com/pevans/hellowork/sink"
	"gopkg.in/yaml.v3"
)

// CrawlConfig represents the crawl section of the config file.
type CrawlConfig struct {
	URLTemplate string        `yaml:"url_template"`
	StartPage   int           `yaml:"start_page"`
	EndPage     int           `yaml:"end_page"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// BrowserConfig represents the browser section of the config file.
type BrowserConfig struct {
	Provider          string  `yaml:"provider"`
	Headless          *bool   `yaml:"headless"`
	UserAgent         string  `yaml:"user_agent"`
	ExecPath          string  `yaml:"exec_path"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// StorageConfig represents storage configuration from config file.
type StorageConfig struct {
	SQLite struct {
		DSN string `yaml:"dsn"`
	} `yaml:"sqlite"`
	Archive struct {
		Dir string `yaml:"dir"`
	} `yaml:"archive"`
	Elastic sink.ElasticConfig `yaml:"elasticsearch"`
}

// FileConfig represents the structure of ~/.hellowork/config.yaml.
type FileConfig struct {
	Crawl     CrawlConfig       `yaml:"crawl"`
	Browser   BrowserConfig     `yaml:"browser"`
	Pacing    *pacing.Config    `yaml:"pacing"`
	Selectors *offers.Selectors `yaml:"selectors"`
	Storage   StorageConfig     `yaml:"storage"`
}

// ConfigFilePath returns the location of the config file.
func ConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".hellowork", "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.hellowork/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
