// Package config loads the project file (batchload.yaml) describing the
// database, migrations, archive, and the ordered dataset list.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// DatabaseConfig describes the file-backed store.
type DatabaseConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty"`
	BusyTimeout  string `yaml:"busy_timeout,omitempty"`
}

// ArchiveConfig describes the optional input archive acquisition step.
type ArchiveConfig struct {
	URL        string `yaml:"url,omitempty"`
	Path       string `yaml:"path,omitempty"`
	SHA256     string `yaml:"sha256,omitempty"`
	ExtractDir string `yaml:"extract_dir,omitempty"`
}

// DatasetConfig describes one (file, table) pair with its declared column
// schema. Datasets are ingested in list order.
type DatasetConfig struct {
	File       string   `yaml:"file"`
	Table      string   `yaml:"table"`
	Columns    []string `yaml:"columns"`
	PrimaryKey string   `yaml:"primary_key,omitempty"`
	Truncate   bool     `yaml:"truncate,omitempty"`
}

// RetryConfig describes the transient-failure policy.
type RetryConfig struct {
	MaxAttempts int    `yaml:"max_attempts,omitempty"`
	Delay       string `yaml:"delay,omitempty"`
	Backoff     string `yaml:"backoff,omitempty"`
}

// ProjectConfig is the parsed batchload.yaml.
type ProjectConfig struct {
	Database   DatabaseConfig  `yaml:"database"`
	Migrations string          `yaml:"migrations,omitempty"`
	Archive    ArchiveConfig   `yaml:"archive,omitempty"`
	Datasets   []DatasetConfig `yaml:"datasets"`
	Retry      RetryConfig     `yaml:"retry,omitempty"`
	Timeout    string          `yaml:"timeout,omitempty"`
}

// ConfigFileName is the project file looked up under the project directory.
const ConfigFileName = "batchload.yaml"

// Load reads ConfigFileName from sourcePath.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
