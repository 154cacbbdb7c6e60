// Package config loads the parser's YAML configuration and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultDirName  = ".statements-parser"
	defaultFileName = "config.yaml"
)

// Environment variables recognized by the loader. The config path is
// read before the file; the rest override individual fields after it.
const (
	EnvConfigPath  = "STATEMENTS_PARSER_CONFIG"
	envInbox       = "STATEMENTS_PARSER_INBOX"
	envStoreDriver = "STATEMENTS_PARSER_STORE_DRIVER"
	envStoreDSN    = "STATEMENTS_PARSER_STORE_DSN"
	envLogLevel    = "STATEMENTS_PARSER_LOG_LEVEL"
)

// Store drivers.
const (
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
)

// Config represents the top-level config.yaml configuration.
type Config struct {
	Institution      string        `yaml:"institution"`
	Folders          FoldersConfig `yaml:"folders"`
	Store            StoreConfig   `yaml:"store"`
	Log              LogConfig     `yaml:"log"`
	Git              GitConfig     `yaml:"git"`
	Cloud            CloudConfig   `yaml:"cloud,omitempty"`
	PromotionMarkers []string      `yaml:"promotion_markers,omitempty"`
}

// FoldersConfig locates the statement folders on disk.
type FoldersConfig struct {
	Inbox     string `yaml:"inbox"`
	Organized string `yaml:"organized"`
	Export    string `yaml:"export"`
}

// StoreConfig selects and parameterizes the record store. Path is the
// data directory: the csv driver keeps transactions.csv there, and both
// drivers keep run logs there.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
	DSN    string `yaml:"dsn,omitempty"` // connection string for the postgres driver
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// GitConfig controls auto-committing the data directory after a run.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// CloudConfig parameterizes the optional BigQuery and Cloud Storage
// mirror. An empty project disables the BigQuery sync; an empty bucket
// disables the document upload.
type CloudConfig struct {
	Project string `yaml:"project,omitempty"`
	Dataset string `yaml:"dataset,omitempty"`
	Table   string `yaml:"table,omitempty"`
	Bucket  string `yaml:"bucket,omitempty"`
}

// DefaultPath returns the config file location: STATEMENTS_PARSER_CONFIG
// when set, otherwise ~/.statements-parser/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(defaultDirName, defaultFileName)
	}
	return filepath.Join(home, defaultDirName, defaultFileName)
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, "statements")
	return &Config{
		Institution: "ipay",
		Folders: FoldersConfig{
			Inbox:     filepath.Join(base, "inbox"),
			Organized: filepath.Join(base, "organized"),
			Export:    filepath.Join(base, "export"),
		},
		Store: StoreConfig{
			Driver: DriverCSV,
			Path:   filepath.Join(home, defaultDirName, "data"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Statements Parser",
			AuthorEmail: "statements-parser@localhost",
		},
		Cloud: CloudConfig{
			Dataset: "payroll",
			Table:   "transactions",
		},
		PromotionMarkers: []string{"$", "non-taxable"},
	}
}

// Load reads a config file, fills unset fields with defaults, applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	return finish(&cfg)
}

// LoadOrDefault loads the file at path, or the default location when
// path is empty. A missing file at the default location yields the
// default configuration; a missing file at an explicit path is an
// error.
func LoadOrDefault(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		return finish(Default())
	}
	return Load(path)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyEnv()
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks the fields with a closed set of values.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverCSV, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q: expected %q or %q",
			c.Store.Driver, DriverCSV, DriverPostgres)
	}
	if c.Store.Driver == DriverPostgres && c.Store.DSN == "" {
		return fmt.Errorf("store driver %q requires store.dsn", DriverPostgres)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q: expected \"text\" or \"json\"", c.Log.Format)
	}
	return nil
}

// applyDefaults fills fields the file left unset. A present but empty
// promotion_markers list stays empty; only an absent key gets the
// default markers.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Institution == "" {
		c.Institution = def.Institution
	}
	if c.Folders.Inbox == "" {
		c.Folders.Inbox = def.Folders.Inbox
	}
	if c.Folders.Organized == "" {
		c.Folders.Organized = def.Folders.Organized
	}
	if c.Folders.Export == "" {
		c.Folders.Export = def.Folders.Export
	}
	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Cloud.Dataset == "" {
		c.Cloud.Dataset = def.Cloud.Dataset
	}
	if c.Cloud.Table == "" {
		c.Cloud.Table = def.Cloud.Table
	}
	if c.PromotionMarkers == nil {
		c.PromotionMarkers = def.PromotionMarkers
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envInbox); v != "" {
		c.Folders.Inbox = v
	}
	if v := os.Getenv(envStoreDriver); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(envStoreDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) expandPaths() {
	c.Folders.Inbox = expandHome(c.Folders.Inbox)
	c.Folders.Organized = expandHome(c.Folders.Organized)
	c.Folders.Export = expandHome(c.Folders.Export)
	c.Store.Path = expandHome(c.Store.Path)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
