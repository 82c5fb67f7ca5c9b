// Package config provides YAML-based configuration loading for Studio.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config is the top-level Studio configuration, loaded from studio.yaml.
type Config struct {
	Site     string         `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Schema   SchemaConfig   `yaml:"schema"`
	Meta     MetaConfig     `yaml:"meta"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig selects and addresses the site database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"` // sqlite only
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// SchemaConfig points at DocType definition files and how often to resync them.
type SchemaConfig struct {
	Dir      string `yaml:"dir"`
	SyncCron string `yaml:"sync_cron"`
}

// MetaConfig tunes the DocType metadata cache.
type MetaConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A relative schema.dir or database.path is resolved against the config
// file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	if cfg.Schema.Dir != "" && !filepath.IsAbs(cfg.Schema.Dir) {
		cfg.Schema.Dir = filepath.Join(base, cfg.Schema.Dir)
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.Path != ":memory:" && !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(base, cfg.Database.Path)
	}
	return cfg, nil
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" && c.Site != "" {
		c.Database.Path = c.Site + ".db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" && c.Site != "" {
		c.Database.Name = strings.NewReplacer(".", "_", "-", "_").Replace(c.Site)
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Meta.CacheSize == 0 {
		c.Meta.CacheSize = 256
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Site == "" {
		errs = append(errs, "site is required")
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (want sqlite or mysql)", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Meta.CacheSize < 0 {
		errs = append(errs, "meta.cache_size must not be negative")
	}
	if c.Schema.SyncCron != "" {
		if c.Schema.Dir == "" {
			errs = append(errs, "schema.sync_cron requires schema.dir")
		}
		if _, err := cron.ParseStandard(c.Schema.SyncCron); err != nil {
			errs = append(errs, fmt.Sprintf("schema.sync_cron %q: %v", c.Schema.SyncCron, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
