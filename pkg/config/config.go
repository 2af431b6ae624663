package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MaxConcurrentPages is the hard cap on page fetches in flight for one gallery.
const MaxConcurrentPages = 5

// Config holds all configuration options for nhdl
type Config struct {
	Site      SiteConfig      `yaml:"site" json:"site"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Download  DownloadConfig  `yaml:"download" json:"download"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// SiteConfig describes the remote site and the browser session presented to it
type SiteConfig struct {
	Scheme    string `yaml:"scheme" json:"scheme"`
	Host      string `yaml:"host" json:"host"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	Cookie    string `yaml:"cookie" json:"cookie"`
	Account   string `yaml:"account" json:"account"`
}

// HTTPConfig holds transport settings
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	Proxy        string        `yaml:"proxy" json:"proxy"`
	MaxRedirects int           `yaml:"max_redirects" json:"max_redirects"`
}

// RateLimitConfig paces outgoing requests. Zero means unlimited.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	Overwrite     bool   `yaml:"overwrite" json:"overwrite"`
	CheckMissing  bool   `yaml:"check_missing" json:"check_missing"`
}

// DownloadConfig holds download concurrency settings
type DownloadConfig struct {
	ConcurrentPages     int `yaml:"concurrent_pages" json:"concurrent_pages"`
	ConcurrentGalleries int `yaml:"concurrent_galleries" json:"concurrent_galleries"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Scheme:    "https",
			Host:      "nhentai.net",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		},
		HTTP: HTTPConfig{
			Timeout:      60 * time.Second,
			MaxRedirects: 10,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
			CheckMissing:  true,
		},
		Download: DownloadConfig{
			ConcurrentPages:     MaxConcurrentPages,
			ConcurrentGalleries: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from NHDL_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("NHDL_HOST"); v != "" {
		c.Site.Host = v
	}
	if v := os.Getenv("NHDL_USER_AGENT"); v != "" {
		c.Site.UserAgent = v
	}
	if v := os.Getenv("NHDL_COOKIE"); v != "" {
		c.Site.Cookie = v
	}
	if v := os.Getenv("NHDL_ACCOUNT"); v != "" {
		c.Site.Account = v
	}
	if v := os.Getenv("NHDL_PROXY"); v != "" {
		c.HTTP.Proxy = v
	}
	if v := os.Getenv("NHDL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("NHDL_TIMEOUT: %w", err))
		} else {
			c.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("NHDL_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("NHDL_REQUESTS_PER_SECOND: %w", err))
		} else {
			c.RateLimit.RequestsPerSecond = rps
		}
	}
	if v := os.Getenv("NHDL_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("NHDL_OVERWRITE"); v != "" {
		c.Output.Overwrite = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("NHDL_CHECK_MISSING"); v != "" {
		c.Output.CheckMissing = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("NHDL_CONCURRENT_GALLERIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("NHDL_CONCURRENT_GALLERIES: %w", err))
		} else {
			c.Download.ConcurrentGalleries = n
		}
	}
	if v := os.Getenv("NHDL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NHDL_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".nhdl.yaml",
		".nhdl.yml",
		filepath.Join(home, ".config", "nhdl", "config.yaml"),
		filepath.Join(home, ".nhdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.Host == "" {
		errs = append(errs, errors.New("site host is required"))
	}
	if c.Site.Scheme != "http" && c.Site.Scheme != "https" {
		errs = append(errs, fmt.Errorf("unsupported site scheme %q", c.Site.Scheme))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.HTTP.MaxRedirects < 0 {
		errs = append(errs, errors.New("max redirects cannot be negative"))
	}
	if c.HTTP.Proxy != "" {
		u, err := url.Parse(c.HTTP.Proxy)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid proxy url: %w", err))
		case u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "socks5":
			errs = append(errs, fmt.Errorf("unsupported proxy scheme %q", u.Scheme))
		}
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}
	if c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("burst cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.Overwrite && !c.Output.CheckMissing {
		errs = append(errs, errors.New("overwrite cannot be combined with check_missing=false"))
	}

	if c.Download.ConcurrentPages <= 0 || c.Download.ConcurrentPages > MaxConcurrentPages {
		errs = append(errs, fmt.Errorf("concurrent pages must be between 1 and %d", MaxConcurrentPages))
	}
	if c.Download.ConcurrentGalleries <= 0 {
		errs = append(errs, errors.New("concurrent galleries must be positive"))
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies flags that were explicitly set on the command line.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["path"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["overwrite"].(bool); ok {
		c.Output.Overwrite = v
	}
	if v, ok := flags["no-check-missing-pages"].(bool); ok && v {
		c.Output.CheckMissing = false
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["verbose"].(bool); ok && v {
		c.Logging.Level = "trace"
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Site.Account = v
	}
	if v, ok := flags["proxy"].(string); ok && v != "" {
		c.HTTP.Proxy = v
	}
	if v, ok := flags["galleries"].(int); ok && v > 0 {
		c.Download.ConcurrentGalleries = v
	}
}

// SiteRoot returns the site's base URL, e.g. https://nhentai.net
func (c *Config) SiteRoot() string {
	return c.Site.Scheme + "://" + c.Site.Host
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".nhdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
