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

// Config holds all configuration options for the board scraper
type Config struct {
	// Pinterest endpoint settings
	Pinterest PinterestConfig `yaml:"pinterest" json:"pinterest"`

	// Local pin cache
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Resource download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PinterestConfig holds settings for talking to the site
type PinterestConfig struct {
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`
}

// CacheConfig holds pin cache configuration
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Directory string `yaml:"directory" json:"directory"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	OutputDirectory     string        `yaml:"output_directory" json:"output_directory"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RetryAttempts       int           `yaml:"retry_attempts" json:"retry_attempts"`
	SkipVideos          bool          `yaml:"skip_videos" json:"skip_videos"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pinterest: PinterestConfig{
			BaseURL:         "https://pinterest.com",
			UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RequestTimeout:  30 * time.Second,
			RequestInterval: 0,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: defaultCacheDirectory(),
		},
		Download: DownloadConfig{
			OutputDirectory:     "./pins",
			ConcurrentDownloads: 3,
			DownloadTimeout:     60 * time.Second,
			RetryAttempts:       3,
			SkipVideos:          false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// defaultCacheDirectory follows XDG_CACHE_HOME where the OS provides one
func defaultCacheDirectory() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "pinscraper")
	}
	return ".pinscraper-cache"
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if baseURL := os.Getenv("PINSCRAPER_BASE_URL"); baseURL != "" {
		c.Pinterest.BaseURL = baseURL
	}
	if userAgent := os.Getenv("PINSCRAPER_USER_AGENT"); userAgent != "" {
		c.Pinterest.UserAgent = userAgent
	}
	if timeout := os.Getenv("PINSCRAPER_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("PINSCRAPER_REQUEST_TIMEOUT: %w", err))
		} else {
			c.Pinterest.RequestTimeout = d
		}
	}
	if interval := os.Getenv("PINSCRAPER_REQUEST_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			errs = append(errs, fmt.Errorf("PINSCRAPER_REQUEST_INTERVAL: %w", err))
		} else {
			c.Pinterest.RequestInterval = d
		}
	}

	if cacheDir := os.Getenv("PINSCRAPER_CACHE_DIR"); cacheDir != "" {
		c.Cache.Directory = cacheDir
	}
	if cacheEnabled := os.Getenv("PINSCRAPER_CACHE_ENABLED"); cacheEnabled != "" {
		c.Cache.Enabled = strings.ToLower(cacheEnabled) == "true"
	}

	if outputDir := os.Getenv("PINSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}
	if concurrent := os.Getenv("PINSCRAPER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		val, err := strconv.Atoi(concurrent)
		if err != nil {
			errs = append(errs, fmt.Errorf("PINSCRAPER_CONCURRENT_DOWNLOADS: %w", err))
		} else if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if attempts := os.Getenv("PINSCRAPER_RETRY_ATTEMPTS"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			errs = append(errs, fmt.Errorf("PINSCRAPER_RETRY_ATTEMPTS: %w", err))
		} else {
			c.Download.RetryAttempts = val
		}
	}
	if skipVideos := os.Getenv("PINSCRAPER_SKIP_VIDEOS"); skipVideos != "" {
		c.Download.SkipVideos = strings.ToLower(skipVideos) == "true"
	}

	if logLevel := os.Getenv("PINSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("PINSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".pinscraper.yaml",
		".pinscraper.yml",
		filepath.Join(home, ".config", "pinscraper", "config.yaml"),
		filepath.Join(home, ".config", "pinscraper", "config.yml"),
		filepath.Join(home, ".pinscraper.yaml"),
		filepath.Join(home, ".pinscraper.yml"),
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

	if c.Pinterest.BaseURL == "" {
		errs = append(errs, errors.New("pinterest base URL is required"))
	} else if u, err := url.Parse(c.Pinterest.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid pinterest base URL %q", c.Pinterest.BaseURL))
	}
	if c.Pinterest.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}
	if c.Pinterest.RequestInterval < 0 {
		errs = append(errs, errors.New("request interval cannot be negative"))
	}

	if c.Cache.Enabled && c.Cache.Directory == "" {
		errs = append(errs, errors.New("cache directory is required when the cache is enabled"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RetryAttempts < 1 {
		errs = append(errs, errors.New("retry attempts must be at least 1"))
	}
	if c.Download.OutputDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
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

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Pinterest.BaseURL = baseURL
	}
	if interval, ok := flags["request-interval"].(time.Duration); ok && interval > 0 {
		c.Pinterest.RequestInterval = interval
	}
	if cacheDir, ok := flags["cache-dir"].(string); ok && cacheDir != "" {
		c.Cache.Directory = cacheDir
	}
	if noCache, ok := flags["no-cache"].(bool); ok && noCache {
		c.Cache.Enabled = false
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Download.OutputDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if skipVideos, ok := flags["skip-videos"].(bool); ok && skipVideos {
		c.Download.SkipVideos = true
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// CachePath returns the default cache file location for a board
func (c *Config) CachePath(userName, boardName string) string {
	return filepath.Join(c.Cache.Directory, userName, boardName+".json")
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pinscraper.env"))

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
