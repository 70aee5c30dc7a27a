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

// Config holds all configuration options for the Canvas scraper
type Config struct {
	// Canvas instance and credentials
	Canvas CanvasConfig `yaml:"canvas" json:"canvas"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retry policy for failed downloads
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CanvasConfig holds Canvas-specific configuration
type CanvasConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Username  string `yaml:"username" json:"username"`
	Password  string `yaml:"password" json:"password"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	Headless  bool   `yaml:"headless" json:"headless"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Dir             string        `yaml:"dir" json:"dir"`
	SkipExisting    bool          `yaml:"skip_existing" json:"skip_existing"`
	Delay           time.Duration `yaml:"delay" json:"delay"`
	PageTimeout     time.Duration `yaml:"page_timeout" json:"page_timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// RetryConfig holds the retry policy for failed downloads
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay      time.Duration `yaml:"initial_delay" json:"initial_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	// Debug forces debug level and enables HTML snapshots of each navigation
	Debug bool `yaml:"debug" json:"debug"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Canvas: CanvasConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:  true,
		},
		Download: DownloadConfig{
			Dir:             "./canvas_files",
			SkipExisting:    true,
			Delay:           2 * time.Second,
			PageTimeout:     20 * time.Second,
			DownloadTimeout: 60 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			InitialDelay:      2 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("CANVASGRAB_URL"); baseURL != "" {
		c.Canvas.BaseURL = baseURL
	}
	if username := os.Getenv("CANVASGRAB_USERNAME"); username != "" {
		c.Canvas.Username = username
	}
	if password := os.Getenv("CANVASGRAB_PASSWORD"); password != "" {
		c.Canvas.Password = password
	}
	if userAgent := os.Getenv("CANVASGRAB_USER_AGENT"); userAgent != "" {
		c.Canvas.UserAgent = userAgent
	}
	if headless := os.Getenv("CANVASGRAB_HEADLESS"); headless != "" {
		c.Canvas.Headless = strings.ToLower(headless) == "true"
	}

	if dir := os.Getenv("CANVASGRAB_DOWNLOAD_DIR"); dir != "" {
		c.Download.Dir = dir
	}
	if skip := os.Getenv("CANVASGRAB_SKIP_EXISTING"); skip != "" {
		c.Download.SkipExisting = strings.ToLower(skip) == "true"
	}
	if delay := os.Getenv("CANVASGRAB_DELAY_SECONDS"); delay != "" {
		if secs, err := strconv.ParseFloat(delay, 64); err == nil && secs >= 0 {
			c.Download.Delay = time.Duration(secs * float64(time.Second))
		}
	}

	if logLevel := os.Getenv("CANVASGRAB_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if debug := os.Getenv("CANVASGRAB_DEBUG"); debug != "" {
		c.Logging.Debug = strings.ToLower(debug) == "true"
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // no config file found, not an error
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

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".canvasgrab.yaml",
		".canvasgrab.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "canvasgrab", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "canvasgrab", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".canvasgrab.yaml"),
		filepath.Join(os.Getenv("HOME"), ".canvasgrab.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// required here; the scrape command resolves them from the credential
// store or an interactive prompt.
func (c *Config) Validate() error {
	var errs []error

	if c.Canvas.BaseURL == "" {
		errs = append(errs, errors.New("canvas URL is required"))
	} else {
		u, err := url.Parse(c.Canvas.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("canvas URL %q is not an absolute URL", c.Canvas.BaseURL))
		}
	}

	if c.Download.Dir == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.Delay < 0 {
		errs = append(errs, errors.New("delay cannot be negative"))
	}
	if c.Download.PageTimeout <= 0 {
		errs = append(errs, errors.New("page timeout must be positive"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Retry.BackoffMultiplier < 1 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["url"].(string); ok && baseURL != "" {
		c.Canvas.BaseURL = baseURL
	}
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Canvas.Username = username
	}
	if password, ok := flags["password"].(string); ok && password != "" {
		c.Canvas.Password = password
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Canvas.Headless = headless
	}
	if dir, ok := flags["output"].(string); ok && dir != "" {
		c.Download.Dir = dir
	}
	if noSkip, ok := flags["no-skip"].(bool); ok && noSkip {
		c.Download.SkipExisting = false
	}
	if delay, ok := flags["delay"].(float64); ok && delay >= 0 {
		c.Download.Delay = time.Duration(delay * float64(time.Second))
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries > 0 {
		c.Retry.MaxAttempts = maxRetries
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if debug, ok := flags["debug"].(bool); ok && debug {
		c.Logging.Debug = true
	}

	if c.Logging.Debug {
		c.Logging.Level = "debug"
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".canvasgrab.env"))

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
