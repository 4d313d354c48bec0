package internal

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Config holds application settings
type Config struct {
	// User configurable settings
	BackendURL         string
	RequestTimeout     time.Duration
	PollInterval       time.Duration
	ClockInterval      time.Duration
	UserID             string
	DefaultMode        string
	Public             bool
	ListenAddr         string
	SessionIdleTimeout time.Duration
	LogLevel           string
	Verbose            bool
	Quiet              bool
	SummaryModel       string
	SummaryTimeout     time.Duration
	OpenAIAPIKey       string
	Prompt             string
	UploadConcurrency  int

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
	StoreDir  string
	LogFile   string
}

//go:embed config.toml prompt.txt
var defaultFS embed.FS

// ValidLogLevels are the accepted log_level values
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Fprintf(os.Stderr, "Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig writes the embedded config.toml to configDir if missing
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompt writes the embedded prompt.txt to configDir if missing
func EnsureDefaultPrompt(configDir string) error {
	return ensureDefaultFile(configDir, "prompt.txt", "prompt template")
}

// newViper sets defaults, config file lookup and env binding
func newViper(configDir, configFile string) *viper.Viper {
	v := viper.New()

	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("clock_interval", DefaultClockInterval)
	v.SetDefault("user_id", "")
	v.SetDefault("default_mode", "transcribe")
	v.SetDefault("public", false)
	v.SetDefault("listen_addr", "127.0.0.1:8765")
	v.SetDefault("session_idle_timeout", DefaultSessionIdleTimeout)
	v.SetDefault("log_level", "info")
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("summary_model", "gpt-4o-mini")
	v.SetDefault("summary_timeout", 2*time.Minute)
	v.SetDefault("prompt", "") // empty uses prompt.txt from the config directory
	v.SetDefault("upload_concurrency", 2)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("READTUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("openai_api_key", "READTUBE_OPENAI_API_KEY", "OPENAI_API_KEY")

	return v
}

// InitConfig loads configuration from defaults, the config file and the environment.
// configFile overrides the XDG location when non-empty.
func InitConfig(configFile string) *Config {
	configDir := filepath.Join(xdg.ConfigHome, "readtube")
	dataDir := filepath.Join(xdg.DataHome, "readtube")
	cacheDir := filepath.Join(xdg.CacheHome, "readtube")

	v := newViper(configDir, configFile)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := configFromViper(v)
	config.ConfigDir = configDir
	config.DataDir = dataDir
	config.CacheDir = cacheDir
	config.StoreDir = filepath.Join(dataDir, "store")
	config.LogFile = filepath.Join(cacheDir, "readtube.log")

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	return config
}

func configFromViper(v *viper.Viper) *Config {
	return &Config{
		BackendURL:         v.GetString("backend_url"),
		RequestTimeout:     v.GetDuration("request_timeout"),
		PollInterval:       v.GetDuration("poll_interval"),
		ClockInterval:      v.GetDuration("clock_interval"),
		UserID:             v.GetString("user_id"),
		DefaultMode:        v.GetString("default_mode"),
		Public:             v.GetBool("public"),
		ListenAddr:         v.GetString("listen_addr"),
		SessionIdleTimeout: v.GetDuration("session_idle_timeout"),
		LogLevel:           strings.ToLower(v.GetString("log_level")),
		Verbose:            v.GetBool("verbose"),
		Quiet:              v.GetBool("quiet"),
		SummaryModel:       v.GetString("summary_model"),
		SummaryTimeout:     v.GetDuration("summary_timeout"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		Prompt:             v.GetString("prompt"),
		UploadConcurrency:  v.GetInt("upload_concurrency"),
	}
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}
	if !slices.Contains(ValidModes, c.DefaultMode) {
		return fmt.Errorf("default_mode must be one of %s, got %q", strings.Join(ValidModes, ", "), c.DefaultMode)
	}
	if !slices.Contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(ValidLogLevels, ", "), c.LogLevel)
	}
	switch {
	case c.RequestTimeout <= 0:
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	case c.ClockInterval <= 0:
		return fmt.Errorf("clock_interval must be positive, got %s", c.ClockInterval)
	case c.SessionIdleTimeout <= 0:
		return fmt.Errorf("session_idle_timeout must be positive, got %s", c.SessionIdleTimeout)
	case c.UploadConcurrency < 1:
		return fmt.Errorf("upload_concurrency must be at least 1, got %d", c.UploadConcurrency)
	}
	if c.Verbose && c.Quiet {
		return fmt.Errorf("verbose and quiet cannot both be set")
	}
	return nil
}

// EffectiveLogLevel lowers the level to debug when verbose output was asked for
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}
