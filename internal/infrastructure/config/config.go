package config

import (
	"encoding/json"
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. DUPFIND_SERVER_PORT
const EnvPrefix = "DUPFIND"

// Config represents the application configuration
type Config struct {
	Server      ServerConfig     `json:"server" yaml:"server"`
	Database    DatabaseConfig   `json:"database" yaml:"database"`
	Matching    MatchingConfig   `json:"matching" yaml:"matching"`
	Processing  ProcessingConfig `json:"processing" yaml:"processing"`
	Deletion    DeletionConfig   `json:"deletion" yaml:"deletion"`
	Logging     LoggingConfig    `json:"logging" yaml:"logging"`
	Security    SecurityConfig   `json:"security" yaml:"security"`
	Environment string           `json:"environment,omitempty" yaml:"environment,omitempty"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	ReadTimeout  string `json:"readTimeout,omitempty" yaml:"read_timeout,omitempty" split_words:"true"`
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"write_timeout,omitempty" split_words:"true"`
	IdleTimeout  string `json:"idleTimeout,omitempty" yaml:"idle_timeout,omitempty" split_words:"true"`
	EnableTLS    bool   `json:"enableTLS" yaml:"enable_tls" split_words:"true"`
	CertFile     string `json:"certFile" yaml:"cert_file" split_words:"true"`
	KeyFile      string `json:"keyFile" yaml:"key_file" split_words:"true"`
}

// GetReadTimeout returns parsed read timeout duration
func (s *ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(s.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns parsed write timeout duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(s.WriteTimeout, 30*time.Second)
}

// GetIdleTimeout returns parsed idle timeout duration
func (s *ServerConfig) GetIdleTimeout() time.Duration {
	return parseDuration(s.IdleTimeout, 60*time.Second)
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path         string `json:"path" yaml:"path"`
	MaxOpenConns int    `json:"maxOpenConns" yaml:"max_open_conns" split_words:"true"`
	MaxIdleConns int    `json:"maxIdleConns" yaml:"max_idle_conns" split_words:"true"`
	MaxLifetime  string `json:"maxLifetime,omitempty" yaml:"max_lifetime,omitempty" split_words:"true"`
}

// GetMaxLifetime returns parsed max lifetime duration
func (d *DatabaseConfig) GetMaxLifetime() time.Duration {
	return parseDuration(d.MaxLifetime, time.Hour)
}

// MatchingConfig holds the defaults applied to every duplicate search.
// Sizes are human readable ("4MiB", "10kb"); an empty MaxSize is unbounded.
type MatchingConfig struct {
	Recursive     bool     `json:"recursive" yaml:"recursive"`
	MatchContents bool     `json:"matchContents" yaml:"match_contents" split_words:"true"`
	ChunkSize     string   `json:"chunkSize" yaml:"chunk_size" split_words:"true"`
	MinSize       string   `json:"minSize,omitempty" yaml:"min_size,omitempty" split_words:"true"`
	MaxSize       string   `json:"maxSize,omitempty" yaml:"max_size,omitempty" split_words:"true"`
	IncludeExt    []string `json:"includeExt,omitempty" yaml:"include_ext,omitempty" split_words:"true"`
	ExcludeExt    []string `json:"excludeExt,omitempty" yaml:"exclude_ext,omitempty" split_words:"true"`
	Workers       int      `json:"workers" yaml:"workers"`
	Ordering      string   `json:"ordering" yaml:"ordering"`
}

// ProcessingConfig contains general processing configuration
type ProcessingConfig struct {
	SaveInterval          string `json:"saveInterval,omitempty" yaml:"save_interval,omitempty" split_words:"true"`
	MaxStoredErrors       int    `json:"maxStoredErrors" yaml:"max_stored_errors" split_words:"true"`
	ProgressRetentionDays int    `json:"progressRetentionDays" yaml:"progress_retention_days" split_words:"true"`
}

// GetSaveInterval returns parsed save interval duration
func (p *ProcessingConfig) GetSaveInterval() time.Duration {
	return parseDuration(p.SaveInterval, 5*time.Second)
}

// DeletionConfig contains file deletion configuration
type DeletionConfig struct {
	MoveToTrash bool `json:"moveToTrash" yaml:"move_to_trash" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level   string `json:"level" yaml:"level"`
	Format  string `json:"format" yaml:"format"`
	Output  string `json:"output" yaml:"output"`
	NoColor bool   `json:"noColor" yaml:"no_color" split_words:"true"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	EnableCORS      bool     `json:"enableCORS" yaml:"enable_cors" split_words:"true"`
	AllowedOrigins  []string `json:"allowedOrigins" yaml:"allowed_origins" split_words:"true"`
	EnableRateLimit bool     `json:"enableRateLimit" yaml:"enable_rate_limit" split_words:"true"`
	RateLimit       int      `json:"rateLimit" yaml:"rate_limit" split_words:"true"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			ReadTimeout:  "30s",
			WriteTimeout: "30s",
			IdleTimeout:  "60s",
		},
		Database: DatabaseConfig{
			Path:         "./data/dupfind.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			MaxLifetime:  "1h",
		},
		Matching: MatchingConfig{
			Recursive:     true,
			MatchContents: true,
			ChunkSize:     "4MiB",
			Workers:       1,
			Ordering:      "none",
		},
		Processing: ProcessingConfig{
			SaveInterval:          "5s",
			MaxStoredErrors:       1000,
			ProgressRetentionDays: 30,
		},
		Deletion: DeletionConfig{
			MoveToTrash: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Security: SecurityConfig{
			EnableCORS:     true,
			AllowedOrigins: []string{"*"},
			RateLimit:      120,
		},
	}
}

// LoadConfig loads configuration from a file (supports both JSON and YAML)
// and applies DUPFIND_* environment overrides on top of it
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFile(config, configPath); err != nil {
			return nil, err
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadFile(config *Config, configPath string) error {
	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(config, configPath); err != nil {
			return fmt.Errorf("failed to create default config file: %w", err)
		}
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	default:
		// Try JSON first, then YAML
		if err := json.Unmarshal(data, config); err != nil {
			if yamlErr := yaml.Unmarshal(data, config); yamlErr != nil {
				return fmt.Errorf("failed to parse config file as JSON or YAML: JSON error: %v, YAML error: %v", err, yamlErr)
			}
		}
	}

	return nil
}

// ApplyEnv overrides configuration values from DUPFIND_* environment variables.
// Only variables that are set change the configuration.
func ApplyEnv(config *Config) error {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("parsing environment variables: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a file (supports both JSON and YAML)
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
	default:
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Matching.Workers <= 0 {
		return fmt.Errorf("matching workers must be positive")
	}

	if _, err := entities.ParseMatchOrdering(c.Matching.Ordering); err != nil {
		return err
	}

	if _, err := c.MatchSettings(""); err != nil {
		return err
	}

	if c.Security.EnableRateLimit && c.Security.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive when enabled")
	}

	if c.Processing.MaxStoredErrors < 0 {
		return fmt.Errorf("max stored errors cannot be negative")
	}

	return nil
}

// MatchSettings builds the search defaults for root from the matching section
func (c *Config) MatchSettings(root string) (entities.MatchSettings, error) {
	settings := entities.DefaultMatchSettings(root)
	m := c.Matching

	settings.Recursive = m.Recursive
	settings.MatchContents = m.MatchContents
	settings.Workers = m.Workers
	settings.MoveToTrash = c.Deletion.MoveToTrash
	settings.IncludeExt = entities.NormalizeExtensions(m.IncludeExt)
	settings.ExcludeExt = entities.NormalizeExtensions(m.ExcludeExt)

	order, err := entities.ParseMatchOrdering(m.Ordering)
	if err != nil {
		return settings, err
	}
	settings.Ordering = order

	chunk, err := ParseSize(m.ChunkSize, entities.DefaultChunkSize)
	if err != nil {
		return settings, fmt.Errorf("invalid chunk size: %w", err)
	}
	settings.ChunkSize = chunk

	minSize, err := ParseSize(m.MinSize, 0)
	if err != nil {
		return settings, fmt.Errorf("invalid min size: %w", err)
	}
	maxSize, err := ParseSize(m.MaxSize, -1)
	if err != nil {
		return settings, fmt.Errorf("invalid max size: %w", err)
	}
	if maxSize == 0 {
		maxSize = -1
	}
	settings.SetSizeRange(minSize, maxSize)

	return settings.Normalize(), nil
}

// GetAddress returns the server address in host:port format
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := c.environment()
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	env := c.environment()
	return env == "development" || env == "dev" || env == ""
}

func (c *Config) environment() string {
	if c.Environment != "" {
		return c.Environment
	}
	return os.Getenv("ENV")
}

// ParseSize parses a human readable size such as "4MiB" or "10kb".
// An empty string yields def.
func ParseSize(s string, def int64) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return math.MaxInt64, nil
	}
	return int64(n), nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// ConfigManager provides methods for managing configuration
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new configuration manager
func NewConfigManager(configPath string) (*ConfigManager, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	return &ConfigManager{
		config:     config,
		configPath: configPath,
	}, nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// UpdateConfig updates the configuration and saves it to file
func (cm *ConfigManager) UpdateConfig(newConfig *Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}

	cm.config = newConfig
	return SaveConfig(cm.config, cm.configPath)
}

// ReloadConfig reloads configuration from file
func (cm *ConfigManager) ReloadConfig() error {
	config, err := LoadConfig(cm.configPath)
	if err != nil {
		return err
	}

	cm.config = config
	return nil
}
