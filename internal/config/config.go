// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Assistant transports.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds all application configuration.
type Config struct {
	API        APIConfig
	Store      StoreConfig
	Assistant  AssistantConfig
	Transcript TranscriptConfig
	Log        LogConfig
	Mock       MockConfig
}

// APIConfig holds hostel REST API client configuration.
type APIConfig struct {
	URL               string        `envconfig:"HOSTELMATE_API_URL" default:"http://localhost:8080/api/"`
	Timeout           time.Duration `envconfig:"HOSTELMATE_API_TIMEOUT" default:"15s"`
	RetryMax          int           `envconfig:"HOSTELMATE_API_RETRY_MAX" default:"2"`
	RetryWaitMin      time.Duration `envconfig:"HOSTELMATE_API_RETRY_WAIT_MIN" default:"200ms"`
	RetryWaitMax      time.Duration `envconfig:"HOSTELMATE_API_RETRY_WAIT_MAX" default:"2s"`
	RequestsPerSecond float64       `envconfig:"HOSTELMATE_API_RPS" default:"0"` // 0 = unlimited
	Burst             int           `envconfig:"HOSTELMATE_API_BURST" default:"1"`
	RevokeOnLogout    bool          `envconfig:"HOSTELMATE_REVOKE_ON_LOGOUT" default:"false"`
}

// StoreConfig holds local persistence configuration.
type StoreConfig struct {
	DBPath string `envconfig:"HOSTELMATE_DB_PATH" default:"./data/hostelmate.db"`
}

// AssistantConfig holds NLU service and turn timing configuration.
type AssistantConfig struct {
	Transport string        `envconfig:"HOSTELMATE_ASSISTANT_TRANSPORT" default:"http"`
	URL       string        `envconfig:"HOSTELMATE_ASSISTANT_URL" default:"http://localhost:8080/assistant/"`
	GRPCAddr  string        `envconfig:"HOSTELMATE_ASSISTANT_GRPC_ADDR" default:"localhost:50061"`
	BotID     string        `envconfig:"HOSTELMATE_BOT_ID" default:"KWXIOTZDRV"`
	AliasID   string        `envconfig:"HOSTELMATE_BOT_ALIAS_ID" default:"TSTALIASID"`
	LocaleID  string        `envconfig:"HOSTELMATE_BOT_LOCALE" default:"en_US"`
	Timeout   time.Duration `envconfig:"HOSTELMATE_ASSISTANT_TIMEOUT" default:"15s"`

	ThinkTime       time.Duration `envconfig:"HOSTELMATE_THINK_TIME" default:"1s"`
	PerCharDelay    time.Duration `envconfig:"HOSTELMATE_PER_CHAR_DELAY" default:"15ms"`
	MinDisplayDelay time.Duration `envconfig:"HOSTELMATE_MIN_DISPLAY_DELAY" default:"1500ms"`
	MaxDisplayDelay time.Duration `envconfig:"HOSTELMATE_MAX_DISPLAY_DELAY" default:"3s"`
	FailureDelay    time.Duration `envconfig:"HOSTELMATE_FAILURE_DELAY" default:"1500ms"`
}

// TranscriptConfig controls NDJSON logging of assistant conversations.
type TranscriptConfig struct {
	Enabled   bool   `envconfig:"HOSTELMATE_CHAT_LOG_ENABLED" default:"false"`
	Dir       string `envconfig:"HOSTELMATE_CHAT_LOG_DIR" default:"./data/logs/conversations"`
	QueueSize int    `envconfig:"HOSTELMATE_CHAT_LOG_QUEUE_SIZE" default:"256"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
	File   string `envconfig:"HOSTELMATE_LOG_FILE"`
}

// MockConfig holds configuration for the local mock backend.
type MockConfig struct {
	Addr      string        `envconfig:"HOSTELMATE_MOCK_ADDR" default:":8080"`
	GRPCAddr  string        `envconfig:"HOSTELMATE_MOCK_GRPC_ADDR" default:":50061"`
	UsersFile string        `envconfig:"HOSTELMATE_MOCK_USERS"`
	TokenTTL  time.Duration `envconfig:"HOSTELMATE_MOCK_TOKEN_TTL" default:"24h"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Assistant.Transport = strings.ToLower(strings.TrimSpace(cfg.Assistant.Transport))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if err := validateURL("HOSTELMATE_API_URL", c.API.URL); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("HOSTELMATE_API_TIMEOUT must be > 0")
	}
	if c.API.RetryMax < 0 {
		return fmt.Errorf("HOSTELMATE_API_RETRY_MAX must be >= 0")
	}
	if c.API.RetryWaitMin > c.API.RetryWaitMax {
		return fmt.Errorf("HOSTELMATE_API_RETRY_WAIT_MIN must not exceed HOSTELMATE_API_RETRY_WAIT_MAX")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("HOSTELMATE_API_RPS must be >= 0")
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("HOSTELMATE_DB_PATH cannot be empty")
	}

	switch c.Assistant.Transport {
	case TransportHTTP:
		if err := validateURL("HOSTELMATE_ASSISTANT_URL", c.Assistant.URL); err != nil {
			return err
		}
	case TransportGRPC:
		if c.Assistant.GRPCAddr == "" {
			return fmt.Errorf("HOSTELMATE_ASSISTANT_GRPC_ADDR cannot be empty")
		}
	default:
		return fmt.Errorf("HOSTELMATE_ASSISTANT_TRANSPORT must be %q or %q, got %q", TransportHTTP, TransportGRPC, c.Assistant.Transport)
	}
	if c.Assistant.BotID == "" || c.Assistant.AliasID == "" || c.Assistant.LocaleID == "" {
		return fmt.Errorf("bot id, alias id and locale cannot be empty")
	}
	if c.Assistant.Timeout <= 0 {
		return fmt.Errorf("HOSTELMATE_ASSISTANT_TIMEOUT must be > 0")
	}
	if c.Assistant.ThinkTime < 0 || c.Assistant.PerCharDelay < 0 || c.Assistant.FailureDelay < 0 {
		return fmt.Errorf("assistant delays must be >= 0")
	}
	if c.Assistant.MinDisplayDelay > c.Assistant.MaxDisplayDelay {
		return fmt.Errorf("HOSTELMATE_MIN_DISPLAY_DELAY must not exceed HOSTELMATE_MAX_DISPLAY_DELAY")
	}

	if c.Transcript.Enabled {
		if c.Transcript.Dir == "" {
			return fmt.Errorf("HOSTELMATE_CHAT_LOG_DIR cannot be empty")
		}
		if c.Transcript.QueueSize <= 0 {
			return fmt.Errorf("HOSTELMATE_CHAT_LOG_QUEUE_SIZE must be > 0")
		}
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// IsLocalAPI returns true if the API points at a loopback host.
func (c *Config) IsLocalAPI() bool {
	return strings.Contains(c.API.URL, "localhost") ||
		strings.Contains(c.API.URL, "127.0.0.1")
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}
