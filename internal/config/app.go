package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// AppConfig represents the runtime configuration of the CLI and server
type AppConfig struct {
	Store   StoreConfig `yaml:"store"`
	HTTP    HTTPConfig  `yaml:"http"`
	Policy  string      `yaml:"policy"`  // Optional policy YAML path
	Profile string      `yaml:"profile"` // Optional profile YAML path
	Catalog string      `yaml:"catalog"` // Optional nutrition catalog path
	Log     string      `yaml:"log_level"`
}

// StoreConfig selects the history backend
type StoreConfig struct {
	Driver    string        `yaml:"driver"`
	DSN       string        `yaml:"dsn"`       // sqlite path or postgres URL
	Addr      string        `yaml:"addr"`      // redis host:port
	DB        int           `yaml:"db"`        // redis database
	Namespace string        `yaml:"namespace"` // history key prefix
	Timeout   time.Duration `yaml:"timeout"`   // per-call storage timeout
	Circuit   CircuitConfig `yaml:"circuit"`   // redis breaker
}

// CircuitConfig represents circuit breaker configuration
type CircuitConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"` // Consecutive failures to open circuit
	OpenFor          time.Duration `yaml:"open_for"`          // Time before a half-open trial call
}

// HTTPConfig holds the API server settings
type HTTPConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	RPS          float64       `yaml:"rps"`   // Requests per second
	Burst        int           `yaml:"burst"` // Burst capacity
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MemoSize     int           `yaml:"memo_size"`
}

// DefaultAppConfig returns the defaults with environment overrides applied
func DefaultAppConfig() *AppConfig {
	cfg := &AppConfig{
		Store: StoreConfig{
			Driver:    StoreSQLite,
			DSN:       "cascade.db",
			Addr:      "127.0.0.1:6379",
			Namespace: "cascade",
			Timeout:   2 * time.Second,
			Circuit: CircuitConfig{
				FailureThreshold: 5,
				OpenFor:          30 * time.Second,
			},
		},
		HTTP: HTTPConfig{
			Host:         "127.0.0.1", // Local-only by default
			Port:         8080,
			RPS:          20,
			Burst:        40,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			MemoSize:     256,
		},
		Log: "info",
	}
	cfg.applyEnv()
	return cfg
}

// LoadAppConfig overlays a YAML file on the defaults; the environment wins
// over both.
func LoadAppConfig(configPath string) (*AppConfig, error) {
	cfg := DefaultAppConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read app config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse app config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if store := os.Getenv("CASCADE_STORE"); store != "" {
		c.Store.Driver = store
	}
	if portStr := os.Getenv("HTTP_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			c.HTTP.Port = p
		}
	}
}

// Validate ensures the configuration is usable
func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Namespace == "" {
		return fmt.Errorf("store namespace must not be empty")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d out of range", c.HTTP.Port)
	}
	if c.HTTP.RPS <= 0 || c.HTTP.Burst < 1 {
		return fmt.Errorf("http rps and burst must be positive")
	}
	return nil
}

// LoadProfile reads a user profile, filling unset fields from the default.
func LoadProfile(path string) (day.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return day.Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	profile := day.DefaultProfile()
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return day.Profile{}, fmt.Errorf("failed to parse profile: %w", err)
	}

	switch profile.Goal {
	case day.GoalMaintain, day.GoalDeficit, day.GoalSurplus:
	default:
		return day.Profile{}, fmt.Errorf("unknown goal %q", profile.Goal)
	}
	if profile.CalorieNorm <= 0 {
		return day.Profile{}, fmt.Errorf("calorie_norm must be positive")
	}
	return profile, nil
}
