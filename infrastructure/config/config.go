package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domainconfig "wayfinder/domain/config"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string   `yaml:"server_address"`
	Environment    string   `yaml:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Requests per minute per client IP; zero disables the limit
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// Storage
	Store     string        `yaml:"store"`
	AWSRegion string        `yaml:"aws_region"`
	TableName string        `yaml:"table_name"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
	LockOwner string        `yaml:"lock_owner"`

	// Messaging; an empty bus name logs events instead of publishing them
	EventBusName string `yaml:"event_bus_name"`

	// Remote backend for the editor console
	BackendURL string `yaml:"backend_url"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Feature flags
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`

	Domain *domainconfig.DomainConfig `yaml:"domain"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:  ":8080",
		Environment:    "development",
		AllowedOrigins: []string{"*"},
		Store:          StoreMemory,
		AWSRegion:      "us-west-2",
		LockTTL:        30 * time.Second,
		LogLevel:       "info",
		EnableMetrics:  true,
		Domain:         domainconfig.DefaultDomainConfig(),

		RateLimitPerMinute: 600,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file
// named by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Domain = domainconfig.LoadDomainConfig(env)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if c.Domain == nil {
		c.Domain = domainconfig.DefaultDomainConfig()
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", c.AllowedOrigins)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)

	c.Store = strings.ToLower(getEnv("STORE", c.Store))
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TableName = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.TableName))
	c.LockTTL = getEnvDuration("LOCK_TTL", c.LockTTL)
	c.LockOwner = getEnv("LOCK_OWNER", c.LockOwner)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.BackendURL = getEnv("BACKEND_URL", c.BackendURL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)

	c.Domain.AutoFinishTolerance = getEnvFloat("AUTO_FINISH_TOLERANCE", c.Domain.AutoFinishTolerance)
	c.Domain.NodeHitRadius = getEnvFloat("NODE_HIT_RADIUS", c.Domain.NodeHitRadius)
	c.Domain.AngleEpsilonDegrees = getEnvFloat("ANGLE_EPSILON_DEGREES", c.Domain.AngleEpsilonDegrees)
	c.Domain.DefaultSearchLimit = getEnvInt("DEFAULT_SEARCH_LIMIT", c.Domain.DefaultSearchLimit)
}

// Validate checks that the settings are consistent
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreDynamoDB:
		if c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required when STORE=%s", StoreDynamoDB)
		}
	default:
		return fmt.Errorf("unknown STORE %q, want %s or %s", c.Store, StoreMemory, StoreDynamoDB)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE cannot be negative, got %d", c.RateLimitPerMinute)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive, got %s", c.LockTTL)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.Domain == nil {
		return fmt.Errorf("domain configuration is missing")
	}
	if err := c.Domain.Validate(); err != nil {
		return fmt.Errorf("domain configuration: %w", err)
	}
	return nil
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
