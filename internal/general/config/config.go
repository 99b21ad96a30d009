package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	JWT struct {
		SecretKey string
		TTLHours  int
	}
	Services struct {
		GatewayPort        int
		UserServicePort    int
		CaptainServicePort int
		RideServicePort    int
	}
	Relay struct {
		WaitTimeoutSeconds int // how long a status-check request may block
		CacheTTLSeconds    int // retention window for unclaimed updates
		MaxWaiters         int // cap on concurrent pending waiters
	}
}

// Load reads .env (best effort), then loads the YAML config. The config path
// and JWT secret can be overridden through CONFIG_PATH and JWT_SECRET.
func Load(defaultPath string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	if secret := strings.TrimSpace(os.Getenv("JWT_SECRET")); secret != "" {
		cfg.JWT.SecretKey = secret
	}

	return cfg, nil
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// WaitTimeout returns the relay wait timeout as a duration.
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Relay.WaitTimeoutSeconds) * time.Second
}

// CacheTTL returns the relay cache retention window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Relay.CacheTTLSeconds) * time.Second
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// JWT
	if cfg.JWT.TTLHours == 0 {
		cfg.JWT.TTLHours = 1
	}

	// Services
	if cfg.Services.GatewayPort == 0 {
		cfg.Services.GatewayPort = 4000
	}
	if cfg.Services.UserServicePort == 0 {
		cfg.Services.UserServicePort = 3001
	}
	if cfg.Services.CaptainServicePort == 0 {
		cfg.Services.CaptainServicePort = 3002
	}
	if cfg.Services.RideServicePort == 0 {
		cfg.Services.RideServicePort = 3003
	}

	// Relay
	if cfg.Relay.WaitTimeoutSeconds == 0 {
		cfg.Relay.WaitTimeoutSeconds = 30
	}
	if cfg.Relay.CacheTTLSeconds == 0 {
		cfg.Relay.CacheTTLSeconds = 300
	}
	if cfg.Relay.MaxWaiters == 0 {
		cfg.Relay.MaxWaiters = 100
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// JWT
	if c.JWT.SecretKey == "" {
		problems = append(problems, "jwt.secret_key is required (or set JWT_SECRET)")
	}

	// Services
	for _, p := range []struct {
		name string
		port int
	}{
		{"services.gateway", c.Services.GatewayPort},
		{"services.user_service", c.Services.UserServicePort},
		{"services.captain_service", c.Services.CaptainServicePort},
		{"services.ride_service", c.Services.RideServicePort},
	} {
		if p.port <= 0 || p.port > 65535 {
			problems = append(problems, p.name+" must be in 1..65535")
		}
	}

	// Relay
	if c.Relay.WaitTimeoutSeconds < 1 {
		problems = append(problems, "relay.wait_timeout_seconds must be positive")
	}
	if c.Relay.CacheTTLSeconds < 1 {
		problems = append(problems, "relay.cache_ttl_seconds must be positive")
	}
	if c.Relay.MaxWaiters < 1 {
		problems = append(problems, "relay.max_waiters must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
