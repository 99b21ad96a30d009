package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("Given a full config file When loaded Then every section is populated", func(t *testing.T) {
		path := writeConfig(t, `
database:
  host: db.internal
  port: 5433
  user: app
  password: secret
  database: rides

rabbitmq:
  host: mq.internal
  port: 5673
  user: mq
  password: mqpass

jwt:
  secret_key: "s3cr3t"
  ttl_hours: 12

services:
  gateway: 8080
  user_service: 8081
  captain_service: 8082
  ride_service: 8083

relay:
  wait_timeout_seconds: 20
  cache_ttl_seconds: 120
  max_waiters: 50
`)

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile: %v", err)
		}

		if cfg.Database.Host != "db.internal" || cfg.Database.Port != 5433 || cfg.Database.Name != "rides" {
			t.Errorf("database section mismatch: %+v", cfg.Database)
		}
		if cfg.RabbitMQ.Host != "mq.internal" || cfg.RabbitMQ.Port != 5673 {
			t.Errorf("rabbitmq section mismatch: %+v", cfg.RabbitMQ)
		}
		if cfg.JWT.SecretKey != "s3cr3t" {
			t.Errorf("quoted secret not unquoted: %q", cfg.JWT.SecretKey)
		}
		if cfg.Services.GatewayPort != 8080 || cfg.Services.RideServicePort != 8083 {
			t.Errorf("services section mismatch: %+v", cfg.Services)
		}
		if got := cfg.WaitTimeout(); got != 20*time.Second {
			t.Errorf("WaitTimeout() = %v, want 20s", got)
		}
		if got := cfg.CacheTTL(); got != 2*time.Minute {
			t.Errorf("CacheTTL() = %v, want 2m", got)
		}
		if cfg.Relay.MaxWaiters != 50 {
			t.Errorf("max_waiters = %d, want 50", cfg.Relay.MaxWaiters)
		}
	})

	t.Run("Given a minimal config When loaded Then defaults fill the gaps", func(t *testing.T) {
		path := writeConfig(t, `
database:
  user: app
  password: secret
  database: rides

rabbitmq:
  user: mq
  password: mqpass

jwt:
  secret_key: s3cr3t
`)

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile: %v", err)
		}

		if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
			t.Errorf("database defaults not applied: %+v", cfg.Database)
		}
		if cfg.Services.GatewayPort != 4000 || cfg.Services.UserServicePort != 3001 {
			t.Errorf("service port defaults not applied: %+v", cfg.Services)
		}
		if cfg.Relay.WaitTimeoutSeconds != 30 || cfg.Relay.CacheTTLSeconds != 300 || cfg.Relay.MaxWaiters != 100 {
			t.Errorf("relay defaults not applied: %+v", cfg.Relay)
		}
	})

	t.Run("Given a config without a jwt secret When loaded Then validation fails", func(t *testing.T) {
		path := writeConfig(t, `
database:
  user: app
  password: secret
  database: rides

rabbitmq:
  user: mq
  password: mqpass
`)

		_, err := LoadFromFile(path)
		if err == nil {
			t.Fatal("expected validation error, got nil")
		}
		if !strings.Contains(err.Error(), "jwt.secret_key") {
			t.Errorf("error should name jwt.secret_key: %v", err)
		}
	})

	t.Run("Given a duplicate section When loaded Then parsing fails", func(t *testing.T) {
		path := writeConfig(t, `
database:
  user: app
database:
  password: secret
`)

		_, err := LoadFromFile(path)
		if err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Fatalf("expected duplicate section error, got %v", err)
		}
	})

	t.Run("Given an unknown key When loaded Then parsing fails with the line number", func(t *testing.T) {
		path := writeConfig(t, `database:
  user: app
  flavor: postgres
`)

		_, err := LoadFromFile(path)
		if err == nil || !strings.Contains(err.Error(), "flavor") {
			t.Fatalf("expected unknown key error, got %v", err)
		}
	})

	t.Run("Given comments and blank lines When loaded Then they are ignored", func(t *testing.T) {
		path := writeConfig(t, `
# deployment config
database:
  user: app        # service account
  password: secret

  database: rides

rabbitmq:
  user: mq
  password: mqpass

jwt:
  secret_key: s3cr3t
`)

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile: %v", err)
		}
		if cfg.Database.User != "app" {
			t.Errorf("inline comment not stripped: %q", cfg.Database.User)
		}
	})
}
