package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("missing APP_PORT")
	}
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Redis.IdempotencyTTL <= 0 {
		return fmt.Errorf("redis.idempotency_ttl must be > 0 (got %s)", c.Redis.IdempotencyTTL)
	}
	for name, raw := range map[string]string{
		"user_directory_url": c.Services.UserDirectoryURL,
		"disbursement_url":   c.Services.DisbursementURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("services.%s must be an absolute URL (got %q)", name, raw)
		}
	}
	if c.Services.SideEffectTimeout <= 0 {
		return fmt.Errorf("services.side_effect_timeout must be > 0 (got %s)", c.Services.SideEffectTimeout)
	}
	switch c.Notifications.Mode {
	case "log":
	case "redis":
		if c.Notifications.QueueKey == "" {
			return errors.New("notifications.queue_key is required in redis mode")
		}
	default:
		return fmt.Errorf("notifications.mode must be log or redis (got %q)", c.Notifications.Mode)
	}
	if c.Schedule.OverdueSweep < 0 {
		return fmt.Errorf("schedule.overdue_sweep must be >= 0 (got %s)", c.Schedule.OverdueSweep)
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch d.Driver {
	case "mysql":
		if d.MySQLHost == "" || d.MySQLPort == "" || d.MySQLDB == "" || d.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", d.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", d.MySQLPort, err)
		}
	case "sqlite":
		if d.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("driver must be mysql or sqlite (got %q)", d.Driver)
	}
	switch d.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("log_level must be silent, error, warn or info (got %q)", d.LogLevel)
	}
	return nil
}
