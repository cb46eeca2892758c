// Package config loads server settings from defaults, an optional .env file and the environment.
//
// Keys are dotted (db.path); the matching environment variable is upper-cased
// with dots replaced by underscores (DB_PATH).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmynk/messbill/internal/models"
)

// Config holds every server setting.
type Config struct {
	Port int

	DBPath string

	JWTSecret string
	JWTTTL    time.Duration

	LogLevel  string
	LogFormat string

	BillingRole    string
	BillingWorkers int

	CutoffHour int
	Location   *time.Location

	AdminEmail    string
	AdminPassword string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db.path", "./data/messbill.db")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("billing.role", models.BillableRole)
	v.SetDefault("billing.workers", 1)
	v.SetDefault("attendance.cutoff_hour", 9)
	v.SetDefault("attendance.timezone", "Local")
	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
}

// Load reads the configuration. dotEnvPath may be empty or point to a missing
// file; any other error reading it fails the load.
func Load(dotEnvPath string) (*Config, error) {
	if dotEnvPath != "" {
		if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotEnvPath, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	loc, err := time.LoadLocation(v.GetString("attendance.timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid attendance.timezone: %w", err)
	}

	cfg := &Config{
		Port:           v.GetInt("port"),
		DBPath:         v.GetString("db.path"),
		JWTSecret:      v.GetString("jwt.secret"),
		JWTTTL:         v.GetDuration("jwt.ttl"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
		BillingRole:    v.GetString("billing.role"),
		BillingWorkers: v.GetInt("billing.workers"),
		CutoffHour:     v.GetInt("attendance.cutoff_hour"),
		Location:       loc,
		AdminEmail:     v.GetString("bootstrap.admin_email"),
		AdminPassword:  v.GetString("bootstrap.admin_password"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt.secret (JWT_SECRET) is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.CutoffHour < 1 || c.CutoffHour > 24 {
		return fmt.Errorf("attendance.cutoff_hour must be 1..24, got %d", c.CutoffHour)
	}
	if c.BillingWorkers < 1 {
		return fmt.Errorf("billing.workers must be at least 1, got %d", c.BillingWorkers)
	}
	return nil
}
