package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "./data/messbill.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Errorf("JWTTTL = %v, want 24h", cfg.JWTTTL)
	}
	if cfg.BillingRole != "Teacher" || cfg.BillingWorkers != 1 || cfg.CutoffHour != 9 {
		t.Errorf("billing/attendance defaults = %q, %d, %d", cfg.BillingRole, cfg.BillingWorkers, cfg.CutoffHour)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/mess.db")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("BILLING_WORKERS", "4")
	t.Setenv("ATTENDANCE_TIMEZONE", "UTC")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 || cfg.DBPath != "/tmp/mess.db" || cfg.JWTTTL != 2*time.Hour || cfg.BillingWorkers != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("JWT_SECRET=from-file\nLOG_FORMAT=json\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	// godotenv never overrides variables that are already set; register cleanup for both.
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("LOG_FORMAT", "")
	os.Unsetenv("LOG_FORMAT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JWTSecret != "from-file" || cfg.LogFormat != "json" {
		t.Errorf("JWTSecret = %q, LogFormat = %q", cfg.JWTSecret, cfg.LogFormat)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error without a JWT secret")
	}
}
