package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "OTP_TTL", "MIGRATIONS", "SESSION_SECRET"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Server.Port != "8080" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Auth.OTPTTL != 10*time.Minute {
		t.Fatalf("otp ttl = %v", cfg.Auth.OTPTTL)
	}
	if !cfg.App.Migrations {
		t.Fatal("migrations should default to on")
	}
	if cfg.Auth.SessionSecret == "" {
		t.Fatal("expected a dev secret")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("OTP_TTL", "90")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("SQL_MIGRATIONS", "yes")
	t.Setenv("SERVER_READ_TIMEOUT", "nope")

	cfg := Load()
	if cfg.Server.Port != "9090" || cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath != "/tmp/x.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Auth.OTPTTL != 90*time.Second {
		t.Fatalf("otp ttl = %v", cfg.Auth.OTPTTL)
	}
	if cfg.Auth.AccessTTL != 5*time.Minute {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTTL)
	}
	if !cfg.App.SQLMigrations {
		t.Fatal("sql migrations should be on")
	}
	if cfg.Server.ReadTimeout != 15 {
		t.Fatalf("invalid int should fall back, got %d", cfg.Server.ReadTimeout)
	}
}

func TestDatabaseStrings(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	if got := d.DSN(); got != "host=db port=5433 user=u password=p dbname=n sslmode=disable" {
		t.Fatalf("dsn = %q", got)
	}
	if got := d.URL(); got != "postgres://u:p@db:5433/n?sslmode=disable" {
		t.Fatalf("url = %q", got)
	}
}
