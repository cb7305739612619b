package db

import (
	"testing"

	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

func TestConfigDSNDefaultsSSLMode(t *testing.T) {
	cfg := Config{User: "u", Password: "p", Host: "h", Port: "5432", Name: "aaos"}
	if got, want := cfg.DSN(), "postgres://u:p@h:5432/aaos?sslmode=disable"; got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
	cfg.SSLMode = "require"
	if got, want := cfg.DSN(), "postgres://u:p@h:5432/aaos?sslmode=require"; got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}

func TestNewServiceRejectsUnknownDriver(t *testing.T) {
	if _, err := NewService(Config{Driver: "mysql"}, logger.Nop()); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestNewServiceSQLiteMigrates(t *testing.T) {
	svc, err := NewService(Config{Driver: DriverSQLite, SQLitePath: "file:dbservice_test?mode=memory&cache=shared"}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	if svc.Driver() != DriverSQLite {
		t.Fatalf("driver = %q", svc.Driver())
	}
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"user", "user_context", "session", "model_set", "identity_model_version",
		"confidence_state", "pressure_state", "control_flag", "control_flag_head", "audit_event"} {
		if !svc.DB().Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}
