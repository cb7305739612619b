package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/data/db"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

func TestNewWithConfigSQLite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := defaultConfig()
	cfg.DB = db.Config{Driver: db.DriverSQLite, SQLitePath: "file:app_test?mode=memory&cache=shared"}
	cfg.OperatorJWTSecret = "secret"

	a, err := NewWithConfig(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer a.Close()

	if a.Clients.AuditBus != nil {
		t.Fatalf("audit bus should be disabled without REDIS_ADDR")
	}
	if got := len(a.Services.Projections.Names()); got != 6 {
		t.Fatalf("projections registered = %d, want 6", got)
	}

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/system/pause", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("system pause without token = %d, want 401", rec.Code)
	}
}
