package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	"github.com/yungbote/aaos-backend/internal/data/repos/testutil"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	httpH "github.com/yungbote/aaos-backend/internal/http/handlers"
	httpMW "github.com/yungbote/aaos-backend/internal/http/middleware"
	"github.com/yungbote/aaos-backend/internal/projection"
	"github.com/yungbote/aaos-backend/internal/projection/defs"
	"github.com/yungbote/aaos-backend/internal/services"
)

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	auth   *httpMW.OperatorAuth
	audits repos.AuditEventRepo
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := testutil.Clock(t)

	users := repos.NewUserRepo(db, log)
	userContexts := repos.NewUserContextRepo(db, log)
	sessions := repos.NewSessionRepo(db, log)
	modelSets := repos.NewModelSetRepo(db, log)
	versions := repos.NewIdentityVersionRepo(db, log)
	auditRepo := repos.NewAuditEventRepo(db, log)

	sink := services.NewAuditSink(db, log, auditRepo, clk, nil)
	cp := services.NewControlPlane(db, log, repos.NewControlFlagRepo(db, log), sink, clk)
	uc := services.NewUserContextService(db, log, users, userContexts, sessions, modelSets, cp, sink, clk)
	guard := services.NewTransitionGuard(db, log, cp, userContexts, versions)
	sessionSvc := services.NewSessionService(db, log, users, sessions, uc, cp, guard, sink, clk)
	identitySvc := services.NewIdentityService(db, log, users, modelSets, versions, cp, sink, clk)
	signalSvc := services.NewSignalService(db, log, users, sessions, modelSets,
		repos.NewConfidenceRepo(db, log), repos.NewPressureRepo(db, log), cp, sink, clk)

	registry, err := defs.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	read := projection.NewReadDB(db)
	exec := projection.NewExecutor(registry, projection.NewGuard(services.NewProjectionPause(cp), read), read,
		services.NewProjectionAudit(sink), clk, log)

	auth := httpMW.NewOperatorAuth(log, "test-secret")
	engine := NewRouter(RouterConfig{
		Log:                log,
		OperatorAuth:       auth,
		HealthHandler:      httpH.NewHealthHandler(),
		SystemHandler:      httpH.NewSystemHandler(sessionSvc, cp),
		ControlHandler:     httpH.NewControlHandler(cp),
		SessionHandler:     httpH.NewSessionHandler(sessionSvc),
		UserContextHandler: httpH.NewUserContextHandler(uc),
		IdentityHandler:    httpH.NewIdentityHandler(identitySvc),
		SignalHandler:      httpH.NewSignalHandler(signalSvc),
		ProjectionHandler:  httpH.NewProjectionHandler(log, exec),
	})
	return &testAPI{t: t, engine: engine, auth: auth, audits: auditRepo}
}

func (a *testAPI) do(method, path string, body any, token string) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			a.t.Fatalf("decode %s %s response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func errorCode(body map[string]any) string {
	env, _ := body["error"].(map[string]any)
	code, _ := env["code"].(string)
	return code
}

func TestHealthcheck(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSessionFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/system/bootstrap", nil, "")
	if status != http.StatusOK {
		t.Fatalf("bootstrap: %d %v", status, body)
	}
	userID := body["userId"].(string)

	status, body = api.do(http.MethodPost, "/api/session/open", map[string]any{"userId": userID, "purpose": "check"}, "")
	if status != http.StatusOK {
		t.Fatalf("open: %d %v", status, body)
	}
	sessionID := body["session"].(map[string]any)["id"].(string)

	status, body = api.do(http.MethodPost, "/api/session/close", map[string]any{"userId": userID, "sessionId": sessionID}, "")
	if status != http.StatusConflict || errorCode(body) != "invariant_violation" {
		t.Fatalf("close before CLOSURE: %d %v", status, body)
	}

	status, body = api.do(http.MethodPost, "/api/session/advance", map[string]any{"userId": userID, "sessionId": "nope", "to": "ENGAGEMENT"}, "")
	if status != http.StatusBadRequest || errorCode(body) != "validation" {
		t.Fatalf("bad session id: %d %v", status, body)
	}

	status, body = api.do(http.MethodPost, "/api/control/pause", map[string]any{"userId": userID}, "")
	if status != http.StatusOK {
		t.Fatalf("pause: %d %v", status, body)
	}
	status, body = api.do(http.MethodPost, "/api/session/advance", map[string]any{"userId": userID, "sessionId": sessionID, "to": "ENGAGEMENT"}, "")
	if status != http.StatusLocked || errorCode(body) != "paused" {
		t.Fatalf("advance while paused: %d %v", status, body)
	}

	status, body = api.do(http.MethodGet, "/api/control/status?userId="+userID, nil, "")
	if status != http.StatusOK {
		t.Fatalf("status: %d %v", status, body)
	}
	if eff := body["effective"].(map[string]any); eff["isPaused"] != true {
		t.Fatalf("expected effective pause: %v", body)
	}

	api.do(http.MethodPost, "/api/control/resume", map[string]any{"userId": userID}, "")
	for _, to := range []string{"ENGAGEMENT", "SYNTHESIS", "CLOSURE"} {
		status, body = api.do(http.MethodPost, "/api/session/advance", map[string]any{"userId": userID, "sessionId": sessionID, "to": to}, "")
		if status != http.StatusOK {
			t.Fatalf("advance to %s: %d %v", to, status, body)
		}
	}
	status, body = api.do(http.MethodPost, "/api/session/close", map[string]any{"userId": userID, "sessionId": sessionID}, "")
	if status != http.StatusOK {
		t.Fatalf("close: %d %v", status, body)
	}
}

func TestPressureAndProjectionOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	_, body := api.do(http.MethodPost, "/api/system/bootstrap", nil, "")
	userID := body["userId"].(string)

	status, body := api.do(http.MethodPost, "/api/pressure", map[string]any{"userId": userID, "dpi": 120}, "")
	if status != http.StatusBadRequest || errorCode(body) != "validation" {
		t.Fatalf("dpi out of range: %d %v", status, body)
	}
	for _, dpi := range []float64{20, 60} {
		if status, body = api.do(http.MethodPost, "/api/pressure", map[string]any{"userId": userID, "dpi": dpi}, ""); status != http.StatusOK {
			t.Fatalf("pressure %v: %d %v", dpi, status, body)
		}
	}
	status, body = api.do(http.MethodGet, "/api/pressure/latest?userId="+userID, nil, "")
	if status != http.StatusOK || body["pressure"].(map[string]any)["level"] != "HIGH" {
		t.Fatalf("latest pressure: %d %v", status, body)
	}

	status, body = api.do(http.MethodPost, "/api/projections/pressure.series", map[string]any{"userId": userID}, "")
	if status != http.StatusOK {
		t.Fatalf("projection: %d %v", status, body)
	}
	out := body["output"].(map[string]any)
	if out["count"].(float64) != 2 || out["maxDpi"].(float64) != 60 {
		t.Fatalf("unexpected projection output: %v", out)
	}

	status, body = api.do(http.MethodPost, "/api/projections/nope", map[string]any{"userId": userID}, "")
	if status != http.StatusNotFound || errorCode(body) != "UNKNOWN_PROJECTION" {
		t.Fatalf("unknown projection: %d %v", status, body)
	}
	status, body = api.do(http.MethodPost, "/api/projections/pressure.series", map[string]any{"userId": "bad"}, "")
	if status != http.StatusBadRequest || errorCode(body) != "INVALID_INPUT" {
		t.Fatalf("invalid input: %d %v", status, body)
	}

	n, err := api.audits.CountByType(context.Background(), nil, audit.EventProjectionAccessed)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one PROJECTION_ACCESSED, got %d", n)
	}
}

func TestSystemPauseRequiresOperator(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(http.MethodPost, "/api/system/pause", map[string]any{"reason": "maintenance"}, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("pause without token: %d %v", status, body)
	}

	token, err := api.auth.IssueToken("ops", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	status, body = api.do(http.MethodPost, "/api/system/pause", map[string]any{"reason": "maintenance"}, token)
	if status != http.StatusOK {
		t.Fatalf("operator pause: %d %v", status, body)
	}

	_, body = api.do(http.MethodPost, "/api/system/bootstrap", nil, "")
	userID := body["userId"].(string)
	status, body = api.do(http.MethodPost, "/api/session/open", map[string]any{"userId": userID}, "")
	if status != http.StatusLocked {
		t.Fatalf("open during system pause: %d %v", status, body)
	}

	status, _ = api.do(http.MethodPost, "/api/system/resume", nil, token)
	if status != http.StatusOK {
		t.Fatalf("operator resume: %d", status)
	}
}
