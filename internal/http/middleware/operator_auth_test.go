package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/aaos-backend/internal/platform/ctxutil"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

func operatorRouter(auth *OperatorAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/system/pause", auth.RequireOperator(), func(c *gin.Context) {
		op := ctxutil.GetOperator(c.Request.Context())
		c.String(http.StatusOK, op.Subject)
	})
	return r
}

func call(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/system/pause", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireOperator(t *testing.T) {
	auth := NewOperatorAuth(logger.Nop(), "s3cret")
	r := operatorRouter(auth)

	token, err := auth.IssueToken("ops@example", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if rec := call(r, token); rec.Code != http.StatusOK || rec.Body.String() != "ops@example" {
		t.Fatalf("valid token: status=%d body=%q", rec.Code, rec.Body.String())
	}

	if rec := call(r, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status=%d", rec.Code)
	}

	other := NewOperatorAuth(logger.Nop(), "different")
	forged, _ := other.IssueToken("ops@example", time.Minute)
	if rec := call(r, forged); rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature: status=%d", rec.Code)
	}

	expired, _ := auth.IssueToken("ops@example", -time.Minute)
	if rec := call(r, expired); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: status=%d", rec.Code)
	}

	noRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte("s3cret"))
	if rec := call(r, noRole); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token without role: status=%d", rec.Code)
	}
}

func TestRequireOperatorWithoutSecret(t *testing.T) {
	auth := NewOperatorAuth(logger.Nop(), "")
	if _, err := auth.IssueToken("x", time.Minute); err == nil {
		t.Fatalf("issuing without a secret must fail")
	}
	if rec := call(operatorRouter(auth), "anything"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unconfigured auth must reject: status=%d", rec.Code)
	}
}
