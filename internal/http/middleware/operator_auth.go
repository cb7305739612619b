package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/aaos-backend/internal/platform/ctxutil"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

const RoleOperator = "operator"

type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorAuth gates system-scope control actions behind an HS256 token
// carrying role=operator.
type OperatorAuth struct {
	log    *logger.Logger
	secret []byte
}

func NewOperatorAuth(log *logger.Logger, secret string) *OperatorAuth {
	return &OperatorAuth{
		log:    log.With("Middleware", "OperatorAuth"),
		secret: []byte(strings.TrimSpace(secret)),
	}
}

// IssueToken signs an operator token. Used by ops tooling and tests.
func (a *OperatorAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("operator secret not configured")
	}
	now := time.Now()
	claims := OperatorClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *OperatorAuth) parse(tokenString string) (*ctxutil.Operator, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(tokenString, &OperatorClaims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*OperatorClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	if claims.Role != RoleOperator {
		return nil, fmt.Errorf("token lacks operator role")
	}
	return &ctxutil.Operator{Subject: claims.Subject, Role: claims.Role}, nil
}

func (a *OperatorAuth) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(a.secret) == 0 {
			abortUnauthorized(c, "operator auth not configured")
			return
		}
		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "missing or invalid token")
			return
		}
		op, err := a.parse(tokenString)
		if err != nil {
			a.log.Warn("operator token rejected", "error", err)
			abortUnauthorized(c, err.Error())
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithOperator(c.Request.Context(), op))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": msg, "code": "unauthorized"},
	})
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
