package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
)

func dbcFrom(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, string(governance.CodeValidation), fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func parseID(c *gin.Context, field, raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		response.RespondError(c, http.StatusBadRequest, string(governance.CodeValidation), fmt.Errorf("%s is required", field))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, string(governance.CodeValidation), fmt.Errorf("%s must be a uuid", field))
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalID(c *gin.Context, field string, raw *string) (*uuid.UUID, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	id, ok := parseID(c, field, *raw)
	if !ok {
		return nil, false
	}
	return &id, true
}
