package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
	"github.com/yungbote/aaos-backend/internal/projection"
)

type ProjectionHandler struct {
	log  *logger.Logger
	exec *projection.Executor
}

func NewProjectionHandler(log *logger.Logger, exec *projection.Executor) *ProjectionHandler {
	return &ProjectionHandler{log: log.With("handler", "ProjectionHandler"), exec: exec}
}

// POST /api/projections/:name
// body: { "userId": "...", "sessionId": "...", "modelSetId": "...", "timeRange": {"from": RFC3339, "to": RFC3339}, "extra": {...} }
func (h *ProjectionHandler) Execute(c *gin.Context) {
	var in projection.Input
	if !bindJSON(c, &in) {
		return
	}
	name := projection.Name(c.Param("name"))
	out, err := h.exec.Execute(c.Request.Context(), name, in)
	if err != nil {
		if projection.CodeOf(err) == "" {
			h.log.Error("projection failed", "projection", name, "error", err)
		}
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"projection": name, "output": out})
}

// GET /api/projections
func (h *ProjectionHandler) List(c *gin.Context) {
	response.RespondOK(c, gin.H{"projections": h.exec.Names()})
}
