package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/services"
)

type ControlHandler struct {
	control services.ControlPlane
}

func NewControlHandler(control services.ControlPlane) *ControlHandler {
	return &ControlHandler{control: control}
}

type userReasonRequest struct {
	UserID string  `json:"userId"`
	Reason *string `json:"reason"`
}

// POST /api/control/pause
func (h *ControlHandler) Pause(c *gin.Context) {
	var req userReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	flag, err := h.control.PauseUser(dbcFrom(c), userID, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "flag": flag})
}

// POST /api/control/resume
func (h *ControlHandler) Resume(c *gin.Context) {
	var req userReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	flag, err := h.control.ResumeUser(dbcFrom(c), userID, req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "flag": flag})
}

// GET /api/control/status?userId=
func (h *ControlHandler) Status(c *gin.Context) {
	userID, ok := parseID(c, "userId", c.Query("userId"))
	if !ok {
		return
	}
	status, err := h.control.Status(dbcFrom(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, status)
}
