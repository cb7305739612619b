package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/domain/session"
	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/services"
)

type SystemHandler struct {
	sessions services.SessionService
	control  services.ControlPlane
}

func NewSystemHandler(sessions services.SessionService, control services.ControlPlane) *SystemHandler {
	return &SystemHandler{sessions: sessions, control: control}
}

// POST /api/system/bootstrap
func (h *SystemHandler) Bootstrap(c *gin.Context) {
	res, err := h.sessions.Bootstrap(dbcFrom(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "userId": res.UserID, "sessionId": res.SessionID})
}

// POST /api/system/transition
// body: { "userId": "...", "sessionId": "...", "to": "MODELED" }
func (h *SystemHandler) Transition(c *gin.Context) {
	var req struct {
		UserID    string `json:"userId"`
		SessionID string `json:"sessionId"`
		To        string `json:"to"`
	}
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	sessionID, ok := parseID(c, "sessionId", req.SessionID)
	if !ok {
		return
	}
	s, err := h.sessions.TransitionState(dbcFrom(c), userID, sessionID, session.State(req.To))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "session": s})
}

// POST /api/system/pause (operator)
func (h *SystemHandler) PauseSystem(c *gin.Context) {
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	flag, err := h.control.PauseSystem(dbcFrom(c), req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "flag": flag})
}

// POST /api/system/resume (operator)
func (h *SystemHandler) ResumeSystem(c *gin.Context) {
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	flag, err := h.control.ResumeSystem(dbcFrom(c), req.Reason)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "flag": flag})
}

type reasonRequest struct {
	Reason *string `json:"reason"`
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}
