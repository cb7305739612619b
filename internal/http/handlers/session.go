package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/domain/session"
	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/services"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// POST /api/session/open
// body: { "userId": "...", "type": "ASSESSMENT", "purpose": "..." }
func (h *SessionHandler) Open(c *gin.Context) {
	var req struct {
		UserID  string  `json:"userId"`
		Type    string  `json:"type"`
		Purpose *string `json:"purpose"`
	}
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	s, err := h.sessions.OpenSession(dbcFrom(c), services.OpenSessionInput{
		UserID:  userID,
		Type:    session.Type(req.Type),
		Purpose: req.Purpose,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "session": s})
}

// POST /api/session/advance
// body: { "userId": "...", "sessionId": "...", "to": "ENGAGEMENT" }
func (h *SessionHandler) Advance(c *gin.Context) {
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
	s, err := h.sessions.AdvancePhase(dbcFrom(c), userID, sessionID, session.Phase(req.To))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "session": s})
}

// POST /api/session/close
func (h *SessionHandler) Close(c *gin.Context) {
	var req struct {
		UserID    string `json:"userId"`
		SessionID string `json:"sessionId"`
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
	s, err := h.sessions.CloseSession(dbcFrom(c), userID, sessionID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "session": s})
}
