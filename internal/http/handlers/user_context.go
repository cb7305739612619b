package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/services"
)

type UserContextHandler struct {
	contexts services.UserContextService
}

func NewUserContextHandler(contexts services.UserContextService) *UserContextHandler {
	return &UserContextHandler{contexts: contexts}
}

type contextRequest struct {
	UserID     string `json:"userId"`
	SessionID  string `json:"sessionId"`
	ModelSetID string `json:"modelSetId"`
}

func (h *UserContextHandler) bind(c *gin.Context) (*contextRequest, bool) {
	var req contextRequest
	if !bindJSON(c, &req) {
		return nil, false
	}
	return &req, true
}

// POST /api/context/ensure
func (h *UserContextHandler) Ensure(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	uc, err := h.contexts.EnsureUserContext(dbcFrom(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "context": uc})
}

// POST /api/context/last-closed-session
func (h *UserContextHandler) SetLastClosedSession(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
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
	uc, err := h.contexts.SetLastClosedSession(dbcFrom(c), userID, sessionID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "context": uc})
}

// POST /api/context/activate-model-set
func (h *UserContextHandler) ActivateModelSet(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	modelSetID, ok := parseID(c, "modelSetId", req.ModelSetID)
	if !ok {
		return
	}
	uc, err := h.contexts.ActivateModelSet(dbcFrom(c), userID, modelSetID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "context": uc})
}

// POST /api/context/clear-model-set
func (h *UserContextHandler) ClearModelSet(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	uc, err := h.contexts.ClearActiveModelSet(dbcFrom(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "context": uc})
}

// POST /api/context/reset
func (h *UserContextHandler) Reset(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	uc, err := h.contexts.ResetUserContext(dbcFrom(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "context": uc})
}
