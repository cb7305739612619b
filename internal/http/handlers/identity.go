package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/services"
)

type IdentityHandler struct {
	identity services.IdentityService
}

func NewIdentityHandler(identity services.IdentityService) *IdentityHandler {
	return &IdentityHandler{identity: identity}
}

// POST /api/model-sets
func (h *IdentityHandler) CreateModelSet(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	ms, err := h.identity.CreateModelSet(dbcFrom(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "modelSet": ms})
}

// POST /api/identity/versions
// body: { "userId": "...", "modelSetId": "...", "type": "CIM", "payload": {...} }
func (h *IdentityHandler) CreateVersion(c *gin.Context) {
	var req struct {
		UserID     string          `json:"userId"`
		ModelSetID string          `json:"modelSetId"`
		Type       string          `json:"type"`
		Payload    json.RawMessage `json:"payload"`
	}
	if !bindJSON(c, &req) {
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
	var payload any
	if len(req.Payload) > 0 {
		payload = req.Payload
	}
	v, err := h.identity.CreateVersion(dbcFrom(c), services.CreateVersionInput{
		UserID:     userID,
		ModelSetID: modelSetID,
		Type:       identity.ModelType(req.Type),
		Payload:    payload,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "version": v})
}

// GET /api/identity/versions/latest?userId=&modelSetId=&type=
func (h *IdentityHandler) GetLatestVersion(c *gin.Context) {
	userID, ok := parseID(c, "userId", c.Query("userId"))
	if !ok {
		return
	}
	modelSetID, ok := parseID(c, "modelSetId", c.Query("modelSetId"))
	if !ok {
		return
	}
	v, err := h.identity.GetLatestVersion(dbcFrom(c), userID, modelSetID, identity.ModelType(c.Query("type")))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"version": v})
}
