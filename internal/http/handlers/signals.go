package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/domain/signal"
	"github.com/yungbote/aaos-backend/internal/http/response"
	"github.com/yungbote/aaos-backend/internal/services"
)

type SignalHandler struct {
	signals services.SignalService
}

func NewSignalHandler(signals services.SignalService) *SignalHandler {
	return &SignalHandler{signals: signals}
}

// POST /api/confidence
// body: { "userId": "...", "domain": "IDENTITY_MODEL", "key": "...", "value": 0.4, "reason": "...", "modelSetId": "...", "sessionId": "..." }
func (h *SignalHandler) RecordConfidence(c *gin.Context) {
	var req struct {
		UserID     string   `json:"userId"`
		Domain     string   `json:"domain"`
		Key        string   `json:"key"`
		Value      *float64 `json:"value"`
		Reason     *string  `json:"reason"`
		ModelSetID *string  `json:"modelSetId"`
		SessionID  *string  `json:"sessionId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	if req.Value == nil {
		response.RespondError(c, http.StatusBadRequest, string(governance.CodeValidation), fmt.Errorf("value is required"))
		return
	}
	modelSetID, ok := parseOptionalID(c, "modelSetId", req.ModelSetID)
	if !ok {
		return
	}
	sessionID, ok := parseOptionalID(c, "sessionId", req.SessionID)
	if !ok {
		return
	}
	row, err := h.signals.RecordConfidence(dbcFrom(c), services.RecordConfidenceInput{
		UserID:     userID,
		Domain:     signal.ConfidenceDomain(req.Domain),
		Key:        strings.TrimSpace(req.Key),
		Value:      *req.Value,
		Reason:     req.Reason,
		ModelSetID: modelSetID,
		SessionID:  sessionID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "confidence": row})
}

// GET /api/confidence/latest?userId=&domain=&key=
func (h *SignalHandler) LatestConfidence(c *gin.Context) {
	userID, ok := parseID(c, "userId", c.Query("userId"))
	if !ok {
		return
	}
	row, err := h.signals.GetLatestConfidence(dbcFrom(c), userID, signal.ConfidenceDomain(c.Query("domain")), c.Query("key"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"confidence": row})
}

// POST /api/pressure
// body: { "userId": "...", "dpi": 42, "reason": "...", "sessionId": "..." }
func (h *SignalHandler) RecordPressure(c *gin.Context) {
	var req struct {
		UserID    string   `json:"userId"`
		DPI       *float64 `json:"dpi"`
		Reason    *string  `json:"reason"`
		SessionID *string  `json:"sessionId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := parseID(c, "userId", req.UserID)
	if !ok {
		return
	}
	if req.DPI == nil {
		response.RespondError(c, http.StatusBadRequest, string(governance.CodeValidation), fmt.Errorf("dpi is required"))
		return
	}
	sessionID, ok := parseOptionalID(c, "sessionId", req.SessionID)
	if !ok {
		return
	}
	row, err := h.signals.RecordPressure(dbcFrom(c), services.RecordPressureInput{
		UserID:    userID,
		DPI:       *req.DPI,
		Reason:    req.Reason,
		SessionID: sessionID,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "pressure": row})
}

// GET /api/pressure/latest?userId=
func (h *SignalHandler) LatestPressure(c *gin.Context) {
	userID, ok := parseID(c, "userId", c.Query("userId"))
	if !ok {
		return
	}
	row, err := h.signals.GetLatestPressure(dbcFrom(c), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pressure": row})
}
