package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nutrichat/nutrichat/internal/request"
)

type metadataHandler struct {
	deps HandlerDeps
}

// NewMetadataHandler creates the handler for GET /api/chat. It reports a
// conversation's profile and counters; transcripts stay server-side.
func NewMetadataHandler(deps HandlerDeps) gin.HandlerFunc {
	return metadataHandler{deps}.Handle
}

func (h metadataHandler) Handle(c *gin.Context) {
	deps := h.deps
	log := deps.Logger.With("handler", "metadata")
	ctx := c.Request.Context()

	sessionID := strings.TrimSpace(c.Query("sessionId"))
	if !request.ValidSessionID(sessionID) {
		log.WarnContext(ctx, "Rejected metadata request", "session_id", sessionID, "client_ip", c.ClientIP())
		respondError(c, deps.Config, http.StatusBadRequest, deps.Config.Messages.Malformed, nil)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, deps.Config.Mongo.OperationTimeout)
	defer cancel()

	conv, err := deps.Store.GetConversation(opCtx, sessionID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load conversation", "error", err, "session_id", sessionID)
		status, message := mapError(deps.Config, err)
		respondError(c, deps.Config, status, message, err)
		return
	}
	if conv == nil {
		respondError(c, deps.Config, http.StatusNotFound, deps.Config.Messages.NotFound, nil)
		return
	}

	c.JSON(http.StatusOK, metadataResponse{
		SessionID:    conv.SessionID,
		UserInfo:     conv.UserInfo,
		MessageCount: conv.MessageCount(),
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	})
}
