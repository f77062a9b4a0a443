package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutrichat/nutrichat/internal/database"
	"github.com/nutrichat/nutrichat/internal/gemini"
	"github.com/nutrichat/nutrichat/internal/nutrition"
	"github.com/nutrichat/nutrichat/internal/request"
	"github.com/nutrichat/nutrichat/internal/text"
)

const messagePreviewLen = 64

type chatHandler struct {
	deps HandlerDeps
}

// NewChatHandler creates the handler for POST /api/chat. It validates the
// submission, resolves the session's conversation, asks the model for a
// reply with the full history as context, and records both turns.
func NewChatHandler(deps HandlerDeps) gin.HandlerFunc {
	return chatHandler{deps}.Handle
}

func (h chatHandler) Handle(c *gin.Context) {
	deps := h.deps
	log := deps.Logger.With("handler", "chat")
	ctx := c.Request.Context()

	req, err := request.ParseChat(c)
	if err != nil {
		log.WarnContext(ctx, "Rejected chat request", "error", err, "client_ip", c.ClientIP())
		status, message := mapError(deps.Config, err)
		respondError(c, deps.Config, status, message, err)
		return
	}

	log.InfoContext(ctx, "Chat message received",
		"session_id", req.SessionID,
		"message_preview", text.Truncate(req.Message, messagePreviewLen),
		"has_image", req.Image != nil)

	conv, err := h.resolveConversation(ctx, req)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve conversation", "error", err, "session_id", req.SessionID)
		status, message := mapError(deps.Config, err)
		respondError(c, deps.Config, status, message, err)
		return
	}

	userTurn := buildUserTurn(req)

	aiCtx, cancel := context.WithTimeout(ctx, deps.Config.Gemini.Timeout)
	reply, err := deps.Completer.Complete(aiCtx, append(conv.History, userTurn))
	cancel()

	switch {
	case errors.Is(err, gemini.ErrEmptyReply):
		log.WarnContext(ctx, "Empty model reply, using fallback", "error", err, "session_id", req.SessionID)
		reply = deps.Config.Messages.Fallback
	case err != nil:
		log.ErrorContext(ctx, "Completion failed", "error", err, "session_id", req.SessionID)
		status, message := mapError(deps.Config, err)
		respondError(c, deps.Config, status, message, err)
		return
	}

	reply = text.Sanitize(reply)
	if reply == "" {
		reply = deps.Config.Messages.Fallback
	}

	modelTurn := database.TextTurn(database.RoleModel, reply, time.Now().UTC())

	// Both turns land in a single update. A failure here loses history but
	// the user still gets the reply they waited for.
	dbCtx, dbCancel := context.WithTimeout(ctx, deps.Config.Mongo.OperationTimeout)
	if err := deps.Store.AppendTurns(dbCtx, req.SessionID, userTurn, modelTurn); err != nil {
		log.ErrorContext(ctx, "Failed to save turns", "error", err, "session_id", req.SessionID)
	}
	dbCancel()

	c.JSON(http.StatusOK, chatResponse{
		Reply:     reply,
		SessionID: req.SessionID,
		Timestamp: modelTurn.Timestamp,
	})
}

// resolveConversation loads the session's conversation, creating it with the
// synthesized profile context as the first turn when none exists yet. The
// profile is captured once at creation; later submissions never rewrite it.
func (h chatHandler) resolveConversation(ctx context.Context, req *request.ChatRequest) (*database.Conversation, error) {
	deps := h.deps

	opCtx, cancel := context.WithTimeout(ctx, deps.Config.Mongo.OperationTimeout)
	defer cancel()

	conv, err := deps.Store.GetConversation(opCtx, req.SessionID)
	if err != nil || conv != nil {
		return conv, err
	}

	info := database.UserInfo{
		Name:   req.Name,
		Age:    req.Age,
		Weight: req.Weight,
		Height: float64(req.Height),
	}
	contextTurn := database.TextTurn(database.RoleUser,
		nutrition.ContextPrompt(info.Name, info.Age, info.Weight, info.Height),
		time.Now().UTC())

	return deps.Store.CreateConversation(opCtx, req.SessionID, info, contextTurn)
}

// buildUserTurn assembles the stored turn for the submission: sanitized text
// first, then the inline image when one was attached. A message that
// sanitizes to nothing still yields a text part unless an image carries the
// turn instead.
func buildUserTurn(req *request.ChatRequest) database.Turn {
	turn := database.Turn{Role: database.RoleUser, Timestamp: time.Now().UTC()}

	if msg := text.Sanitize(req.Message); msg != "" || req.Image == nil {
		turn.Parts = append(turn.Parts, database.Part{Text: msg})
	}
	if req.Image != nil {
		turn.Parts = append(turn.Parts, database.Part{
			InlineData: &database.InlineData{MIMEType: req.Image.MIMEType, Data: req.Image.Data},
		})
	}

	return turn
}
