package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nutrichat/nutrichat/internal/config"
	"github.com/nutrichat/nutrichat/internal/database"
	"github.com/nutrichat/nutrichat/internal/gemini"
	"github.com/nutrichat/nutrichat/internal/request"
)

// chatResponse is the success envelope for POST /api/chat.
type chatResponse struct {
	Reply     string    `json:"reply"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// metadataResponse is the success envelope for GET /api/chat. It exposes the
// profile and counters of a conversation, never the transcript itself.
type metadataResponse struct {
	SessionID    string            `json:"sessionId"`
	UserInfo     database.UserInfo `json:"userInfo"`
	MessageCount int               `json:"messageCount"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// respondError writes the error envelope. The reply field carries the
// user-facing message so the page can render it like any other assistant
// turn; outside production a detail field carries the underlying error.
func respondError(c *gin.Context, cfg *config.Config, status int, message string, err error) {
	body := gin.H{"reply": message}
	if err != nil && !cfg.Production() {
		body["detail"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// mapError translates a pipeline error into an HTTP status and user-facing
// message. Validation errors keep their aggregated field text; everything
// else maps onto one of the configured messages.
func mapError(cfg *config.Config, err error) (int, string) {
	var (
		validationErr *request.ValidationError
		statusErr     *gemini.StatusError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.Is(err, request.ErrUnsupportedContentType):
		return http.StatusBadRequest, cfg.Messages.Malformed
	case errors.As(err, &statusErr):
		return mapUpstreamStatus(cfg, statusErr.Status)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, cfg.Messages.Timeout
	case errors.Is(err, database.ErrUnavailable):
		return http.StatusInternalServerError, cfg.Messages.GeneralError
	default:
		return http.StatusInternalServerError, cfg.Messages.GeneralError
	}
}

// mapUpstreamStatus picks the response for a model API error. Known statuses
// get a dedicated message; any other 4xx/5xx passes through with the general
// message so clients still see an accurate code.
func mapUpstreamStatus(cfg *config.Config, status int) (int, string) {
	switch status {
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, cfg.Messages.Busy
	case http.StatusBadRequest:
		return http.StatusBadRequest, cfg.Messages.Malformed
	case http.StatusServiceUnavailable:
		return http.StatusServiceUnavailable, cfg.Messages.Overloaded
	}

	if status >= 400 && status < 600 {
		return status, cfg.Messages.GeneralError
	}
	return http.StatusInternalServerError, cfg.Messages.GeneralError
}
