package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 2 * time.Second

type healthHandler struct {
	deps HandlerDeps
}

// NewHealthHandler creates the handler for GET /healthz. The endpoint always
// answers 200; a failing database ping is reported as degraded instead of
// failing the probe, since the static page and cached sessions still work.
func NewHealthHandler(deps HandlerDeps) gin.HandlerFunc {
	return healthHandler{deps}.Handle
}

func (h healthHandler) Handle(c *gin.Context) {
	deps := h.deps
	ctx := c.Request.Context()

	status := "ok"
	dbStatus := "ok"

	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := deps.Store.Ping(pingCtx); err != nil {
		deps.Logger.WarnContext(ctx, "Health check database ping failed", "error", err)
		status = "degraded"
		dbStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "database": dbStatus})
}
