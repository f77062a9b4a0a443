package server

import (
	"log/slog"

	"github.com/nutrichat/nutrichat/internal/config"
	"github.com/nutrichat/nutrichat/internal/database"
	"github.com/nutrichat/nutrichat/internal/gemini"
	"github.com/nutrichat/nutrichat/internal/ratelimit"
)

// HandlerDeps provides dependencies for HTTP handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Completer gemini.Client
	Limiter   *ratelimit.Limiter
}
