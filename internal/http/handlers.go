package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/profile-service/internal/apperr"
	"github.com/tazhibayda/profile-service/internal/auth"
	applog "github.com/tazhibayda/profile-service/internal/log"
	"github.com/tazhibayda/profile-service/internal/profile"
	"github.com/tazhibayda/profile-service/internal/response"
)

// Pinger is a dependency /healthz checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Profiles *profile.Service
	Auth     *auth.Bridge
	Health   map[string]Pinger
	Log      *zap.Logger
}

func NewHandler(profiles *profile.Service, bridge *auth.Bridge, health map[string]Pinger, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Profiles: profiles, Auth: bridge, Health: health, Log: log}
}

// fail writes err as an error envelope. Server-side failures are logged with their cause.
func (h *Handler) fail(c *gin.Context, err error) {
	status, body := response.FromError(err)
	if status >= http.StatusInternalServerError {
		applog.WithDD(c.Request.Context(), h.Log).Error("request failed",
			zap.String("route", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) badJSON(c *gin.Context) {
	h.fail(c, apperr.Validation("Invalid JSON body."))
}

// Healthz godoc
// @Summary Liveness and dependency check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	out := gin.H{"status": "ok"}
	code := http.StatusOK
	for name, p := range h.Health {
		if err := p.Ping(c.Request.Context()); err != nil {
			out["status"] = "degraded"
			out[name] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, out)
}
