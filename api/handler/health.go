package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lucidportal/backend/api/transport"
	"github.com/lucidportal/backend/internal/infrastructure/monitor"
	"github.com/lucidportal/backend/pkg/httpcontext"
)

// StatusSource reports backend reachability.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	mirror := map[string]interface{}{
		"online": status.Mirror,
		"size":   status.MirrorSize,
	}
	if status.MirrorDetails != nil {
		mirror["details"] = status.MirrorDetails
	}
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"mode":      status.Mode(),
		"services": map[string]interface{}{
			"remote": map[string]interface{}{
				"configured": status.RemoteConfigured,
				"online":     status.Remote,
			},
			"mirror": mirror,
		},
	}

	// Serving from the mirror alone is a degraded but working state.
	if status.Mirror || status.Remote {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "no backing store reachable", payload))
}
