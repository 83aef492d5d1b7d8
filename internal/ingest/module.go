package ingest

import (
	"leadpipeline_backend/internal/events"
	"leadpipeline_backend/internal/objectstore"
	"leadpipeline_backend/platform/httpkit"
	"leadpipeline_backend/platform/logger"
	"leadpipeline_backend/platform/retry"
	"leadpipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Module bundles the ingestion gateway's service and handler.
type Module struct {
	Service *Service
	Handler *Handler
}

// NewModule wires the ingestion gateway.
func NewModule(store objectstore.DocumentStore, queue Enqueuer, bus events.Bus, val *validator.Validator, bucket, sourcePrefix string, retryPolicy retry.Policy, log *logger.Logger) *Module {
	service := NewService(store, queue, bus, val, bucket, sourcePrefix, retryPolicy, log)
	return &Module{
		Service: service,
		Handler: NewHandler(service, log),
	}
}

// RegisterRoutes mounts the webhook endpoint.
func (m *Module) RegisterRoutes(r *gin.Engine, limiter *httpkit.IPRateLimiter) {
	group := r.Group("/api/v1/webhooks")
	if limiter != nil {
		group.Use(limiter.RateLimit())
	}
	group.POST("/crm", m.Handler.HandleCRMWebhook)
}
