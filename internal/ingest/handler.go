package ingest

import (
	"encoding/json"
	"io"
	"net/http"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/platform/httpkit"
	"leadpipeline_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20 // webhook payloads are small

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new ingestion handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// SuccessResponse is the 200 body returned to the webhook sender.
type SuccessResponse struct {
	Message string `json:"message"`
	LeadID  string `json:"lead_id"`
	S3Key   string `json:"s3_key"`
}

// HandleCRMWebhook processes an inbound CRM webhook.
// POST /api/v1/webhooks/crm
func (h *Handler) HandleCRMWebhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read request body")
		return
	}

	payload, err := decodePayload(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), payload)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, SuccessResponse{
		Message: "Lead received and stored successfully",
		LeadID:  result.LeadID,
		S3Key:   result.Key,
	})
}

// decodePayload parses the webhook body, unwrapping the transport
// envelope some senders use: a top-level "body" holding either the
// payload object or a JSON-encoded string of it.
func decodePayload(raw []byte) (*crmevent.WebhookPayload, error) {
	var probe struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	if len(probe.Body) > 0 {
		var inner string
		if err := json.Unmarshal(probe.Body, &inner); err == nil {
			raw = []byte(inner)
		} else {
			raw = probe.Body
		}
	}

	var payload crmevent.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
