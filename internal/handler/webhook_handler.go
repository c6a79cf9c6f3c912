package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hooksink/internal/metrics"
	"hooksink/internal/tenant"
	"hooksink/pkg/logger"
)

// maxBodyBytes bounds webhook payloads; the provider's own limit is lower.
const maxBodyBytes = 1 << 20

const (
	HeaderSignature  = "X-Hub-Signature-256"
	HeaderEventType  = "X-GitHub-Event"
	HeaderDeliveryID = "X-GitHub-Delivery"
)

// WebhookHandler is the HTTP front door: it reads the raw body, resolves the
// tenant, and hands the delivery to that tenant's actor. All webhook
// semantics (signature, dedup, storage) live in the actor.
type WebhookHandler struct {
	registry *tenant.Registry
	logger   *zap.Logger
}

func NewWebhookHandler(registry *tenant.Registry, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{registry: registry, logger: logger}
}

// Handle serves any method on the webhook path; non-POST shares the screening
// taxonomy with the other rejections.
func (h *WebhookHandler) Handle(c *gin.Context) {
	start := time.Now()
	metrics.WebhooksReceivedTotal.Inc()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metrics.WebhooksClientErrorTotal.Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	req := tenant.WebhookRequest{
		Method:     c.Request.Method,
		Signature:  c.GetHeader(HeaderSignature),
		DeliveryID: c.GetHeader(HeaderDeliveryID),
		EventType:  c.GetHeader(HeaderEventType),
		Body:       body,
	}

	// Forged or malformed deliveries are rejected here, before a tenant actor
	// (and its ledger file) exists. Rejection never touches storage.
	if res, rejected := h.registry.Screen(req); rejected {
		h.record(res, start)
		c.JSON(res.Status, gin.H{"message": res.Message})
		return
	}

	key := tenant.Resolve(body)
	ctx := context.WithValue(c.Request.Context(), logger.TenantKeyKey, key)
	c.Request = c.Request.WithContext(ctx)

	actor, err := h.registry.Actor(ctx, key)
	if err != nil {
		h.logger.Error("tenant actor unavailable", zap.String("tenant_key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant unavailable"})
		return
	}

	res := actor.HandleWebhook(ctx, req)
	h.record(res, start)
	c.JSON(res.Status, gin.H{"message": res.Message, "tenant": key})
}

func (h *WebhookHandler) record(res tenant.WebhookResult, start time.Time) {
	switch {
	case res.Disposition == tenant.DispositionAccepted:
		metrics.WebhooksAcceptedTotal.Inc()
	case res.Disposition == tenant.DispositionDuplicate:
		metrics.WebhooksDuplicateTotal.Inc()
	case res.Status == http.StatusUnauthorized:
		metrics.WebhooksUnauthorizedTotal.Inc()
	case res.Status >= 400 && res.Status < 500:
		metrics.WebhooksClientErrorTotal.Inc()
	}
	metrics.WebhookProcessingDuration.Observe(time.Since(start).Seconds())
}
