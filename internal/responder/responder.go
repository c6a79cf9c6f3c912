package responder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hooksink/internal/domain/event"
)

// Config carries the provider endpoint and fallback credentials.
type Config struct {
	APIBase     string
	Token       string
	CallTimeout time.Duration
}

type handlerFunc func(ctx context.Context, client *Client, e event.Event) error

// Responder performs follow-up provider API calls for accepted events,
// outside the webhook request path. Each tenant actor owns one Responder;
// its credential cache is populated lazily and never invalidated here.
type Responder struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client

	handlers map[string]handlerFunc
}

func New(cfg Config, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Responder{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*Client),
	}
	r.handlers = map[string]handlerFunc{
		"issues/opened":       r.welcomeIssue,
		"pull_request/opened": r.acknowledgeChangeRequest,
		"push":                r.announcePush,
	}
	return r
}

// Respond runs the handler mapped from (event_type, action), if any. It is
// called from a detached goroutine and must never surface an error to the
// already-acknowledged webhook: failures are logged, then reported once on
// the provider's error activity channel, which itself may fail silently.
func (r *Responder) Respond(ctx context.Context, e event.Event) {
	handler, ok := r.handlers[e.EventType+"/"+e.Action]
	if !ok {
		handler, ok = r.handlers[e.EventType]
	}
	if !ok {
		return
	}

	client := r.clientFor(e.ExternalRef.String)
	if err := handler(ctx, client, e); err != nil {
		r.logger.Error("responder handler failed",
			zap.String("delivery_id", e.DeliveryID),
			zap.String("event_type", e.EventType),
			zap.String("action", e.Action),
			zap.Error(err))
		r.notifyError(ctx, client, e, err)
	}
}

// notifyError makes exactly one best-effort attempt to report a handler
// failure through the structured error channel.
func (r *Responder) notifyError(ctx context.Context, client *Client, e event.Event, cause error) {
	text := fmt.Sprintf("failed to respond to %s %s: %v", e.EventType, e.Action, cause)
	if err := client.Activity(ctx, "error", text); err != nil {
		r.logger.Warn("error activity delivery failed",
			zap.String("delivery_id", e.DeliveryID),
			zap.Error(err))
	}
}

func (r *Responder) welcomeIssue(ctx context.Context, client *Client, e event.Event) error {
	if e.URL == "" {
		return fmt.Errorf("issue event %s has no url", e.DeliveryID)
	}
	body := fmt.Sprintf("Thanks for opening this, @%s. The team has been notified.", e.Actor)
	return client.Comment(ctx, e.URL, body)
}

func (r *Responder) acknowledgeChangeRequest(ctx context.Context, client *Client, e event.Event) error {
	if e.URL == "" {
		return fmt.Errorf("change request event %s has no url", e.DeliveryID)
	}
	return client.React(ctx, e.URL, "+1")
}

func (r *Responder) announcePush(ctx context.Context, client *Client, e event.Event) error {
	return client.Activity(ctx, "message", fmt.Sprintf("%s by %s", e.Title, e.Actor))
}

// Dashboard-initiated actions share the same clients and containment rules.

func (r *Responder) Comment(ctx context.Context, externalRef, targetURL, body string) error {
	return r.clientFor(externalRef).Comment(ctx, targetURL, body)
}

func (r *Responder) React(ctx context.Context, externalRef, targetURL, reaction string) error {
	return r.clientFor(externalRef).React(ctx, targetURL, reaction)
}

func (r *Responder) Label(ctx context.Context, externalRef, targetURL string, labels []string) error {
	return r.clientFor(externalRef).Label(ctx, targetURL, labels)
}

func (r *Responder) Activity(ctx context.Context, externalRef, text string) error {
	return r.clientFor(externalRef).Activity(ctx, "message", text)
}

// clientFor returns the cached client for an external ref, building it on
// first use. Per-installation tokens override the fallback token via
// PROVIDER_TOKEN_<REF> environment variables.
func (r *Responder) clientFor(externalRef string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[externalRef]; ok {
		return client
	}
	client := NewClient(r.cfg.APIBase, r.tokenFor(externalRef), r.cfg.CallTimeout)
	r.clients[externalRef] = client
	return client
}

func (r *Responder) tokenFor(externalRef string) string {
	if externalRef != "" {
		key := "PROVIDER_TOKEN_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(externalRef))
		if token, ok := os.LookupEnv(key); ok {
			return token
		}
	}
	return r.cfg.Token
}
