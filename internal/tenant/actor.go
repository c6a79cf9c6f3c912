package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"hooksink/internal/domain/event"
	"hooksink/internal/projector"
	"hooksink/internal/repository"
	"hooksink/internal/responder"
	"hooksink/internal/signature"
	"hooksink/pkg/database"
	hookerrors "hooksink/pkg/errors"
)

// WebhookRequest is the transport-independent shape of one inbound delivery.
type WebhookRequest struct {
	Method     string
	Signature  string
	DeliveryID string
	EventType  string
	Body       []byte
}

// Disposition classifies a delivery outcome beyond its HTTP status; accepted
// and duplicate deliveries share a 200 but are distinct outcomes.
type Disposition int

const (
	DispositionRejected Disposition = iota
	DispositionAccepted
	DispositionDuplicate
)

// WebhookResult is what the webhook sender observes: acceptance or rejection
// of the raw delivery, nothing about side effects.
type WebhookResult struct {
	Status      int
	Disposition Disposition
	Message     string
}

// Screen applies the transport and authentication checks that precede any
// storage access. It is a pure function, so the front door can reject a
// forged delivery before a tenant actor (and its ledger file) exists.
func Screen(req WebhookRequest, secret []byte, allowUnsigned bool) (WebhookResult, bool) {
	if req.Method != http.MethodPost {
		return WebhookResult{Status: http.StatusMethodNotAllowed, Message: "method not allowed"}, true
	}

	if len(secret) == 0 {
		if !allowUnsigned {
			return WebhookResult{Status: http.StatusUnauthorized, Message: "signature verification required"}, true
		}
	} else if !signature.Verify(req.Body, req.Signature, secret) {
		return WebhookResult{Status: http.StatusUnauthorized, Message: "invalid signature"}, true
	}

	if req.DeliveryID == "" {
		return WebhookResult{Status: http.StatusBadRequest, Message: "missing delivery id"}, true
	}
	if req.EventType == "" {
		return WebhookResult{Status: http.StatusBadRequest, Message: "missing event type"}, true
	}
	return WebhookResult{}, false
}

type task struct {
	req   WebhookRequest
	reply chan WebhookResult
}

// Actor is the per-tenant unit of isolation. It owns one ledger, one
// projector, and one responder, and processes webhook deliveries serially
// through a single worker goroutine, so the dedup-check-then-insert sequence
// is race-free by construction.
type Actor struct {
	Key string

	ledger        repository.LedgerRepository
	projector     *projector.Projector
	responder     *responder.Responder
	secret        []byte
	allowUnsigned bool
	logger        *zap.Logger

	tasks       chan task
	sideEffects sync.WaitGroup
}

type actorDeps struct {
	dataDir       string
	secret        []byte
	allowUnsigned bool
	responderCfg  responder.Config
	publisher     projector.Publisher
	logger        *zap.Logger
}

// newActor opens the tenant's ledger (idempotent schema creation), recomputes
// the summary from storage, and starts the serial worker. This is the
// UNINITIALIZED to READY transition; it runs once per actor instantiation.
func newActor(ctx context.Context, key string, deps actorDeps) (*Actor, error) {
	db, err := database.Open(database.TenantPath(deps.dataDir, key))
	if err != nil {
		return nil, err
	}

	logger := deps.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("tenant_key", key))

	if len(deps.secret) == 0 {
		logger.Warn("webhook signature verification disabled: unsigned deliveries accepted")
	}

	ledger := repository.NewLedgerRepository(db)
	a := &Actor{
		Key:           key,
		ledger:        ledger,
		projector:     projector.New(key, ledger, deps.publisher),
		responder:     responder.New(deps.responderCfg, logger),
		secret:        deps.secret,
		allowUnsigned: deps.allowUnsigned,
		logger:        logger,
		tasks:         make(chan task, 64),
	}

	// The ledger is the source of truth; never trust a cached summary.
	summary, err := a.projector.Project(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("tenant actor ready", zap.Int64("event_count", summary.EventCount))

	go a.run()
	return a, nil
}

func (a *Actor) run() {
	for t := range a.tasks {
		t.reply <- a.process(t.req)
	}
}

// HandleWebhook enqueues a delivery for serial processing and waits for its
// outcome. The responder is never awaited here.
func (a *Actor) HandleWebhook(ctx context.Context, req WebhookRequest) WebhookResult {
	t := task{req: req, reply: make(chan WebhookResult, 1)}
	select {
	case a.tasks <- t:
	case <-ctx.Done():
		return WebhookResult{Status: http.StatusServiceUnavailable, Message: hookerrors.ErrQueueFull.Error()}
	}
	select {
	case res := <-t.reply:
		return res
	case <-ctx.Done():
		return WebhookResult{Status: http.StatusServiceUnavailable, Message: "request cancelled"}
	}
}

type payloadProbe struct {
	Action       string `json:"action"`
	Installation struct {
		ID json.Number `json:"id"`
	} `json:"installation"`
	Workspace struct {
		ID string `json:"id"`
	} `json:"workspace"`
}

func (a *Actor) process(req WebhookRequest) WebhookResult {
	// Forged requests must not consume ledger reads. The front door already
	// screens HTTP deliveries before this actor exists; repeating the check
	// keeps the actor safe for other transports.
	if res, rejected := Screen(req, a.secret, a.allowUnsigned); rejected {
		return res
	}

	// Cheap retry path: the provider resends on timeout, so a known delivery
	// is acknowledged without reprocessing.
	exists, err := a.ledger.Exists(context.Background(), req.DeliveryID)
	if err != nil {
		a.logger.Error("dedup lookup failed", zap.String("delivery_id", req.DeliveryID), zap.Error(err))
		return WebhookResult{Status: http.StatusInternalServerError, Message: "storage error"}
	}
	if exists {
		return WebhookResult{Status: http.StatusOK, Disposition: DispositionDuplicate, Message: "already processed"}
	}

	if !json.Valid(req.Body) {
		return WebhookResult{Status: http.StatusBadRequest, Message: "malformed payload"}
	}
	var probe payloadProbe
	_ = json.Unmarshal(req.Body, &probe)

	classified := event.Classify(req.EventType, req.Body)
	e := &event.Event{
		DeliveryID:  req.DeliveryID,
		EventType:   req.EventType,
		Action:      probe.Action,
		Title:       classified.Title,
		Description: classified.Description,
		URL:         classified.URL,
		Actor:       classified.Actor,
		RawPayload:  string(req.Body),
		ExternalRef: externalRef(probe),
		ReceivedAt:  time.Now().UTC(),
	}

	inserted, err := a.ledger.Insert(context.Background(), e)
	if err != nil {
		a.logger.Error("ledger insert failed", zap.String("delivery_id", req.DeliveryID), zap.Error(err))
		return WebhookResult{Status: http.StatusInternalServerError, Message: "storage error"}
	}
	if !inserted {
		// A racing duplicate that slipped past the exists check; identical
		// to the pre-existing duplicate path.
		return WebhookResult{Status: http.StatusOK, Disposition: DispositionDuplicate, Message: "already processed"}
	}

	if _, err := a.projector.ProjectAndPublish(context.Background()); err != nil {
		// The row is durable; a projection failure only delays the next push.
		a.logger.Error("summary projection failed", zap.String("delivery_id", req.DeliveryID), zap.Error(err))
	}

	// Fire and continue: the acknowledgment is sent before side effects run,
	// and responder failures never alter it.
	accepted := *e
	a.sideEffects.Add(1)
	go func() {
		defer a.sideEffects.Done()
		a.responder.Respond(context.Background(), accepted)
	}()

	a.logger.Info("delivery accepted",
		zap.String("delivery_id", req.DeliveryID),
		zap.String("event_type", req.EventType),
		zap.String("action", probe.Action))
	return WebhookResult{Status: http.StatusOK, Disposition: DispositionAccepted, Message: "accepted"}
}

func externalRef(probe payloadProbe) sql.NullString {
	if id := probe.Installation.ID.String(); id != "" && id != "0" {
		return sql.NullString{String: id, Valid: true}
	}
	if probe.Workspace.ID != "" {
		return sql.NullString{String: probe.Workspace.ID, Valid: true}
	}
	return sql.NullString{}
}

// Read-side operations for the live query interface. sqlite serializes
// access on the single pooled connection, so these are safe alongside the
// worker.

func (a *Actor) Summary(ctx context.Context) (event.Summary, error) {
	return a.projector.Project(ctx)
}

func (a *Actor) Recent(ctx context.Context, limit, offset int) ([]event.Event, error) {
	return a.ledger.Recent(ctx, limit, offset)
}

func (a *Actor) RecentByType(ctx context.Context, eventType string, limit, offset int) ([]event.Event, error) {
	return a.ledger.RecentByType(ctx, eventType, limit, offset)
}

// Responder exposes the actor's responder for dashboard-initiated actions.
func (a *Actor) Responder() *responder.Responder {
	return a.responder
}

// Drain waits for in-flight side effects. Shutdown may still drop work that
// has not started; the provider-facing protocol tolerates that.
func (a *Actor) Drain() {
	a.sideEffects.Wait()
}
