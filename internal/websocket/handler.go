package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hooksink/internal/domain/event"
	"hooksink/internal/metrics"
	"hooksink/internal/tenant"
	hookerrors "hooksink/pkg/errors"
)

// Handler upgrades dashboard connections and serves callable operations over
// them: tenant subscriptions, ledger queries, and follow-up provider actions.
type Handler struct {
	hub         *Hub
	registry    *tenant.Registry
	tokenSecret string
	logger      *zap.Logger
}

func NewHandler(hub *Hub, registry *tenant.Registry, tokenSecret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, registry: registry, tokenSecret: tokenSecret, logger: logger}
}

type opRequest struct {
	ID     string          `json:"id"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params"`
}

type opResponse struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

type subscribeParams struct {
	Tenant string `json:"tenant"`
}

type queryParams struct {
	Tenant    string `json:"tenant"`
	EventType string `json:"type"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

type actionParams struct {
	Tenant      string   `json:"tenant"`
	ExternalRef string   `json:"external_ref"`
	URL         string   `json:"url"`
	Body        string   `json:"body"`
	Reaction    string   `json:"reaction"`
	Labels      []string `json:"labels"`
	Text        string   `json:"text"`
}

// eventDTO is the wire shape of a ledger row; the raw payload stays server
// side.
type eventDTO struct {
	DeliveryID  string    `json:"delivery_id"`
	EventType   string    `json:"event_type"`
	Action      string    `json:"action,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Actor       string    `json:"actor"`
	ReceivedAt  time.Time `json:"received_at"`
}

func toDTO(rows []event.Event) []eventDTO {
	out := make([]eventDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, eventDTO{
			DeliveryID:  e.DeliveryID,
			EventType:   e.EventType,
			Action:      e.Action,
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
			Actor:       e.Actor,
			ReceivedAt:  e.ReceivedAt,
		})
	}
	return out
}

// Connect handles GET /ws.
func (h *Handler) Connect(c *gin.Context) {
	if h.tokenSecret != "" {
		if err := h.verifyToken(c.Query("token")); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.DashboardClientsConnected.Inc()
	defer metrics.DashboardClientsConnected.Dec()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.handleOp(ctx, client, data)
	}

	h.hub.Unregister(client)
}

func (h *Handler) verifyToken(token string) error {
	if token == "" {
		return hookerrors.ErrUnauthorized
	}
	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(h.tokenSecret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", hookerrors.ErrUnauthorized, err)
	}
	return nil
}

func (h *Handler) handleOp(ctx context.Context, client *Client, data []byte) {
	var req opRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.reply(client, opResponse{Type: "response", OK: false, Error: "malformed request"})
		return
	}

	res, err := h.dispatch(ctx, client, req)
	if err != nil {
		h.reply(client, opResponse{ID: req.ID, Type: "response", OK: false, Error: err.Error()})
		return
	}
	h.reply(client, opResponse{ID: req.ID, Type: "response", OK: true, Result: res})
}

func (h *Handler) dispatch(ctx context.Context, client *Client, req opRequest) (any, error) {
	switch req.Op {
	case "subscribe":
		var p subscribeParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Tenant == "" {
			return nil, fmt.Errorf("%w: subscribe requires a tenant", hookerrors.ErrInvalidInput)
		}
		actor, err := h.registry.Actor(ctx, p.Tenant)
		if err != nil {
			return nil, err
		}
		h.hub.Subscribe(client, TenantChannel(p.Tenant))

		// New subscribers get the current state explicitly; pushes only carry
		// changes from here on.
		summary, err := actor.Summary(ctx)
		if err != nil {
			return nil, err
		}
		return summaryEnvelope{Type: "summary", Summary: summary}, nil

	case "recent_events":
		var p queryParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Tenant == "" {
			return nil, fmt.Errorf("%w: recent_events requires a tenant", hookerrors.ErrInvalidInput)
		}
		actor, err := h.registry.Actor(ctx, p.Tenant)
		if err != nil {
			return nil, err
		}
		rows, err := actor.Recent(ctx, p.Limit, p.Offset)
		if err != nil {
			return nil, err
		}
		return toDTO(rows), nil

	case "recent_events_by_type":
		var p queryParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Tenant == "" || p.EventType == "" {
			return nil, fmt.Errorf("%w: recent_events_by_type requires a tenant and a type", hookerrors.ErrInvalidInput)
		}
		actor, err := h.registry.Actor(ctx, p.Tenant)
		if err != nil {
			return nil, err
		}
		rows, err := actor.RecentByType(ctx, p.EventType, p.Limit, p.Offset)
		if err != nil {
			return nil, err
		}
		return toDTO(rows), nil

	case "comment", "react", "label", "activity":
		return h.dispatchAction(ctx, req.Op, req.Params)

	default:
		return nil, fmt.Errorf("%w: unknown op %q", hookerrors.ErrInvalidInput, req.Op)
	}
}

func (h *Handler) dispatchAction(ctx context.Context, op string, raw json.RawMessage) (any, error) {
	var p actionParams
	if err := json.Unmarshal(raw, &p); err != nil || p.Tenant == "" {
		return nil, fmt.Errorf("%w: %s requires a tenant", hookerrors.ErrInvalidInput, op)
	}
	if p.ExternalRef == "" {
		return nil, fmt.Errorf("%w: %s requires an external_ref", hookerrors.ErrInvalidInput, op)
	}
	actor, err := h.registry.Actor(ctx, p.Tenant)
	if err != nil {
		return nil, err
	}
	r := actor.Responder()

	switch op {
	case "comment":
		err = r.Comment(ctx, p.ExternalRef, p.URL, p.Body)
	case "react":
		err = r.React(ctx, p.ExternalRef, p.URL, p.Reaction)
	case "label":
		err = r.Label(ctx, p.ExternalRef, p.URL, p.Labels)
	case "activity":
		err = r.Activity(ctx, p.ExternalRef, p.Text)
	}
	if err != nil {
		return nil, err
	}
	return gin.H{"dispatched": true}, nil
}

func (h *Handler) reply(client *Client, res opResponse) {
	payload, err := json.Marshal(res)
	if err != nil {
		h.logger.Error("encode ws response", zap.Error(err))
		return
	}
	client.SendMessage(payload)
}
