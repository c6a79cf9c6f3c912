package tenant

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"hooksink/internal/projector"
	"hooksink/internal/responder"
)

// Registry maps tenant keys to live actors. Actors are created lazily on
// first request and live for the rest of the process; at most one actor
// exists per key.
type Registry struct {
	mu     sync.Mutex
	actors map[string]*Actor
	deps   actorDeps
}

type RegistryConfig struct {
	DataDir       string
	WebhookSecret string
	// AllowUnsigned opts in to accepting deliveries without signature
	// verification. Without it an empty secret rejects every delivery.
	AllowUnsigned bool
	Responder     responder.Config
}

func NewRegistry(cfg RegistryConfig, publisher projector.Publisher, logger *zap.Logger) *Registry {
	var secret []byte
	if cfg.WebhookSecret != "" {
		secret = []byte(cfg.WebhookSecret)
	}
	return &Registry{
		actors: make(map[string]*Actor),
		deps: actorDeps{
			dataDir:       cfg.DataDir,
			secret:        secret,
			allowUnsigned: cfg.AllowUnsigned,
			responderCfg:  cfg.Responder,
			publisher:     publisher,
			logger:        logger,
		},
	}
}

// Screen applies the pre-actor rejection checks with the registry's webhook
// credentials. It never instantiates an actor or touches storage.
func (r *Registry) Screen(req WebhookRequest) (WebhookResult, bool) {
	return Screen(req, r.deps.secret, r.deps.allowUnsigned)
}

// Actor returns the live actor for key, creating it on first use. Creation
// runs under the registry lock so two concurrent requests for a new tenant
// cannot instantiate it twice.
func (r *Registry) Actor(ctx context.Context, key string) (*Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.actors[key]; ok {
		return a, nil
	}
	a, err := newActor(ctx, key, r.deps)
	if err != nil {
		return nil, err
	}
	r.actors[key] = a
	return a, nil
}

// Drain waits for every actor's in-flight side effects.
func (r *Registry) Drain() {
	r.mu.Lock()
	actors := make([]*Actor, 0, len(r.actors))
	for _, a := range r.actors {
		actors = append(actors, a)
	}
	r.mu.Unlock()

	for _, a := range actors {
		a.Drain()
	}
}
