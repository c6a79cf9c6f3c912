package projector

import (
	"context"
	"errors"

	"hooksink/internal/domain/event"
	"hooksink/internal/repository"
	hookerrors "hooksink/pkg/errors"
)

// Publisher pushes a freshly projected summary to the tenant's live
// subscribers. Delivery is last-value-wins: subscribers only ever need the
// newest summary, never a backlog.
type Publisher interface {
	PublishSummary(tenantKey string, summary event.Summary)
}

// Projector derives a tenant's summary state from its ledger. The ledger is
// the source of truth; the projector never trusts a cached value.
type Projector struct {
	tenantKey string
	ledger    repository.LedgerRepository
	publisher Publisher
}

func New(tenantKey string, ledger repository.LedgerRepository, publisher Publisher) *Projector {
	return &Projector{
		tenantKey: tenantKey,
		ledger:    ledger,
		publisher: publisher,
	}
}

// Project recomputes the summary from the ledger.
func (p *Projector) Project(ctx context.Context) (event.Summary, error) {
	count, err := p.ledger.Count(ctx)
	if err != nil {
		return event.Summary{}, err
	}

	summary := event.Summary{
		TenantKey:  p.tenantKey,
		EventCount: count,
	}
	if count == 0 {
		return summary, nil
	}

	last, err := p.ledger.Last(ctx)
	if err != nil {
		if errors.Is(err, hookerrors.ErrNotFound) {
			return summary, nil
		}
		return event.Summary{}, err
	}
	summary.LastEvent = &event.LastEvent{
		EventType:  last.EventType,
		Action:     last.Action,
		ReceivedAt: last.ReceivedAt,
	}
	return summary, nil
}

// ProjectAndPublish recomputes the summary and pushes it to subscribers.
// Called synchronously after every successful insert; duplicates never reach
// this point, so subscribers see exactly one push per accepted delivery.
func (p *Projector) ProjectAndPublish(ctx context.Context) (event.Summary, error) {
	summary, err := p.Project(ctx)
	if err != nil {
		return event.Summary{}, err
	}
	if p.publisher != nil {
		p.publisher.PublishSummary(p.tenantKey, summary)
	}
	return summary, nil
}
