package ledger

import (
	"context"

	"leadpipeline_backend/internal/events"
	"leadpipeline_backend/platform/logger"
)

// Module subscribes the ledger to pipeline events.
type Module struct {
	repo *Repository
	log  *logger.Logger
}

// NewModule creates the ledger module.
func NewModule(repo *Repository, log *logger.Logger) *Module {
	return &Module{repo: repo, log: log}
}

// RegisterHandlers subscribes the ledger to lead lifecycle events.
// Handler errors are logged by the bus and never reach the pipeline.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.LeadReceivedName, events.HandlerFunc(m.handleLeadReceived))
	bus.Subscribe(events.LeadEnrichedName, events.HandlerFunc(m.handleLeadEnriched))
}

func (m *Module) handleLeadReceived(ctx context.Context, event events.Event) error {
	received, ok := event.(events.LeadReceived)
	if !ok {
		return nil
	}
	return m.repo.RecordReceipt(ctx, received.LeadID, received.RawKey, received.ReceivedAt)
}

func (m *Module) handleLeadEnriched(ctx context.Context, event events.Event) error {
	enriched, ok := event.(events.LeadEnriched)
	if !ok {
		return nil
	}
	return m.repo.RecordEnrichment(ctx, enriched.LeadID, enriched.EnrichedKey, enriched.EnrichedAt)
}
