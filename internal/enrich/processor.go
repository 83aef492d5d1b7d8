// Package enrich implements the enrichment processor: it consumes queued
// references to stored raw events, merges in owner lookup data, persists
// the enriched record and fans out notifications.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/internal/events"
	"leadpipeline_backend/internal/lookup"
	"leadpipeline_backend/internal/objectstore"
	"leadpipeline_backend/platform/logger"
	"leadpipeline_backend/platform/retry"

	"golang.org/x/sync/errgroup"
)

// Notifier dispatches notifications for an enriched record, absorbing
// all channel failures. Satisfied by notifier.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, rec crmevent.EnrichedRecord)
}

// Service processes change-notification batches. Stateless across
// invocations; safe for concurrent batches.
type Service struct {
	store        objectstore.DocumentStore
	lookup       lookup.OwnerLookup
	notifier     Notifier
	bus          events.Bus
	bucket       string
	targetPrefix string
	retryPolicy  retry.Policy
	log          *logger.Logger
	clock        func() time.Time
}

// NewService creates a new enrichment service.
func NewService(store objectstore.DocumentStore, ownerLookup lookup.OwnerLookup, notifier Notifier, bus events.Bus, bucket, targetPrefix string, retryPolicy retry.Policy, log *logger.Logger) *Service {
	return &Service{
		store:        store,
		lookup:       ownerLookup,
		notifier:     notifier,
		bus:          bus,
		bucket:       bucket,
		targetPrefix: targetPrefix,
		retryPolicy:  retryPolicy,
		log:          log,
		clock:        time.Now,
	}
}

// ProcessBatch processes every reference in the batch. Items run in
// parallel and never share mutable state; each item's failure is tracked
// independently so one failing reference cannot abort its siblings. The
// joined error of the failed items is returned so the queue redelivers
// the batch. Reprocessing already-enriched items is safe because every
// write is an idempotent overwrite.
func (s *Service) ProcessBatch(ctx context.Context, refs []ObjectRef) error {
	if len(refs) == 0 {
		return nil
	}

	itemErrs := make([]error, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			if err := s.processReference(ctx, ref); err != nil {
				itemErrs[i] = fmt.Errorf("reference %s: %w", ref.Key, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(itemErrs...)
}

// processReference runs the per-item pipeline: read envelope, look up
// owner data, merge, persist, notify.
func (s *Service) processReference(ctx context.Context, ref ObjectRef) error {
	log := s.log.WithContext(ctx)

	var envelope crmevent.StoredEnvelope
	err := retry.Do(ctx, s.retryPolicy, objectstore.IsTransient, func(ctx context.Context) error {
		return s.store.GetJSON(ctx, ref.Bucket, ref.Key, &envelope)
	})
	if err != nil {
		log.StoreError("get_raw_event", ref.Key, err)
		return err
	}

	leadID := envelope.ExtractedLead.LeadID
	if leadID == "" && envelope.Event != nil {
		leadID = envelope.Event.LeadID
	}
	if leadID == "" {
		// Structurally invalid stored record: retrying cannot fix it,
		// so the reference is dropped rather than redelivered.
		log.Error("stored event has no lead_id, dropping", "key", ref.Key)
		return nil
	}
	log = log.WithLeadID(leadID)

	owner, found := s.lookup.Lookup(ctx, leadID)
	if !found {
		log.Info("owner lookup unavailable, enriching with defaults")
	}

	record := crmevent.Enrich(&envelope, owner, s.clock().UTC())

	enrichedKey := crmevent.EnrichedObjectKey(s.targetPrefix, leadID)
	err = retry.Do(ctx, s.retryPolicy, objectstore.IsTransient, func(ctx context.Context) error {
		return s.store.PutJSON(ctx, s.bucket, enrichedKey, record)
	})
	if err != nil {
		log.StoreError("put_enriched_record", enrichedKey, err)
		return err
	}
	log.Info("lead enriched", "key", enrichedKey, "owner", record.LeadOwner)

	// The record is durably stored; from here on nothing can fail the
	// reference.
	s.notifier.Dispatch(ctx, record)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadEnriched{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      leadID,
			EnrichedKey: enrichedKey,
			EnrichedAt:  record.EnrichedAt,
		})
	}

	return nil
}
