// Package ingest implements the ingestion gateway: it validates inbound
// CRM webhook payloads, durably records them with overwrite-on-duplicate
// idempotency, and hands a change notification to the enrichment queue.
package ingest

import (
	"context"
	"time"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/internal/events"
	"leadpipeline_backend/internal/objectstore"
	"leadpipeline_backend/platform/apperr"
	"leadpipeline_backend/platform/logger"
	"leadpipeline_backend/platform/retry"
	"leadpipeline_backend/platform/validator"
)

// Enqueuer hands a stored raw-event reference to the enrichment queue.
// Satisfied by enrich.Client.
type Enqueuer interface {
	EnqueueEnrichment(ctx context.Context, bucket, key string) error
}

// Result is returned to the webhook caller on success.
type Result struct {
	LeadID string
	Key    string
}

// Service orchestrates validate, extract, store and enqueue for one
// webhook invocation. Stateless across invocations.
type Service struct {
	store        objectstore.DocumentStore
	queue        Enqueuer
	bus          events.Bus
	val          *validator.Validator
	bucket       string
	sourcePrefix string
	retryPolicy  retry.Policy
	log          *logger.Logger
	clock        func() time.Time
}

// NewService creates a new ingestion service.
func NewService(store objectstore.DocumentStore, queue Enqueuer, bus events.Bus, val *validator.Validator, bucket, sourcePrefix string, retryPolicy retry.Policy, log *logger.Logger) *Service {
	return &Service{
		store:        store,
		queue:        queue,
		bus:          bus,
		val:          val,
		bucket:       bucket,
		sourcePrefix: sourcePrefix,
		retryPolicy:  retryPolicy,
		log:          log,
		clock:        time.Now,
	}
}

// Ingest processes one webhook payload. Invalid payloads are rejected
// without any write. Valid payloads produce exactly one durable object
// write; transient store failures are retried with backoff before the
// error is surfaced to the caller for redelivery.
func (s *Service) Ingest(ctx context.Context, payload *crmevent.WebhookPayload) (Result, error) {
	if err := crmevent.Validate(s.val, payload); err != nil {
		return Result{}, err
	}

	summary := crmevent.Extract(payload)
	envelope := crmevent.StoredEnvelope{
		WebhookPayload: *payload,
		ProcessedAt:    s.clock().UTC(),
		ExtractedLead:  summary,
	}

	key := crmevent.RawObjectKey(s.sourcePrefix, summary.LeadID)

	err := retry.Do(ctx, s.retryPolicy, objectstore.IsTransient, func(ctx context.Context) error {
		return s.store.PutJSON(ctx, s.bucket, key, envelope)
	})
	if err != nil {
		s.log.WithContext(ctx).StoreError("put_raw_event", key, err)
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to store lead event", err)
	}

	if err := s.queue.EnqueueEnrichment(ctx, s.bucket, key); err != nil {
		// The envelope is already stored; surfacing the error makes the
		// sender retry, and the overwrite keeps that safe.
		s.log.WithContext(ctx).Error("failed to enqueue enrichment", "key", key, "error", err.Error())
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to queue lead for enrichment", err)
	}

	s.log.WithContext(ctx).Info("lead stored", "lead_id", summary.LeadID, "key", key)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadReceived{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     summary.LeadID,
			RawKey:     key,
			ReceivedAt: envelope.ProcessedAt,
		})
	}

	return Result{LeadID: summary.LeadID, Key: key}, nil
}
