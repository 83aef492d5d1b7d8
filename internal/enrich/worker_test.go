package enrich

import (
	"context"
	"testing"

	"leadpipeline_backend/platform/logger"

	"github.com/hibiken/asynq"
)

func TestHandleLeadEnrichDropsUnparseableTask(t *testing.T) {
	w := &Worker{
		service: newTestService(newFakeStore(), &fakeLookup{}, &fakeNotifier{}),
		log:     logger.New("development"),
	}

	task := asynq.NewTask(TaskLeadEnrich, []byte(`{"references":`))
	if err := w.handleLeadEnrich(context.Background(), task); err != nil {
		t.Fatalf("unparseable tasks must be dropped, not redelivered: %v", err)
	}
}

func TestHandleLeadEnrichProcessesReferences(t *testing.T) {
	store := newFakeStore()
	key := seedEnvelope(t, store, "L9", "Zeta Inc")
	notif := &fakeNotifier{}

	w := &Worker{
		service: newTestService(store, &fakeLookup{}, notif),
		log:     logger.New("development"),
	}

	task, err := NewEnrichmentTask(EnrichmentPayload{References: []ObjectRef{{Bucket: "leads", Key: key}}})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := w.handleLeadEnrich(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if notif.count() != 1 {
		t.Fatalf("expected one notification, got %d", notif.count())
	}
}
