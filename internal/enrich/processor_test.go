package enrich

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/platform/logger"
	"leadpipeline_backend/platform/retry"

	"github.com/minio/minio-go/v7"
)

var errSlowDown = minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}

// fakeStore keeps objects as JSON so reads exercise the same decode path
// as the real store.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	getErrs  map[string]error // per key, consumed once per call until cleared
	putErrs  map[string]error
	getCalls map[string]int
	putCalls map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  make(map[string][]byte),
		getErrs:  make(map[string]error),
		putErrs:  make(map[string]error),
		getCalls: make(map[string]int),
		putCalls: make(map[string]int),
	}
}

func (f *fakeStore) seed(t *testing.T, key string, doc any) {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
	f.mu.Lock()
	f.objects[key] = raw
	f.mu.Unlock()
}

func (f *fakeStore) GetJSON(_ context.Context, _, key string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls[key]++
	if err, ok := f.getErrs[key]; ok {
		return err
	}
	raw, ok := f.objects[key]
	if !ok {
		return minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeStore) PutJSON(_ context.Context, _, key string, doc any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls[key]++
	if err, ok := f.putErrs[key]; ok {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	f.objects[key] = raw
	return nil
}

func (f *fakeStore) EnsureBucketExists(context.Context, string) error { return nil }

func (f *fakeStore) enriched(t *testing.T, key string) crmevent.EnrichedRecord {
	t.Helper()
	f.mu.Lock()
	raw, ok := f.objects[key]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no enriched record at %s", key)
	}
	var rec crmevent.EnrichedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("decode enriched record: %v", err)
	}
	return rec
}

type fakeLookup struct {
	owners map[string]*crmevent.OwnerInfo
}

func (f *fakeLookup) Lookup(_ context.Context, leadID string) (*crmevent.OwnerInfo, bool) {
	owner, ok := f.owners[leadID]
	return owner, ok
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []crmevent.EnrichedRecord
}

func (f *fakeNotifier) Dispatch(_ context.Context, rec crmevent.EnrichedRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, JitterFraction: 0.3}
}

func newTestService(store *fakeStore, owners *fakeLookup, n *fakeNotifier) *Service {
	return NewService(store, owners, n, nil, "leads", "target/", fastPolicy(), logger.New("development"))
}

func seedEnvelope(t *testing.T, store *fakeStore, leadID, displayName string) string {
	t.Helper()
	key := crmevent.RawObjectKey("source/", leadID)
	store.seed(t, key, crmevent.StoredEnvelope{
		WebhookPayload: crmevent.WebhookPayload{
			Event: &crmevent.WebhookEvent{
				LeadID: leadID,
				Action: crmevent.ActionCreated,
				Data:   json.RawMessage(`{"display_name":"` + displayName + `"}`),
			},
		},
		ProcessedAt: time.Now().UTC(),
		ExtractedLead: crmevent.LeadSummary{
			LeadID:      leadID,
			DisplayName: displayName,
			StatusLabel: "New",
		},
	})
	return key
}

func TestProcessBatchEnrichesWithOwnerData(t *testing.T) {
	store := newFakeStore()
	key := seedEnvelope(t, store, "L1", "Acme Co")
	owners := &fakeLookup{owners: map[string]*crmevent.OwnerInfo{
		"L1": {LeadEmail: "owner@acme.example", LeadOwner: "Alex", Funnel: "Inbound"},
	}}
	notif := &fakeNotifier{}

	err := newTestService(store, owners, notif).ProcessBatch(context.Background(), []ObjectRef{{Bucket: "leads", Key: key}})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	rec := store.enriched(t, "target/enriched_L1.json")
	if rec.LeadID != "L1" || rec.DisplayName != "Acme Co" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.LeadEmail != "owner@acme.example" || rec.LeadOwner != "Alex" || rec.Funnel != "Inbound" {
		t.Fatalf("lookup data not merged: %+v", rec)
	}
	if rec.EnrichedAt.IsZero() {
		t.Fatal("enriched_at not stamped")
	}

	if notif.count() != 1 {
		t.Fatalf("expected one notification, got %d", notif.count())
	}
}

func TestProcessBatchDefaultsWhenLookupAbsent(t *testing.T) {
	store := newFakeStore()
	key := seedEnvelope(t, store, "L2", "Beta LLC")
	notif := &fakeNotifier{}

	err := newTestService(store, &fakeLookup{}, notif).ProcessBatch(context.Background(), []ObjectRef{{Bucket: "leads", Key: key}})
	if err != nil {
		t.Fatalf("lookup absence must not fail the item: %v", err)
	}

	rec := store.enriched(t, "target/enriched_L2.json")
	if rec.LeadEmail != crmevent.DefaultLeadEmail || rec.LeadOwner != crmevent.DefaultLeadOwner || rec.Funnel != crmevent.DefaultFunnel {
		t.Fatalf("defaults not applied: %+v", rec)
	}
	if notif.count() != 1 {
		t.Fatal("notification must still fire with default data")
	}
}

func TestProcessBatchDropsEnvelopeWithoutLeadID(t *testing.T) {
	store := newFakeStore()
	store.seed(t, "source/crm_event_broken.json", crmevent.StoredEnvelope{
		ProcessedAt: time.Now().UTC(),
	})
	notif := &fakeNotifier{}

	err := newTestService(store, &fakeLookup{}, notif).ProcessBatch(context.Background(), []ObjectRef{{Bucket: "leads", Key: "source/crm_event_broken.json"}})
	if err != nil {
		t.Fatalf("unrecoverable record must be dropped, not redelivered: %v", err)
	}
	if notif.count() != 0 {
		t.Fatal("dropped record must not notify")
	}
}

func TestProcessBatchRetriesTransientReads(t *testing.T) {
	store := newFakeStore()
	key := seedEnvelope(t, store, "L3", "Gamma BV")
	store.getErrs[key] = errSlowDown

	err := newTestService(store, &fakeLookup{}, &fakeNotifier{}).ProcessBatch(context.Background(), []ObjectRef{{Bucket: "leads", Key: key}})
	if err == nil {
		t.Fatal("expected error while reads keep failing")
	}
	if store.getCalls[key] != 3 {
		t.Fatalf("expected max attempts on transient read, got %d", store.getCalls[key])
	}
}

func TestProcessBatchSurfacesWriteFailureForRedelivery(t *testing.T) {
	store := newFakeStore()
	key := seedEnvelope(t, store, "L4", "Delta AG")
	store.putErrs["target/enriched_L4.json"] = errSlowDown
	notif := &fakeNotifier{}

	err := newTestService(store, &fakeLookup{}, notif).ProcessBatch(context.Background(), []ObjectRef{{Bucket: "leads", Key: key}})
	if err == nil {
		t.Fatal("expected error when the enriched write fails")
	}
	if !strings.Contains(err.Error(), key) {
		t.Fatalf("error should name the failing reference: %v", err)
	}
	if notif.count() != 0 {
		t.Fatal("notification must not fire before the record is stored")
	}
}

func TestProcessBatchIsolatesFailingItems(t *testing.T) {
	store := newFakeStore()
	goodKey := seedEnvelope(t, store, "L5", "Epsilon")
	badKey := "source/crm_event_missing.json"
	store.getErrs[badKey] = errSlowDown
	notif := &fakeNotifier{}

	err := newTestService(store, &fakeLookup{}, notif).ProcessBatch(context.Background(), []ObjectRef{
		{Bucket: "leads", Key: badKey},
		{Bucket: "leads", Key: goodKey},
	})
	if err == nil {
		t.Fatal("expected joined error for the failing item")
	}
	if !strings.Contains(err.Error(), badKey) {
		t.Fatalf("error should name the failing item: %v", err)
	}
	if strings.Contains(err.Error(), goodKey) {
		t.Fatalf("healthy item must not appear in the error: %v", err)
	}

	// The healthy sibling completed despite the failure next to it.
	rec := store.enriched(t, "target/enriched_L5.json")
	if rec.LeadID != "L5" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if notif.count() != 1 {
		t.Fatalf("expected one notification, got %d", notif.count())
	}
}

func TestProcessBatchEmptyIsNoop(t *testing.T) {
	store := newFakeStore()
	if err := newTestService(store, &fakeLookup{}, &fakeNotifier{}).ProcessBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}
