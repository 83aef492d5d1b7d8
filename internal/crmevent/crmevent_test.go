package crmevent

import (
	"encoding/json"
	"testing"
	"time"

	"leadpipeline_backend/platform/apperr"
	"leadpipeline_backend/platform/validator"
)

func decodePayload(t *testing.T, raw string) *WebhookPayload {
	t.Helper()
	var p WebhookPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return &p
}

func TestValidateAcceptsCreatedEvent(t *testing.T) {
	p := decodePayload(t, `{
		"subscription_id": "whsub_1",
		"event": {
			"id": "ev_1",
			"lead_id": "lead_123",
			"action": "created",
			"data": {"display_name": "Acme Co", "status_label": "Potential"}
		}
	}`)

	if err := Validate(validator.New(), p); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidateRejectsBadShapes(t *testing.T) {
	val := validator.New()

	cases := map[string]string{
		"missing event":   `{"subscription_id": "whsub_1"}`,
		"missing lead_id": `{"event": {"action": "created", "data": {}}}`,
		"missing action":  `{"event": {"lead_id": "L1", "data": {"x": 1}}}`,
		"missing data":    `{"event": {"lead_id": "L1", "action": "created"}}`,
		"null data":       `{"event": {"lead_id": "L1", "action": "created", "data": null}}`,
		"wrong action":    `{"event": {"lead_id": "L1", "action": "updated", "data": {"x": 1}}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(val, decodePayload(t, raw))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected KindValidation, got %v", err)
			}
		})
	}
}

func TestExtractDefaultsMissingFields(t *testing.T) {
	p := decodePayload(t, `{
		"subscription_id": "whsub_1",
		"event": {"id": "ev_9", "lead_id": "L9", "action": "created", "data": {}}
	}`)

	summary := Extract(p)
	if summary.LeadID != "L9" {
		t.Fatalf("lead_id: got %q", summary.LeadID)
	}
	if summary.DisplayName != "Unknown" || summary.StatusLabel != "Unknown" {
		t.Fatalf("expected Unknown defaults, got %q / %q", summary.DisplayName, summary.StatusLabel)
	}
	if summary.DateCreated != nil {
		t.Fatalf("expected nil date_created, got %v", *summary.DateCreated)
	}
	if summary.SubscriptionID != "whsub_1" || summary.EventID != "ev_9" {
		t.Fatalf("metadata not carried over: %+v", summary)
	}
}

func TestExtractCarriesData(t *testing.T) {
	p := decodePayload(t, `{
		"event": {
			"lead_id": "L1",
			"action": "created",
			"data": {"display_name": "Acme Co", "status_label": "Hot", "date_created": "2025-01-28T12:00:00+00:00"}
		}
	}`)

	summary := Extract(p)
	if summary.DisplayName != "Acme Co" || summary.StatusLabel != "Hot" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.DateCreated == nil || *summary.DateCreated != "2025-01-28T12:00:00+00:00" {
		t.Fatalf("date_created not extracted: %+v", summary.DateCreated)
	}
}

func envelopeForLead(t *testing.T, leadID string) *StoredEnvelope {
	t.Helper()
	p := decodePayload(t, `{
		"event": {
			"lead_id": "`+leadID+`",
			"action": "created",
			"data": {"display_name": "Acme Co", "status_label": "Potential"}
		}
	}`)
	return &StoredEnvelope{
		WebhookPayload: *p,
		ProcessedAt:    time.Now(),
		ExtractedLead:  Extract(p),
	}
}

func TestEnrichUsesLookupFields(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	owner := &OwnerInfo{LeadEmail: "jane@corp.example", LeadOwner: "Jane", Funnel: "Inbound"}

	rec := Enrich(envelopeForLead(t, "L1"), owner, now)
	if rec.LeadID != "L1" {
		t.Fatalf("lead_id: got %q", rec.LeadID)
	}
	if rec.LeadOwner != "Jane" || rec.LeadEmail != "jane@corp.example" || rec.Funnel != "Inbound" {
		t.Fatalf("lookup fields not merged: %+v", rec)
	}
	if rec.DisplayName != "Acme Co" || rec.StatusLabel != "Potential" {
		t.Fatalf("raw fields not carried: %+v", rec)
	}
	if !rec.EnrichedAt.Equal(now) {
		t.Fatalf("enriched_at: got %v", rec.EnrichedAt)
	}
}

func TestEnrichAppliesTotalDefaultsWithoutLookup(t *testing.T) {
	rec := Enrich(envelopeForLead(t, "L2"), nil, time.Now())

	if rec.LeadEmail != DefaultLeadEmail {
		t.Fatalf("lead_email: got %q", rec.LeadEmail)
	}
	if rec.LeadOwner != DefaultLeadOwner {
		t.Fatalf("lead_owner: got %q", rec.LeadOwner)
	}
	if rec.Funnel != DefaultFunnel {
		t.Fatalf("funnel: got %q", rec.Funnel)
	}
}

func TestEnrichFillsPartialLookupPerField(t *testing.T) {
	owner := &OwnerInfo{LeadOwner: "Jane"} // email and funnel missing

	rec := Enrich(envelopeForLead(t, "L3"), owner, time.Now())
	if rec.LeadOwner != "Jane" {
		t.Fatalf("lead_owner: got %q", rec.LeadOwner)
	}
	if rec.LeadEmail != DefaultLeadEmail || rec.Funnel != DefaultFunnel {
		t.Fatalf("partial lookup must be defaulted per field: %+v", rec)
	}
}

func TestEnrichIgnoresLookupLeadID(t *testing.T) {
	owner := &OwnerInfo{LeadID: "other-lead", LeadOwner: "Jane"}

	rec := Enrich(envelopeForLead(t, "L4"), owner, time.Now())
	if rec.LeadID != "L4" {
		t.Fatalf("lead identity must come from the raw event, got %q", rec.LeadID)
	}
}

func TestObjectKeys(t *testing.T) {
	if got := RawObjectKey("source/", "L1"); got != "source/crm_event_L1.json" {
		t.Fatalf("raw key: got %q", got)
	}
	if got := EnrichedObjectKey("target/", "L1"); got != "target/enriched_L1.json" {
		t.Fatalf("enriched key: got %q", got)
	}
}
