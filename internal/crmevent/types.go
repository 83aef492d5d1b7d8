// Package crmevent holds the domain types of the lead pipeline and the
// pure functions that validate, extract, and enrich them. Nothing in this
// package performs I/O.
package crmevent

import (
	"encoding/json"
	"time"
)

// ActionCreated is the only webhook action the pipeline accepts.
const ActionCreated = "created"

// Defaults applied when the owner lookup yields no usable data. The
// enriched record is always fully populated; these stand in for any
// missing lookup field.
const (
	DefaultLeadEmail = "not-available@example.com"
	DefaultLeadOwner = "Unassigned"
	DefaultFunnel    = "Unknown"
	unknownValue     = "Unknown"
)

// WebhookPayload is the inbound CRM webhook body.
type WebhookPayload struct {
	SubscriptionID string        `json:"subscription_id,omitempty"`
	Event          *WebhookEvent `json:"event" validate:"required"`
}

// WebhookEvent is the event object inside a webhook payload.
// Data stays raw until extraction so that presence can be distinguished
// from an empty object.
type WebhookEvent struct {
	ID     string          `json:"id,omitempty"`
	LeadID string          `json:"lead_id" validate:"required"`
	Action string          `json:"action" validate:"required,eq=created"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// LeadData is the parsed shape of WebhookEvent.Data.
type LeadData struct {
	DisplayName string  `json:"display_name"`
	StatusLabel string  `json:"status_label"`
	DateCreated *string `json:"date_created"`
}

// LeadSummary is the canonical summary extracted from a validated payload.
type LeadSummary struct {
	LeadID         string  `json:"lead_id"`
	DisplayName    string  `json:"display_name"`
	StatusLabel    string  `json:"status_label"`
	DateCreated    *string `json:"date_created"`
	SubscriptionID string  `json:"subscription_id,omitempty"`
	EventID        string  `json:"event_id,omitempty"`
}

// StoredEnvelope is the durable record of a raw ingested event: the
// original payload plus ingestion metadata. Addressed by a key derived
// from the lead ID, so reprocessing the same lead overwrites the prior
// envelope.
type StoredEnvelope struct {
	WebhookPayload
	ProcessedAt   time.Time   `json:"processed_at"`
	ExtractedLead LeadSummary `json:"extracted_lead_data"`
}

// OwnerInfo is the ownership/funnel metadata fetched from the external
// lookup store. Transient, never persisted standalone.
type OwnerInfo struct {
	LeadID    string `json:"lead_id,omitempty"`
	LeadEmail string `json:"lead_email"`
	LeadOwner string `json:"lead_owner"`
	Funnel    string `json:"funnel"`
}

// EnrichedRecord is the fully populated merge of a raw event with owner
// lookup data. Every field is always set; missing lookup data is replaced
// by defaults, never left empty.
type EnrichedRecord struct {
	LeadID      string    `json:"lead_id"`
	DisplayName string    `json:"display_name"`
	StatusLabel string    `json:"status_label"`
	DateCreated *string   `json:"date_created"`
	LeadEmail   string    `json:"lead_email"`
	LeadOwner   string    `json:"lead_owner"`
	Funnel      string    `json:"funnel"`
	EnrichedAt  time.Time `json:"enriched_at"`
}

// RawObjectKey returns the deterministic storage key for a lead's raw
// event envelope, e.g. "source/crm_event_L1.json".
func RawObjectKey(prefix, leadID string) string {
	return prefix + "crm_event_" + leadID + ".json"
}

// EnrichedObjectKey returns the deterministic storage key for a lead's
// enriched record, e.g. "target/enriched_L1.json".
func EnrichedObjectKey(prefix, leadID string) string {
	return prefix + "enriched_" + leadID + ".json"
}
