package crmevent

import "encoding/json"

// Extract turns a validated payload into the canonical lead summary.
// Display name and status label default to "Unknown" when absent; the
// creation date stays nil. Unparseable data fields degrade to defaults
// rather than failing, since the payload shape was already validated.
func Extract(p *WebhookPayload) LeadSummary {
	var data LeadData
	if len(p.Event.Data) > 0 {
		_ = json.Unmarshal(p.Event.Data, &data)
	}

	if data.DisplayName == "" {
		data.DisplayName = unknownValue
	}
	if data.StatusLabel == "" {
		data.StatusLabel = unknownValue
	}

	return LeadSummary{
		LeadID:         p.Event.LeadID,
		DisplayName:    data.DisplayName,
		StatusLabel:    data.StatusLabel,
		DateCreated:    data.DateCreated,
		SubscriptionID: p.SubscriptionID,
		EventID:        p.Event.ID,
	}
}
