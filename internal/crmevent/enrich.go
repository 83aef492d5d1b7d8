package crmevent

import "time"

// Enrich merges a stored raw event with an owner lookup result into a
// fully populated enriched record. Lookup fields take precedence; the raw
// event supplies display name, status label and creation date. A nil or
// partial owner result is filled with defaults per field, so the record
// is total regardless of what the lookup returned. The lead identity
// always comes from the stored raw event.
func Enrich(env *StoredEnvelope, owner *OwnerInfo, enrichedAt time.Time) EnrichedRecord {
	summary := env.ExtractedLead
	if summary.LeadID == "" && env.Event != nil {
		summary = Extract(&env.WebhookPayload)
	}

	rec := EnrichedRecord{
		LeadID:      summary.LeadID,
		DisplayName: summary.DisplayName,
		StatusLabel: summary.StatusLabel,
		DateCreated: summary.DateCreated,
		LeadEmail:   DefaultLeadEmail,
		LeadOwner:   DefaultLeadOwner,
		Funnel:      DefaultFunnel,
		EnrichedAt:  enrichedAt,
	}

	if rec.DisplayName == "" {
		rec.DisplayName = unknownValue
	}
	if rec.StatusLabel == "" {
		rec.StatusLabel = unknownValue
	}

	if owner != nil {
		if owner.LeadEmail != "" {
			rec.LeadEmail = owner.LeadEmail
		}
		if owner.LeadOwner != "" {
			rec.LeadOwner = owner.LeadOwner
		}
		if owner.Funnel != "" {
			rec.Funnel = owner.Funnel
		}
	}

	return rec
}
