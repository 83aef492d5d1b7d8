package crmevent

import (
	"bytes"

	"leadpipeline_backend/platform/apperr"
	"leadpipeline_backend/platform/validator"
)

var jsonNull = []byte("null")

// Validate checks a decoded webhook payload against the accepted event
// shape: an event object carrying lead_id, action and data, with action
// equal to "created". Any other shape is a validation error, decided and
// terminated here; nothing is ever written for an invalid payload.
func Validate(val *validator.Validator, p *WebhookPayload) error {
	if p == nil || p.Event == nil {
		return apperr.Validation("missing event object")
	}
	if err := val.Struct(p); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid webhook payload", err)
	}
	if len(p.Event.Data) == 0 || bytes.Equal(p.Event.Data, jsonNull) {
		return apperr.Validation("missing event data")
	}
	return nil
}
