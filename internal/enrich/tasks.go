package enrich

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskLeadEnrich is the queue task carrying stored raw-event references
// to the enrichment processor.
const TaskLeadEnrich = "lead.enrich"

// ObjectRef names a stored raw-event object.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// EnrichmentPayload is a batch of change-notification references. Each
// reference is processed independently.
type EnrichmentPayload struct {
	References []ObjectRef `json:"references"`
}

// NewEnrichmentTask builds a queue task from a reference batch.
func NewEnrichmentTask(payload EnrichmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadEnrich, data), nil
}

// ParseEnrichmentPayload decodes a queue task back into a reference batch.
func ParseEnrichmentPayload(task *asynq.Task) (EnrichmentPayload, error) {
	var payload EnrichmentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EnrichmentPayload{}, err
	}
	return payload, nil
}
