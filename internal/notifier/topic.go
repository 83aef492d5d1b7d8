package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const emailChannelName = "email"

// TopicMessage is the payload published to the notification topic.
// Subscribers (cmd/notifier) turn it into an outbound email.
type TopicMessage struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// TopicChannel publishes enriched-lead notifications to a Redis pub/sub
// topic for downstream fan-out.
type TopicChannel struct {
	rdb   *redis.Client
	topic string
	log   *logger.Logger
}

// NewTopicChannel creates a topic-publish channel.
func NewTopicChannel(rdb *redis.Client, topic string, log *logger.Logger) *TopicChannel {
	return &TopicChannel{rdb: rdb, topic: topic, log: log}
}

// Name implements Channel.
func (c *TopicChannel) Name() string { return emailChannelName }

// Send implements Channel.
func (c *TopicChannel) Send(ctx context.Context, rec crmevent.EnrichedRecord) error {
	msg := TopicMessage{
		Subject: "New Lead: " + rec.DisplayName,
		Message: buildEmailBody(rec),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal topic message: %w", err)
	}

	if err := c.rdb.Publish(ctx, c.topic, data).Err(); err != nil {
		return fmt.Errorf("publish to topic %s: %w", c.topic, err)
	}

	c.log.Debug("topic notification published", "topic", c.topic, "lead_id", rec.LeadID)
	return nil
}

func buildEmailBody(rec crmevent.EnrichedRecord) string {
	dateCreated := "n/a"
	if rec.DateCreated != nil {
		dateCreated = *rec.DateCreated
	}

	var b strings.Builder
	b.WriteString("New Lead Alert\n\n")
	fmt.Fprintf(&b, "Name: %s\n", rec.DisplayName)
	fmt.Fprintf(&b, "Lead ID: %s\n", rec.LeadID)
	fmt.Fprintf(&b, "Created: %s\n", dateCreated)
	fmt.Fprintf(&b, "Status: %s\n\n", rec.StatusLabel)
	fmt.Fprintf(&b, "Email: %s\n", rec.LeadEmail)
	fmt.Fprintf(&b, "Lead Owner: %s\n", rec.LeadOwner)
	fmt.Fprintf(&b, "Funnel: %s\n", rec.Funnel)
	return b.String()
}
