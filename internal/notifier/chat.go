package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/internal/secrets"
	"leadpipeline_backend/platform/logger"
)

const chatChannelName = "chat"

// ChatChannel posts a formatted message to a chat webhook (Slack-style).
// The webhook URL lives in a secret: the secret value is a JSON document
// `{"webhook_url": "..."}` resolved by name at dispatch time.
type ChatChannel struct {
	secrets    secrets.Provider
	secretName string
	httpClient *http.Client
	log        *logger.Logger
}

// NewChatChannel creates a chat webhook channel.
func NewChatChannel(provider secrets.Provider, secretName string, log *logger.Logger) *ChatChannel {
	return &ChatChannel{
		secrets:    provider,
		secretName: secretName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Name implements Channel.
func (c *ChatChannel) Name() string { return chatChannelName }

type chatField struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatBlock struct {
	Type   string      `json:"type"`
	Fields []chatField `json:"fields"`
}

type chatMessage struct {
	Text   string      `json:"text"`
	Blocks []chatBlock `json:"blocks"`
}

// Send implements Channel.
func (c *ChatChannel) Send(ctx context.Context, rec crmevent.EnrichedRecord) error {
	secret, err := c.secrets.Get(ctx, c.secretName)
	if err != nil {
		return fmt.Errorf("resolve chat webhook secret: %w", err)
	}

	var cfg struct {
		WebhookURL string `json:"webhook_url"`
	}
	if err := json.Unmarshal([]byte(secret), &cfg); err != nil {
		return fmt.Errorf("parse chat webhook secret: %w", err)
	}
	if cfg.WebhookURL == "" {
		return fmt.Errorf("chat webhook secret %q has no webhook_url", c.secretName)
	}

	body, err := json.Marshal(buildChatMessage(rec))
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post chat message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("chat webhook returned status %d", resp.StatusCode)
	}

	c.log.Debug("chat notification sent", "lead_id", rec.LeadID)
	return nil
}

func buildChatMessage(rec crmevent.EnrichedRecord) chatMessage {
	dateCreated := "n/a"
	if rec.DateCreated != nil {
		dateCreated = *rec.DateCreated
	}

	return chatMessage{
		Text: "New Lead: " + rec.DisplayName,
		Blocks: []chatBlock{{
			Type: "section",
			Fields: []chatField{
				{Type: "mrkdwn", Text: "*Name:*\n" + rec.DisplayName},
				{Type: "mrkdwn", Text: "*Lead ID:*\n" + rec.LeadID},
				{Type: "mrkdwn", Text: "*Email:*\n" + rec.LeadEmail},
				{Type: "mrkdwn", Text: "*Owner:*\n" + rec.LeadOwner},
				{Type: "mrkdwn", Text: "*Funnel:*\n" + rec.Funnel},
				{Type: "mrkdwn", Text: "*Status:*\n" + rec.StatusLabel},
				{Type: "mrkdwn", Text: "*Created:*\n" + dateCreated},
			},
		}},
	}
}
