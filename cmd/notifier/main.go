// The notifier binary subscribes to the email notification topic and
// delivers each published message as an email over SMTP. It is the
// delivery half of the email channel; the enrichment worker only
// publishes to the topic.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadpipeline_backend/internal/config"
	"leadpipeline_backend/internal/mailer"
	"leadpipeline_backend/internal/notifier"
	"leadpipeline_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const sendTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	if cfg.EmailToAddress == "" || cfg.SMTPHost == "" {
		panic("EMAIL_TO_ADDRESS and SMTP_HOST are required for the notifier")
	}

	log.Info("starting email notifier", "env", cfg.Env, "topic", cfg.EmailTopic)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid redis url", "error", err.Error())
		panic("invalid redis url: " + err.Error())
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFromAddress, cfg.EmailFromName)

	sub := rdb.Subscribe(ctx, cfg.EmailTopic)
	defer sub.Close()

	// Fail fast when the subscription cannot be established.
	if _, err := sub.Receive(ctx); err != nil {
		log.Error("failed to subscribe to topic", "topic", cfg.EmailTopic, "error", err.Error())
		panic("failed to subscribe to topic: " + err.Error())
	}
	log.Info("subscribed", "topic", cfg.EmailTopic)

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("email notifier stopped")
				return
			}
			log.Error("failed to receive topic message", "error", err.Error())
			continue
		}

		var tm notifier.TopicMessage
		if err := json.Unmarshal([]byte(msg.Payload), &tm); err != nil {
			log.Error("unparseable topic message, dropping", "error", err.Error())
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err = sender.Send(sendCtx, cfg.EmailToAddress, tm.Subject, tm.Message)
		cancel()
		if err != nil {
			// Delivery is best effort; a lost email never blocks the topic.
			log.Error("failed to send notification email", "subject", tm.Subject, "error", err.Error())
			continue
		}
		log.Debug("notification email sent", "subject", tm.Subject)
	}
}
