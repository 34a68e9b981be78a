package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/messaging"
	"github.com/feral-file/carbon-marketplace/internal/notifier"
)

const (
	// EventSubjectPrefix prefixes marketplace event subjects, e.g. marketplace.events.credits.purchased
	EventSubjectPrefix = "marketplace.events"
	// NotificationSubjectPrefix prefixes notification subjects consumed by the mailer, e.g. marketplace.notifications.two_factor
	NotificationSubjectPrefix = "marketplace.notifications"

	maxPublishRetries = 3
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	PublishTimeout time.Duration
}

// Connection owns a NATS connection and the JetStream context used by the publishers
type Connection struct {
	nc adapter.NatsConn
	js adapter.JetStream
}

// Connect connects to NATS and ensures the marketplace stream exists
func Connect(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream) (*Connection, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	subjects := []string{EventSubjectPrefix + ".>", NotificationSubjectPrefix + ".>"}
	if err := js.EnsureStream(ctx, cfg.StreamName, subjects); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.StreamName, err)
	}

	return &Connection{nc: nc, js: js}, nil
}

// JetStream returns the JetStream context of the connection
func (c *Connection) JetStream() adapter.JetStream {
	return c.js
}

// Close drains pending publishes and closes the NATS connection
func (c *Connection) Close() {
	if c == nil || c.nc == nil {
		return
	}

	if err := c.nc.Drain(); err != nil {
		logger.Warn("Failed to drain NATS connection", zap.Error(err))
		c.nc.Close()
	}
}

// publishWithRetry publishes data with a message ID so that retried publishes are deduplicated by the stream
func publishWithRetry(ctx context.Context, js adapter.JetStream, newBackOff func() backoff.BackOff, timeout time.Duration, subject, msgID string, data []byte) error {
	operation := func() error {
		publishCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			publishCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		_, err := js.Publish(publishCtx, subject, data, jetstream.WithMsgID(msgID))
		return err
	}

	notify := func(err error, d time.Duration) {
		logger.WarnCtx(ctx, "Publish failed, retrying",
			zap.Error(err),
			zap.String("subject", subject),
			zap.Duration("retry_in", d))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxPublishRetries), ctx)
	return backoff.RetryNotify(operation, b, notify)
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	return b
}

type publisher struct {
	js         adapter.JetStream
	json       adapter.JSON
	clock      adapter.Clock
	timeout    time.Duration
	newBackOff func() backoff.BackOff
}

// NewPublisher creates a marketplace event publisher over JetStream
func NewPublisher(js adapter.JetStream, jsonAdapter adapter.JSON, clock adapter.Clock, timeout time.Duration) messaging.Publisher {
	return &publisher{
		js:         js,
		json:       jsonAdapter,
		clock:      clock,
		timeout:    timeout,
		newBackOff: defaultBackOff,
	}
}

// PublishEvent publishes a marketplace event to NATS JetStream
func (p *publisher) PublishEvent(ctx context.Context, event *domain.MarketplaceEvent) error {
	if event.ID == "" {
		event.ID = ulid.MustNewDefault(p.clock.Now()).String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.clock.Now()
	}

	logger.DebugCtx(ctx, "Publishing marketplace event", zap.Any("event", event))

	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", EventSubjectPrefix, event.Type)
	if err := publishWithRetry(ctx, p.js, p.newBackOff, p.timeout, subject, event.ID, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close is a no-op; the Connection owns the NATS connection
func (p *publisher) Close() {}

type notificationPublisher struct {
	js         adapter.JetStream
	json       adapter.JSON
	clock      adapter.Clock
	timeout    time.Duration
	newBackOff func() backoff.BackOff
}

// NewNotifier creates a Notifier that hands messages to the mailer through JetStream
func NewNotifier(js adapter.JetStream, jsonAdapter adapter.JSON, clock adapter.Clock, timeout time.Duration) notifier.Notifier {
	return &notificationPublisher{
		js:         js,
		json:       jsonAdapter,
		clock:      clock,
		timeout:    timeout,
		newBackOff: defaultBackOff,
	}
}

// Send publishes the notification; the mailer consumes and delivers it
func (n *notificationPublisher) Send(ctx context.Context, msg notifier.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.MustNewDefault(n.clock.Now()).String()
	}
	msg.CreatedAt = n.clock.Now()

	data, err := n.json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", NotificationSubjectPrefix, msg.Kind)
	if err := publishWithRetry(ctx, n.js, n.newBackOff, n.timeout, subject, msg.ID, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}
