package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
)

// Publisher defines the interface for publishing marketplace events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a committed marketplace event
	PublishEvent(ctx context.Context, event *domain.MarketplaceEvent) error
	// Close closes the connection
	Close()
}

// logPublisher only logs events; used when no broker is configured
type logPublisher struct{}

// NewLogPublisher returns a Publisher that logs events instead of publishing them
func NewLogPublisher() Publisher {
	return &logPublisher{}
}

func (p *logPublisher) PublishEvent(ctx context.Context, event *domain.MarketplaceEvent) error {
	logger.InfoCtx(ctx, "Marketplace event",
		zap.String("type", string(event.Type)),
		zap.Uint64("plantation_id", event.PlantationID),
		zap.Float64("credits", event.Credits))
	return nil
}

func (p *logPublisher) Close() {}

// PublishAfterCommit publishes an event for a mutation that is already committed.
// Failures are logged and never returned, since the committed state must not be rolled back.
func PublishAfterCommit(ctx context.Context, publisher Publisher, event *domain.MarketplaceEvent) {
	if publisher == nil || event == nil {
		return
	}

	if err := publisher.PublishEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish marketplace event",
			zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.Uint64("plantation_id", event.PlantationID))
	}
}
