// Package events publishes signal lifecycle events for downstream systems.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/vesselops/beacon/pkg/kafka"
	"github.com/vesselops/beacon/pkg/models"
	"github.com/vesselops/beacon/pkg/tracing"
)

// Emitter publishes reconciliation events. It satisfies the matching
// service's event sink; publish failures are logged, never propagated, so a
// broker outage cannot fail a link.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// SignalLinked emits a signal.linked event
func (e *Emitter) SignalLinked(ctx context.Context, result *models.LinkResult, auto bool) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.SignalLinked")
	defer span.End()

	event := &kafka.SignalEvent{
		EventType: "signal.linked",
		SignalID:  result.SignalID,
		RequestID: &result.RequestID,
		Override:  result.Override,
		Auto:      auto,
	}

	if err := e.producer.PublishSignalEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit signal.linked event")
	}
}

// SignalReceived emits a signal.received event
func (e *Emitter) SignalReceived(ctx context.Context, signalID int64) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.SignalReceived")
	defer span.End()

	event := &kafka.SignalEvent{
		EventType: "signal.received",
		SignalID:  signalID,
	}

	if err := e.producer.PublishSignalEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit signal.received event")
	}
}
