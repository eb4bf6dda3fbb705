package fee

import (
	"context"

	"github.com/feeledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// publishEvents hands the aggregate's pending events to the publisher once
// the write has committed. Delivery failures are logged and never undo the
// committed state.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	aggregate.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		types := make([]string, len(events))
		for i, e := range events {
			types[i] = e.EventType()
		}
		logger.Warn("Failed to publish domain events",
			zap.Strings("event_types", types),
			zap.String("aggregate_id", aggregate.GetID().String()),
			zap.Error(err),
		)
	}
}

// notFound is the NOT_FOUND error for a missing voucher
func notFound() error {
	return shared.NewDomainError(shared.CodeNotFound, "Fee voucher not found")
}
