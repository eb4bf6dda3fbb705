package notification

import (
	"context"
	"errors"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/feeledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Handler is the event bus subscriber that renders ledger events and
// passes them to every configured notifier
type Handler struct {
	composer  *Composer
	notifiers []Notifier
}

// NewHandler creates a Handler
func NewHandler(composer *Composer, notifiers ...Notifier) *Handler {
	return &Handler{composer: composer, notifiers: notifiers}
}

// EventTypes lists the events payers or staff hear about
func (h *Handler) EventTypes() []string {
	return []string{
		fee.EventTypePaymentSubmitted,
		fee.EventTypePaymentApproved,
		fee.EventTypePaymentRejected,
		fee.EventTypeVoucherPaid,
		fee.EventTypeVoucherOverdue,
		fee.EventTypeVoucherCancelled,
	}
}

// Handle composes the notification and delivers it on every channel.
// A failing channel does not stop the others.
func (h *Handler) Handle(ctx context.Context, event shared.DomainEvent) error {
	n, ok := h.composer.Compose(event)
	if !ok {
		return nil
	}

	var errs []error
	for _, notifier := range h.notifiers {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		logger.FromContext(ctx).Warn("Notification delivery failed",
			zap.String("event_id", n.EventID.String()),
			zap.Int("failed_channels", len(errs)),
		)
	}
	return errors.Join(errs...)
}

var _ shared.EventHandler = (*Handler)(nil)
