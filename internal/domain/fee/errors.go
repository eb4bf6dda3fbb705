package fee

import (
	"fmt"
	"time"

	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrAlreadyDecided matches any AlreadyDecidedError through errors.Is
var ErrAlreadyDecided = shared.NewDomainError(shared.CodeAlreadyDecided, "Payment has already been decided")

// AlreadyDecidedError reports that a payment left pending before this
// decision arrived. It carries the outcome that won.
type AlreadyDecidedError struct {
	PaymentID uuid.UUID
	Status    PaymentStatus
	DecidedBy uuid.UUID
	DecidedAt time.Time
}

// NewAlreadyDecidedError builds the error from the payment's current state
func NewAlreadyDecidedError(p *Payment) *AlreadyDecidedError {
	e := &AlreadyDecidedError{PaymentID: p.ID, Status: p.Status}
	if by := p.DecidedBy(); by != nil {
		e.DecidedBy = *by
	}
	if at := p.DecidedAt(); at != nil {
		e.DecidedAt = *at
	}
	return e
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("Payment already %s by %s at %s",
		e.Status, e.DecidedBy, e.DecidedAt.UTC().Format(time.RFC3339))
}

// Unwrap exposes the ALREADY_DECIDED domain error
func (e *AlreadyDecidedError) Unwrap() error {
	return shared.NewDomainError(shared.CodeAlreadyDecided, e.Error())
}
