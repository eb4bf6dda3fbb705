package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := newTestHandler()
	wildcard := newTestHandler()

	registry.Register(specific, "PaymentApproved", "PaymentRejected")
	registry.Register(specific, "PaymentApproved")
	registry.Register(wildcard)

	assert.Equal(t, []*testHandler{specific, wildcard}, asTestHandlers(registry.GetHandlers("PaymentApproved")))
	assert.Equal(t, []*testHandler{wildcard}, asTestHandlers(registry.GetHandlers("VoucherIssued")))
	assert.Equal(t, 2, registry.Count())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	a := newTestHandler()
	b := newTestHandler()
	registry.Register(a, "PaymentApproved")
	registry.Register(b, "PaymentApproved")
	registry.Register(a)

	registry.Unregister(a)

	assert.Equal(t, []*testHandler{b}, asTestHandlers(registry.GetHandlers("PaymentApproved")))
	assert.Equal(t, 1, registry.Count())

	registry.Unregister(b)
	assert.Empty(t, registry.GetHandlers("PaymentApproved"))
	assert.Zero(t, registry.Count())
}

func asTestHandlers[T any](in []T) []*testHandler {
	out := make([]*testHandler, 0, len(in))
	for _, h := range in {
		out = append(out, any(h).(*testHandler))
	}
	return out
}
