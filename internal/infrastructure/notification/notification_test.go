package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// decidedVoucher returns a 1450 voucher with one 400 payment decided as given
func decidedVoucher(t *testing.T, decision fee.Decision, remarks string) (*fee.FeeVoucher, uuid.UUID) {
	t.Helper()
	v, err := fee.NewFeeVoucher(fee.IssueVoucherInput{
		VoucherNumber: "FV-202410-000007",
		StudentID:     uuid.New(),
		StudentName:   "Sara Malik",
		BranchID:      uuid.New(),
		Month:         10,
		Year:          2024,
		Amount:        decimal.NewFromInt(1450),
		DueDate:       time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	payer := uuid.New()
	p, err := v.SubmitPayment(fee.SubmitPaymentInput{
		PayerID:  payer,
		Amount:   decimal.NewFromInt(400),
		Method:   fee.PaymentMethodBankTransfer,
		Evidence: fee.Evidence{URL: "https://cdn.example.com/p.png"},
	})
	require.NoError(t, err)
	v.ClearDomainEvents()

	_, err = v.DecidePayment(p.ID, decision, uuid.New(), remarks)
	require.NoError(t, err)
	return v, payer
}

func TestComposer_Amount(t *testing.T) {
	assert.Equal(t, "1,450.00", NewComposer("en-US").Amount(decimal.RequireFromString("1450")))
	assert.Equal(t, "1.450,50", NewComposer("de").Amount(decimal.RequireFromString("1450.5")))
	assert.Equal(t, "12.35", NewComposer("not a locale").Amount(decimal.RequireFromString("12.345")))
}

func TestComposer_Compose(t *testing.T) {
	c := NewComposer("en")

	t.Run("approved payment goes to its payer", func(t *testing.T) {
		v, payer := decidedVoucher(t, fee.DecisionApprove, "")
		event := v.GetDomainEvents()[0]

		n, ok := c.Compose(event)
		require.True(t, ok)
		assert.Equal(t, fee.EventTypePaymentApproved, n.EventType)
		assert.Equal(t, v.ID, n.VoucherID)
		assert.Equal(t, v.BranchID, n.BranchID)
		require.NotNil(t, n.Recipient)
		assert.Equal(t, payer, *n.Recipient)
		assert.Equal(t, "Payment Approved", n.Title)
		assert.Equal(t, "Your payment of 400.00 for voucher FV-202410-000007 was approved. Remaining balance: 1,050.00.", n.Body)
	})

	t.Run("rejection carries the reason", func(t *testing.T) {
		v, _ := decidedVoucher(t, fee.DecisionReject, "blurry screenshot")

		n, ok := c.Compose(v.GetDomainEvents()[0])
		require.True(t, ok)
		assert.Equal(t, "Payment Rejected", n.Title)
		assert.Contains(t, n.Body, "Reason: blurry screenshot")
	})

	t.Run("overdue is addressed to staff", func(t *testing.T) {
		v, _ := decidedVoucher(t, fee.DecisionReject, "")
		n, ok := c.Compose(fee.NewVoucherOverdueEvent(v, time.Now()))
		require.True(t, ok)
		assert.Nil(t, n.Recipient)
		assert.Contains(t, n.Body, "was due on 2024-10-10")
	})

	t.Run("issued vouchers are not announced", func(t *testing.T) {
		v, _ := decidedVoucher(t, fee.DecisionReject, "")
		_, ok := c.Compose(fee.NewVoucherIssuedEvent(v))
		assert.False(t, ok)
	})
}

// MockRedisPublisher is a mock of the Redis publish call
type MockRedisPublisher struct {
	mock.Mock
}

func (m *MockRedisPublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	args := m.Called(ctx, channel, message)
	cmd := redis.NewIntCmd(ctx)
	if err := args.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisNotifier_Notify(t *testing.T) {
	client := new(MockRedisPublisher)
	notifier := NewRedisNotifier(client, "")
	branchID := uuid.New()
	n := Notification{EventID: uuid.New(), EventType: fee.EventTypeVoucherPaid, BranchID: branchID, Title: "Voucher paid"}

	var payload []byte
	client.On("Publish", mock.Anything, "feeledger:notifications:"+branchID.String(), mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(2).([]byte) }).
		Return(nil).Once()

	require.NoError(t, notifier.Notify(context.Background(), n))
	client.AssertExpectations(t)

	var decoded Notification
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, n.EventID, decoded.EventID)
	assert.Equal(t, "Voucher paid", decoded.Title)
}

func TestRedisNotifier_PublishError(t *testing.T) {
	client := new(MockRedisPublisher)
	client.On("Publish", mock.Anything, "fees:"+uuid.Nil.String(), mock.Anything).Return(errors.New("connection reset"))

	err := NewRedisNotifier(client, "fees").Notify(context.Background(), Notification{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, Notification) error {
	return errors.New("channel down")
}

func TestHandler_Handle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewHandler(NewComposer("en"), failingNotifier{}, NewLogNotifier(zap.New(core)))
	v, _ := decidedVoucher(t, fee.DecisionApprove, "")

	err := h.Handle(context.Background(), v.GetDomainEvents()[0])
	require.Error(t, err, "the failing channel is reported")

	entries := logs.FilterMessage("Notification").All()
	require.Len(t, entries, 1, "the log channel still delivers")
	assert.Equal(t, "FV-202410-000007", entries[0].ContextMap()["voucher_number"])

	assert.Contains(t, h.EventTypes(), fee.EventTypePaymentRejected)
	assert.NotContains(t, h.EventTypes(), fee.EventTypeVoucherIssued)
}

func TestHandler_IgnoresUnrenderedEvents(t *testing.T) {
	h := NewHandler(NewComposer("en"), failingNotifier{})
	event := &shared.BaseDomainEvent{Type: "Unknown"}

	assert.NoError(t, h.Handle(context.Background(), event))
}
