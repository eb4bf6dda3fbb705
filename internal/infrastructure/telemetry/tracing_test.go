package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// withRecorder installs a recording tracer provider for one test
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func attrValue(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartServiceSpan(t *testing.T) {
	recorder := withRecorder(t)

	voucherID := uuid.New()
	ctx, span := StartServiceSpan(context.Background(), "payment_approval", "decide",
		WithAttribute(SpanAttrVoucherID, voucherID),
	)
	SetAttributes(span,
		SpanAttrDecision, "approve",
		SpanAttrAttempt, 2,
		42, "ignored key",
		"dangling",
	)
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "payment_approval.decide", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())

	v, ok := attrValue(ended[0], SpanAttrVoucherID)
	require.True(t, ok)
	assert.Equal(t, voucherID.String(), v.AsString())

	v, ok = attrValue(ended[0], SpanAttrAttempt)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())

	assert.Len(t, ended[0].Attributes(), 3)
}

func TestRecordErrorAndSetOK(t *testing.T) {
	recorder := withRecorder(t)

	_, failed := StartSpan(context.Background(), "failed")
	RecordError(failed, errors.New("boom"))
	failed.End()

	_, ok := StartSpan(context.Background(), "ok")
	RecordError(ok, nil)
	SetOK(ok)
	AddEvent(ok, "retry", SpanAttrAttempt, 1)
	ok.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)

	assert.Equal(t, codes.Ok, ended[1].Status().Code)
	require.Len(t, ended[1].Events(), 1)
	assert.Equal(t, "retry", ended[1].Events()[0].Name)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.0).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(0.25).Description())
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, Config{ServiceName: "feeledger-test"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, "feeledger-test", tp.GetConfig().ServiceName)
	assert.NotNil(t, tp.Tracer("test"))

	require.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}
