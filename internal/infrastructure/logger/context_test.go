package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_Missing(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	log.Info("dropped")
}

func TestContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := context.Background()
	ctx, log := WithRequestID(ctx, base, "req-1")
	ctx, log = WithBranchID(ctx, log, "branch-7")
	ctx, _ = WithUserID(ctx, log, "user-3")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "branch-7", GetBranchID(ctx))
	assert.Equal(t, "user-3", GetUserID(ctx))

	L(ctx).Info("payment submitted")

	entries := recorded.FilterMessage("payment submitted").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "branch-7", fields["branch_id"])
	assert.Equal(t, "user-3", fields["user_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetBranchID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestL_AddsTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))

	ctx, span := tp.Tracer("test").Start(ctx, "decide")
	L(ctx).Info("deciding")
	span.End()

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}
