package observability

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

func TestSeverityOf(t *testing.T) {
	assert.Equal(t, otellog.SeverityInfo, severityOf(zerolog.InfoLevel))
	assert.Equal(t, otellog.SeverityWarn, severityOf(zerolog.WarnLevel))
	assert.Equal(t, otellog.SeverityError, severityOf(zerolog.ErrorLevel))
	assert.Equal(t, otellog.SeverityUndefined, severityOf(zerolog.NoLevel))
}

func TestLoggerFromContext_AddsTraceIDs(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger := LoggerFromContext(ctx)
	assert.NotNil(t, logger)
	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/health", 200, 0)
		RecordCacheHit(ctx, nil, "k")
		RecordCacheMiss(ctx, nil, "k")
		RecordSlotsProjected(ctx, nil, "doc-1", 3)
		RecordBookingConflict(ctx, nil, "doc-1")
	})
}

func TestInitMetrics(t *testing.T) {
	metrics, err := InitMetrics()
	assert.NoError(t, err)
	assert.NotNil(t, metrics.SlotsProjected)
}
