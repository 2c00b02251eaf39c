package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/helpdesk/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs a recording global tracer provider for one test
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	tenantID, ticketID := uuid.New(), uuid.New()

	ctx, span := telemetry.StartServiceSpan(context.Background(), "ticket", "assign",
		telemetry.ID(telemetry.AttrTenantID, tenantID),
		telemetry.ID(telemetry.AttrTicketID, ticketID),
	)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	span.SetAttributes(telemetry.AttrStatus.String("ASSIGNED"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "ticket.assign", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
	attrs := attrMap(ended[0])
	assert.Equal(t, tenantID.String(), attrs[telemetry.AttrTenantID].AsString())
	assert.Equal(t, ticketID.String(), attrs[telemetry.AttrTicketID].AsString())
	assert.Equal(t, "ASSIGNED", attrs[telemetry.AttrStatus].AsString())
}

func TestStartServiceSpan_ChildOfRequestSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := otel.Tracer("http").Start(context.Background(), "POST /tickets/:id/assign")
	_, child := telemetry.StartServiceSpan(ctx, "ticket", "assign")
	child.End()
	parent.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestRecordErrorAndStatus(t *testing.T) {
	sr := setupTestTracer(t)

	_, failed := telemetry.StartServiceSpan(context.Background(), "ticket", "close")
	telemetry.RecordError(failed, errors.New("rating out of range"))
	telemetry.RecordError(failed, nil)
	failed.End()

	_, ok := telemetry.StartServiceSpan(context.Background(), "ticket", "confirm")
	telemetry.SetOK(ok)
	ok.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "rating out of range", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)

	assert.Equal(t, codes.Ok, ended[1].Status().Code)
	assert.Empty(t, ended[1].Events())
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
	})
}
