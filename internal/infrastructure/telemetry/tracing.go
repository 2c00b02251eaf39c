package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer application services start spans on
const TracerName = "helpdesk-backend"

// Attributes application services put on their spans
const (
	AttrTenantID   attribute.Key = "helpdesk.tenant_id"
	AttrTicketID   attribute.Key = "helpdesk.ticket_id"
	AttrAssigneeID attribute.Key = "helpdesk.assignee_id"
	AttrStatus     attribute.Key = "helpdesk.ticket_status"
	AttrAssetID    attribute.Key = "helpdesk.asset_id"
	AttrChannel    attribute.Key = "helpdesk.otp_channel"
)

// ID renders a uuid attribute
func ID(key attribute.Key, id uuid.UUID) attribute.KeyValue {
	return key.String(id.String())
}

// StartServiceSpan starts an internal span named {service}.{method}, e.g.
// "ticket.assign". The caller ends it.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on the span and marks it failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span as successful
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}
