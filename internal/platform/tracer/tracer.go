// Package tracer provides a small tracing abstraction over OpenTelemetry.
//
// Services depend on the Tracer interface so that tests can run with the
// no-op implementation and production wires the OTel adapter.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
// Example:
//
//	ctx, span := t.Start(ctx, tracer.SpanReportGenerate,
//	    tracer.String(tracer.AttrStandard, "HIPAA"),
//	)
//	defer span.End(nil)
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanAuditRecord    = "audit.record"
	SpanAuditQuery     = "audit.query"
	SpanMonitorObserve = "monitor.observe"
	SpanIncidentFlag   = "incident.evaluate_flag"
	SpanReportGenerate = "report.generate"
	SpanReportSection  = "report.section"
)

// Attribute keys.
const (
	AttrEventID      = "event.id"
	AttrOutcome      = "event.outcome"
	AttrSensitivity  = "event.sensitivity"
	AttrFlagCount    = "monitor.flags"
	AttrFlagType     = "flag.type"
	AttrIncidentID   = "incident.id"
	AttrDeduplicated = "incident.deduplicated"
	AttrStandard     = "report.standard"
	AttrSection      = "report.section"
	AttrScore        = "report.score"
	AttrDegraded     = "report.degraded"
)

// Event names.
const (
	EventSectionUnavailable = "report.section_unavailable"
)
