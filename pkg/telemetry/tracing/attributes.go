package tracing

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// Custom attribute keys use the "fundwatch.*" and "gate.*" namespaces:
//   - gate.key: cache key of the request
//   - gate.source: where the response came from (cache, live, static)
//   - fundwatch.limiter.*: admission decision details
//   - fundwatch.cache.*: cache lookups

// Common attribute keys used throughout the system
const (
	// Gate attributes
	AttrGateKey     = "gate.key"
	AttrGateSource  = "gate.source"
	AttrGateLevel   = "gate.service_level"
	AttrGateOutcome = "gate.outcome"

	// Request attributes
	AttrRequestID = "fundwatch.request_id"
	AttrClient    = "fundwatch.client"

	// Limiter attributes
	AttrLimiterAllowed    = "fundwatch.limiter.allowed"
	AttrLimiterTier       = "fundwatch.limiter.tier"
	AttrLimiterScope      = "fundwatch.limiter.scope"
	AttrLimiterRetryAfter = "fundwatch.limiter.retry_after_ms"

	// Cache attributes
	AttrCacheHit  = "fundwatch.cache.hit"
	AttrCacheName = "fundwatch.cache.name"

	// Error attributes
	AttrErrorType    = "fundwatch.error.type"
	AttrErrorMessage = "error.message"

	// Performance attributes
	AttrDuration = "fundwatch.duration_ms"
)

// SetGateAttributes records how the gate answered a request.
//
// Example:
//
//	SetGateAttributes(span, "top:VOO:10", "static")
func SetGateAttributes(span trace.Span, key, source string) {
	span.SetAttributes(attribute.String(AttrGateKey, key))
	if source != "" {
		span.SetAttributes(attribute.String(AttrGateSource, source))
	}
}

// SetRequestAttributes sets request-related attributes on a span.
func SetRequestAttributes(span trace.Span, requestID, client string) {
	if requestID != "" {
		span.SetAttributes(attribute.String(AttrRequestID, requestID))
	}
	if client != "" {
		span.SetAttributes(attribute.String(AttrClient, client))
	}
}

// SetLimiterAttributes records an admission decision.
//
// Example:
//
//	SetLimiterAttributes(span, "client", false, "minute", 50*time.Second)
func SetLimiterAttributes(span trace.Span, scope string, allowed bool, tier string, retryAfter time.Duration) {
	span.SetAttributes(
		attribute.String(AttrLimiterScope, scope),
		attribute.Bool(AttrLimiterAllowed, allowed),
	)
	if !allowed {
		span.SetAttributes(
			attribute.String(AttrLimiterTier, tier),
			attribute.Int64(AttrLimiterRetryAfter, retryAfter.Milliseconds()),
		)
	}
}

// SetCacheAttributes sets cache-related attributes on a span.
//
// Example:
//
//	SetCacheAttributes(span, true, "responses")
func SetCacheAttributes(span trace.Span, hit bool, cacheName string) {
	span.SetAttributes(
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheName, cacheName),
	)
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "compute_failed")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span in milliseconds.
func SetDurationAttribute(span trace.Span, d time.Duration) {
	span.SetAttributes(attribute.Int64(AttrDuration, d.Milliseconds()))
}

// AddEvent adds a named event to the span with optional attributes.
//
// Example:
//
//	AddEvent(span, "static_fallback",
//	    attribute.String("gate.key", "top10"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithGate adds the gate key and, when known, the response source.
func (ab *AttributeBuilder) WithGate(key, source string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrGateKey, key))
	if source != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrGateSource, source))
	}
	return ab
}

// WithRequest adds request-related attributes.
func (ab *AttributeBuilder) WithRequest(requestID, client string) *AttributeBuilder {
	if requestID != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrRequestID, requestID))
	}
	if client != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrClient, client))
	}
	return ab
}

// WithCache adds cache attributes.
func (ab *AttributeBuilder) WithCache(hit bool, cacheName string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Bool(AttrCacheHit, hit),
		attribute.String(AttrCacheName, cacheName),
	)
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
