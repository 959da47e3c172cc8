package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	vterrors "github.com/vango-dev/vtree/internal/errors"
)

const defaultTracerName = "vtree"

// Tracer starts one span per cycle phase. A nil *Tracer starts no spans.
type Tracer struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(t *Tracer) {
		t.tracer = tp.Tracer(defaultTracerName)
	}
}

// WithAttributes adds attributes to every span, e.g. the template name.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(t *Tracer) {
		t.attrs = append(t.attrs, attrs...)
	}
}

// NewTracer creates a Tracer. The tracer comes from the global
// OpenTelemetry provider unless WithTracerProvider is given.
func NewTracer(opts ...TracerOption) *Tracer {
	t := &Tracer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(defaultTracerName)
	}
	return t
}

// Span is an in-flight phase span.
type Span struct {
	span  trace.Span
	phase Phase
}

// Start begins the span for phase, named "vtree.<phase>".
func (t *Tracer) Start(ctx context.Context, phase Phase) (context.Context, *Span) {
	if t == nil {
		return ctx, nil
	}
	ctx, span := t.tracer.Start(ctx, "vtree."+string(phase),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.attrs...),
	)
	return ctx, &Span{span: span, phase: phase}
}

// End records the number of items the phase produced (nodes resolved or
// patches emitted/applied) and its error, then ends the span.
func (s *Span) End(count int, err error) {
	if s == nil {
		return
	}
	key := "vtree.patches"
	if s.phase == PhaseBind {
		key = "vtree.nodes"
	}
	s.span.SetAttributes(attribute.Int(key, count))
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		if code := vterrors.CodeOf(err); code != "" {
			s.span.SetAttributes(attribute.String("vtree.error_code", code))
		}
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
