// Package telemetry records render cycles as Prometheus metrics and
// OpenTelemetry spans.
//
// A cycle has three phases: bind, diff and patch. Metrics and Tracer are
// both safe to use as nil pointers, in which case they record nothing, so
// callers never need to check whether observability is configured.
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	tr := telemetry.NewTracer()
//
//	ctx, span := tr.Start(ctx, telemetry.PhaseDiff)
//	patches := vdom.Diff(prev, next)
//	span.End(len(patches), nil)
//	m.ObservePatches(patches)
package telemetry
