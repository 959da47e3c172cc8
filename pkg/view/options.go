package view

import (
	"log/slog"

	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/telemetry"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *View) {
		v.logger = logger
	}
}

// WithHandlers adds event handlers referenced by {{:name}} bindings.
func WithHandlers(handlers map[string]vdom.Handler) Option {
	return func(v *View) {
		for name, h := range handlers {
			v.handlers[name] = h
		}
	}
}

// WithHandler adds one event handler.
func WithHandler(name string, h vdom.Handler) Option {
	return func(v *View) {
		v.handlers[name] = h
	}
}

// WithLiveTree sets the live tree patches are applied to. Defaults to a
// new live.MemTree.
func WithLiveTree(tree live.LiveTree) Option {
	return func(v *View) {
		v.tree = tree
	}
}

// WithMetrics records cycles on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(v *View) {
		v.metrics = m
	}
}

// WithTracer traces cycle phases with t.
func WithTracer(t *telemetry.Tracer) Option {
	return func(v *View) {
		v.tracer = t
	}
}

// WithBuildOptions sets the template build options.
func WithBuildOptions(opts markup.Options) Option {
	return func(v *View) {
		v.buildOpts = opts
	}
}

// WithInvariantChecks validates every resolved tree and logs violations
// at warn level.
func WithInvariantChecks(enabled bool) Option {
	return func(v *View) {
		v.checkInvariants = enabled
	}
}
