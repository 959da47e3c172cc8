package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/bind"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/telemetry"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// View owns a built template, the current data context, the previous
// resolved tree and the applier for its live tree.
type View struct {
	template *vdom.Tree
	handlers map[string]vdom.Handler
	binder   *bind.Binder
	tree     live.LiveTree
	applier  *live.Applier

	data     bind.Data
	resolved []*vdom.Node
	rendered bool
	busy     bool

	buildOpts       markup.Options
	checkInvariants bool
	logger          *slog.Logger
	metrics         *telemetry.Metrics
	tracer          *telemetry.Tracer
}

// New builds template and returns a View ready to Render.
func New(template string, opts ...Option) (*View, error) {
	v := newView(opts)
	tree, err := markup.Build(template, v.buildOpts)
	if err != nil {
		return nil, err
	}
	v.init(tree)
	return v, nil
}

// NewFromTree returns a View over an already built template. Views never
// modify their template, so one tree may back many views.
func NewFromTree(template *vdom.Tree, opts ...Option) *View {
	v := newView(opts)
	v.init(template)
	return v
}

func newView(opts []Option) *View {
	v := &View{handlers: make(map[string]vdom.Handler)}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	v.logger = v.logger.With("component", "view")
	if v.tree == nil {
		v.tree = live.NewMemTree()
	}
	return v
}

func (v *View) init(template *vdom.Tree) {
	v.template = template
	v.binder = bind.New(v.handlers, v.logger)
	v.applier = live.NewApplier(v.tree)
}

// Tree returns the live tree.
func (v *View) Tree() live.LiveTree {
	return v.tree
}

// Data returns the current data context.
func (v *View) Data() bind.Data {
	return v.data
}

// Resolved returns the roots of the last resolved tree.
func (v *View) Resolved() []*vdom.Node {
	return v.resolved
}

// Query returns the last resolved tree for GetElementByID and friends.
func (v *View) Query() *vdom.Tree {
	return vdom.NewTree(v.resolved)
}

// HTML serializes the last resolved tree.
func (v *View) HTML() string {
	return render.String(v.resolved)
}

// Stale returns the error of the failed cycle that left the live tree
// partially updated, or nil. Render clears it.
func (v *View) Stale() error {
	return v.applier.Stale()
}

func (v *View) begin() error {
	if v.busy {
		return errors.New("E302")
	}
	v.busy = true
	return nil
}

func (v *View) end() {
	v.busy = false
}

// Render replaces the data context, binds the template and mounts the
// result, discarding whatever the live tree showed before. It is also the
// way to recover a live tree left stale by a failed Update.
func (v *View) Render(ctx context.Context, data bind.Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.begin(); err != nil {
		return err
	}
	defer v.end()

	start := time.Now()
	data = bind.Merge(nil, data)
	roots, err := v.bind(ctx, data)
	if err != nil {
		return err
	}

	phaseStart := time.Now()
	_, span := v.tracer.Start(ctx, telemetry.PhasePatch)
	err = v.applier.Mount(roots)
	span.End(0, err)
	v.metrics.ObservePhase(telemetry.PhasePatch, time.Since(phaseStart), err)
	if err != nil {
		v.logger.Warn("mount failed", "error", err)
		return err
	}

	v.data = data
	v.resolved = roots
	v.rendered = true
	v.logger.Debug("rendered",
		"nodes", v.applier.Len(),
		"duration", time.Since(start),
	)
	return nil
}

// Update merges data into the current context, re-binds and patches the
// live tree with the difference. It returns the applied patches.
func (v *View) Update(ctx context.Context, data bind.Data) ([]vdom.Patch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !v.rendered {
		return nil, errors.New("E303")
	}
	if err := v.begin(); err != nil {
		return nil, err
	}
	defer v.end()

	start := time.Now()
	merged := bind.Merge(v.data, data)
	next, err := v.bind(ctx, merged)
	if err != nil {
		return nil, err
	}

	phaseStart := time.Now()
	_, span := v.tracer.Start(ctx, telemetry.PhaseDiff)
	var matches []live.Match
	d := vdom.Differ{OnMatch: live.Record(&matches)}
	patches := d.Diff(v.resolved, next)
	span.End(len(patches), nil)
	v.metrics.ObservePhase(telemetry.PhaseDiff, time.Since(phaseStart), nil)

	phaseStart = time.Now()
	_, span = v.tracer.Start(ctx, telemetry.PhasePatch)
	err = v.applier.Apply(patches)
	span.End(len(patches), err)
	v.metrics.ObservePhase(telemetry.PhasePatch, time.Since(phaseStart), err)
	if err != nil {
		v.logger.Warn("patch failed, live tree is stale until the next Render",
			"error", err,
			"patches", len(patches),
		)
		return nil, err
	}
	v.applier.Adopt(matches)
	v.metrics.ObservePatches(patches)

	v.data = merged
	v.resolved = next
	v.logger.Debug("updated",
		"patches", len(patches),
		"duration", time.Since(start),
	)
	return patches, nil
}

func (v *View) bind(ctx context.Context, data bind.Data) ([]*vdom.Node, error) {
	start := time.Now()
	_, span := v.tracer.Start(ctx, telemetry.PhaseBind)
	roots, err := v.binder.Bind(v.template, data)
	nodes := 0
	if err == nil {
		nodes = len(vdom.Flatten(roots))
	}
	span.End(nodes, err)
	v.metrics.ObservePhase(telemetry.PhaseBind, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	v.metrics.ObserveTree(roots)

	if v.checkInvariants {
		if err := vdom.CheckInvariants(roots); err != nil {
			v.logger.Warn("resolved tree violates invariants", "error", err)
		}
	}
	return roots, nil
}

// Dispatch runs the handler bound to event on the resolved element with
// the given id. It reports whether a handler ran.
func (v *View) Dispatch(id, event string, payload any) bool {
	n := v.Query().GetElementByID(id)
	if n == nil {
		return false
	}
	h, ok := n.Events[event]
	if !ok || h == nil {
		return false
	}
	h(vdom.Event{Name: event, Target: n, Payload: payload})
	return true
}
