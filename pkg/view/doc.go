// Package view runs render cycles for one template.
//
// A View builds its template once. Render binds the template against a
// data context and mounts the result on a live tree. Update merges new
// data, binds again, diffs the result against the previous resolved tree
// and applies the patches:
//
//	v, err := view.New(`<ul><@foreach target="items" key="i" value="v"><li key="{{v}}">{{v}}</li></@foreach></ul>`,
//	    view.WithLiveTree(tree),
//	)
//	if err := v.Render(ctx, bind.Data{"items": []string{"a", "b"}}); err != nil { ... }
//	patches, err := v.Update(ctx, bind.Data{"items": []string{"b", "a"}})
//
// Only one cycle runs at a time. A View is not safe for concurrent use;
// callers that share one across goroutines serialize access themselves.
package view
