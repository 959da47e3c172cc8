package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/bind"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/vdom"
	"github.com/vango-dev/vtree/pkg/view"
)

func renderCmd(g *globals) *cobra.Command {
	var (
		dataFile string
		output   string
		pretty   bool
		minify   bool
	)

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template against a data file",
		Long: `Render a template to HTML.

The template is a file path or a name in the configured template
source (templates.dir or the S3 bucket). Event handlers referenced by
the template are accepted and ignored.

Examples:
  vtree render list.html --data items.yaml
  vtree render views/page.html -d data.json --pretty
  vtree render list.html -d items.json --minify -o list.out.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.project(cmd)
			if err != nil {
				return err
			}
			opts := p.cfg.RenderOptions()
			if cmd.Flags().Changed("pretty") {
				opts.Pretty = pretty
			}
			if cmd.Flags().Changed("minify") {
				opts.Minify = minify
			}

			v, err := p.view(cmd, args[0], nil)
			if err != nil {
				return err
			}
			data, err := loadData(dataFile)
			if err != nil {
				return err
			}
			if err := v.Render(cmd.Context(), data); err != nil {
				return err
			}

			html, err := render.NewRenderer(opts).RenderToString(v.Resolved())
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			}
			if err := os.WriteFile(output, []byte(html+"\n"), 0644); err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "JSON or YAML data file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write HTML to a file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output (default from vtree.json)")
	cmd.Flags().BoolVar(&minify, "minify", false, "Minify the output (default from vtree.json)")

	return cmd
}

// view builds the named template into a View whose handlers are no-ops.
func (p *project) view(cmd *cobra.Command, name string, tree live.LiveTree) (*view.View, error) {
	text, err := p.template(cmd.Context(), name)
	if err != nil {
		return nil, err
	}
	built, err := markup.Build(text, p.cfg.BuildOptions(name))
	if err != nil {
		return nil, err
	}

	noop := func(vdom.Event) {}
	handlers := make(map[string]vdom.Handler)
	for _, h := range bind.HandlerNames(built) {
		handlers[h] = noop
	}
	opts := []view.Option{
		view.WithHandlers(handlers),
		view.WithLogger(p.logger),
		view.WithInvariantChecks(p.cfg.Templates.CheckInvariants),
	}
	if tree != nil {
		opts = append(opts, view.WithLiveTree(tree))
	}
	return view.NewFromTree(built, opts...), nil
}
