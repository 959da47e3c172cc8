package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/stream"
)

func diffCmd(g *globals) *cobra.Command {
	var (
		fromFile string
		toFile   string
		ops      bool
		showHTML bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template>",
		Short: "Show the patches between two data contexts",
		Long: `Render a template with --from data, update it with --to data and
print the resulting patch list, one patch per line.

The --to data is merged over the --from data, the same way a live view
merges updates. With --ops the live-tree operations sent to streaming
clients are printed instead of patches.

Examples:
  vtree diff list.html --from before.yaml --to after.yaml
  vtree diff list.html --from a.json --to b.json --ops
  vtree diff list.html --from a.json --to b.json --html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.project(cmd)
			if err != nil {
				return err
			}
			from, err := loadData(fromFile)
			if err != nil {
				return err
			}
			to, err := loadData(toFile)
			if err != nil {
				return err
			}

			var st *stream.Tree
			var tree live.LiveTree = live.NewMemTree()
			if ops {
				st = stream.NewTree()
				tree = st
			}
			v, err := p.view(cmd, args[0], tree)
			if err != nil {
				return err
			}
			if err := v.Render(cmd.Context(), from); err != nil {
				return err
			}
			if st != nil {
				st.Take()
			}
			patches, err := v.Update(cmd.Context(), to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if st != nil {
				for _, op := range st.Take() {
					fmt.Fprintln(out, op)
				}
			} else {
				for _, patch := range patches {
					fmt.Fprintln(out, patch)
				}
			}
			if showHTML {
				fmt.Fprintln(out, v.HTML())
			}
			p.logger.Info("diff", "patches", len(patches))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "from", "", "Data for the first render (JSON or YAML)")
	cmd.Flags().StringVar(&toFile, "to", "", "Data merged in for the second render (JSON or YAML)")
	cmd.Flags().BoolVar(&ops, "ops", false, "Print streamed live-tree operations instead of patches")
	cmd.Flags().BoolVar(&showHTML, "html", false, "Print the updated HTML after the patches")

	return cmd
}
