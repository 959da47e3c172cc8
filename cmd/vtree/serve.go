package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/server"
	"github.com/vango-dev/vtree/pkg/telemetry"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		dataFile string
		port     int
		host     string
	)

	cmd := &cobra.Command{
		Use:   "serve <template>",
		Short: "Serve a template as a live view",
		Long: `Serve a template over HTTP and websockets.

Each websocket client on server.path receives the rendered tree as
binary live-tree operations and gets incremental operations after
every update. POST a JSON object to /data to merge it into the data
context of every client. Client events run the handler named in the
template, which records the event under "event" and counts events
under "events".

Examples:
  vtree serve list.html --data items.yaml
  vtree serve list.html --port=8080 --host=0.0.0.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.project(cmd)
			if err != nil {
				return err
			}
			if port > 0 {
				p.cfg.Server.Port = port
			}
			if host != "" {
				p.cfg.Server.Host = host
			}

			text, err := p.template(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := loadData(dataFile)
			if err != nil {
				return err
			}

			conf := server.Config{
				Template:       text,
				Data:           data,
				BuildOptions:   p.cfg.BuildOptions(args[0]),
				RenderOptions:  p.cfg.RenderOptions(),
				Address:        p.cfg.Address(),
				WSPath:         p.cfg.Server.Path,
				WriteTimeout:   p.cfg.WriteTimeout(),
				MaxMessageSize: p.cfg.Server.MaxMessageSize,
				Tracer:         telemetry.NewTracer(),
				Logger:         p.logger,
			}
			if p.cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				conf.Registry = reg
				conf.MetricsPath = p.cfg.Metrics.Path
				conf.MetricsNamespace = p.cfg.Metrics.Namespace
			}

			srv, err := server.New(conf)
			if err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "Serving %s on http://%s (live: %s)", args[0], conf.Address, conf.WSPath)
			if err := srv.Run(cmd.Context()); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "Initial JSON or YAML data file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from vtree.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vtree.json)")

	return cmd
}
