package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vtree/pkg/bind"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/telemetry"
)

// Config configures a Server.
type Config struct {
	// Template is the template source text.
	Template string

	// Data is the initial data context.
	Data bind.Data

	// BuildOptions are used to build Template.
	BuildOptions markup.Options

	// RenderOptions control the HTML served at "/".
	RenderOptions render.Options

	// Address is the listen address for Run (default ":3000").
	Address string

	// WSPath is the websocket endpoint (default "/live").
	WSPath string

	// MetricsPath serves Registry when it is set (default "/metrics").
	MetricsPath string

	// Registry receives the render-cycle metrics. Metrics are disabled
	// when nil.
	Registry *prometheus.Registry

	// MetricsNamespace prefixes metric names (default "vtree").
	MetricsNamespace string

	// Tracer traces render cycles. May be nil.
	Tracer *telemetry.Tracer

	// WriteTimeout bounds each websocket write (default 10s).
	WriteTimeout time.Duration

	// MaxMessageSize bounds inbound websocket messages (default 64KB).
	MaxMessageSize int64

	// ShutdownTimeout bounds graceful shutdown in Run (default 10s).
	ShutdownTimeout time.Duration

	// CheckOrigin validates websocket origins (default SameOriginCheck).
	CheckOrigin func(r *http.Request) bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = ":3000"
	}
	if c.WSPath == "" {
		c.WSPath = "/live"
	}
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = "vtree"
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = SameOriginCheck
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
