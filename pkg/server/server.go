package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	vterrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/bind"
	"github.com/vango-dev/vtree/pkg/markup"
	"github.com/vango-dev/vtree/pkg/render"
	"github.com/vango-dev/vtree/pkg/telemetry"
	"github.com/vango-dev/vtree/pkg/vdom"
	"github.com/vango-dev/vtree/pkg/view"
)

// maxDataBody bounds POST /data bodies.
const maxDataBody = 1 << 20

// Server serves one template to many websocket clients.
type Server struct {
	config   Config
	template *vdom.Tree
	handlers []string
	renderer *render.Renderer
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader
	router   chi.Router
	logger   *slog.Logger

	mu       sync.Mutex
	data     bind.Data
	sessions map[*session]struct{}
}

// New builds the template and prepares the routes.
func New(config Config) (*Server, error) {
	config.applyDefaults()

	tree, err := markup.Build(config.Template, config.BuildOptions)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		template: tree,
		handlers: bind.HandlerNames(tree),
		renderer: render.NewRenderer(config.RenderOptions),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:   config.Logger.With("component", "server"),
		data:     bind.Merge(nil, config.Data),
		sessions: make(map[*session]struct{}),
	}
	if config.Registry != nil {
		s.metrics = telemetry.NewMetrics(
			telemetry.WithRegistry(config.Registry),
			telemetry.WithNamespace(config.MetricsNamespace),
		)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get(s.config.WSPath, s.HandleWebSocket)
	r.Post("/data", s.handleData)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.config.Registry != nil {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the number of connected clients.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Data returns a copy of the current data context.
func (s *Server) Data() bind.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bind.Merge(nil, s.data)
}

func (s *Server) newView(opts ...view.Option) *view.View {
	opts = append(opts,
		view.WithLogger(s.logger),
		view.WithMetrics(s.metrics),
		view.WithTracer(s.config.Tracer),
	)
	return view.NewFromTree(s.template, opts...)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	noop := func(vdom.Event) {}
	handlers := make(map[string]vdom.Handler, len(s.handlers))
	for _, name := range s.handlers {
		handlers[name] = noop
	}
	v := s.newView(view.WithHandlers(handlers))
	if err := v.Render(r.Context(), s.Data()); err != nil {
		s.logger.Warn("page render failed", "error", err)
		http.Error(w, vterrors.FromError(err, "E301").FormatCompact(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderToWriter(w, v.Resolved()); err != nil {
		s.logger.Warn("page write failed", "error", err)
	}
}

// Update merges data into the shared context and updates every session.
func (s *Server) Update(ctx context.Context, data bind.Data) {
	s.mu.Lock()
	s.data = bind.Merge(s.data, data)
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.update(ctx, data); err != nil {
			sess.logger.Warn("update failed", "error", err)
		}
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	var data bind.Data
	body := http.MaxBytesReader(w, r.Body, maxDataBody)
	if err := json.NewDecoder(body).Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		http.Error(w, fmt.Sprintf("invalid data: %v", err), http.StatusBadRequest)
		return
	}
	s.Update(r.Context(), data)
	w.WriteHeader(http.StatusNoContent)
}


func (s *Server) remove(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// HandleWebSocket upgrades the request and runs a session until the
// client disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	sess := s.newSession(ws, middleware.GetReqID(r.Context()))
	defer sess.close()

	// Rendering under s.mu orders the first frame before any /data update
	// reaches this session.
	s.mu.Lock()
	err = sess.mount(r.Context(), s.data)
	if err == nil {
		s.sessions[sess] = struct{}{}
	}
	s.mu.Unlock()
	if err != nil {
		sess.logger.Warn("mount failed", "error", err)
		_ = sess.conn.SendError(vterrors.CodeOf(err), err.Error(), true)
		return
	}
	defer s.remove(sess)

	sess.logger.Info("session started")
	if err := sess.run(r.Context()); err != nil {
		sess.logger.Debug("session ended", "error", err)
		return
	}
	sess.logger.Info("session ended")
}

// Run listens on Config.Address until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
