package corvid

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/corvid-http/corvid/internal/cliconfig"
	"github.com/corvid-http/corvid/pkg/di"
	"github.com/corvid-http/corvid/pkg/endpoint"
	"github.com/corvid-http/corvid/pkg/plugin"
	"github.com/corvid-http/corvid/pkg/problem"
	"github.com/corvid-http/corvid/pkg/router"
	"github.com/corvid-http/corvid/pkg/signature"
	"go.uber.org/zap"
)

// App is the application-facing surface applications build against: it
// owns the dependency graph, the router, the problem mapper, and the
// global plugin chain, and turns handler functions into registered
// routes by running them through pkg/signature and pkg/endpoint at
// registration time. Grounded on the teacher's internal/web/server.Server/
// Config pair, generalized from a bare http.Handler wrapper into the
// full setup-time compilation pipeline spec.md §3 describes ("once per
// endpoint signature, at route registration").
type App struct {
	Graph    *di.Graph
	Router   *router.Router
	Mapper   *problem.Mapper
	Logger   *zap.Logger
	analyzer *signature.Analyzer

	plugins []plugin.Plugin

	cfg cliconfig.ServerConfig

	httpServer *http.Server
	listener   net.Listener
}

// New creates an App from a loaded configuration. logger is nil-able; a
// no-op logger is used if omitted.
func New(cfg *cliconfig.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	graph := di.New(cfg.DI.WorkerPoolSize)
	mapper := problem.NewMapper(cfg.Problem.Verbose)
	rtr := router.New(cfg.Server.APIPrefix, mapper)

	return &App{
		Graph:    graph,
		Router:   rtr,
		Mapper:   mapper,
		Logger:   logger,
		analyzer: signature.NewAnalyzer(graph),
		cfg:      cfg.Server,
	}
}

// Provide registers a dependency constructor on the application's graph.
// See di.Graph.Provide for the accepted constructor shapes.
func (a *App) Provide(ctor any, opts ...di.Option) error {
	return a.Graph.Provide(ctor, opts...)
}

// Use appends p to the plugin chain wrapped around every endpoint
// subsequently registered. Order is significant: plugins run in the
// order they were added, outermost first, per pkg/plugin.Chain.
func (a *App) Use(p plugin.Plugin) {
	a.plugins = append(a.plugins, p)
}

// RegisterPlugin names a plugin provider so a Plugin[T]-tagged request
// field with a matching `corvid:"provider=name"` tag resolves against it
// (role-resolution rule 5). p is added to the global chain exactly as
// Use would; a named registration only additionally makes it a valid
// target for the explicit marker.
func (a *App) RegisterPlugin(name string, p plugin.Plugin) {
	a.analyzer.Plugins[name] = true
	a.Use(p)
}

// Get registers a GET route. handler must have the shape
// func(context.Context, Req) (Resp, error).
func (a *App) Get(path string, handler any) error { return a.register(http.MethodGet, path, handler) }

// Post registers a POST route.
func (a *App) Post(path string, handler any) error {
	return a.register(http.MethodPost, path, handler)
}

// Put registers a PUT route.
func (a *App) Put(path string, handler any) error { return a.register(http.MethodPut, path, handler) }

// Patch registers a PATCH route.
func (a *App) Patch(path string, handler any) error {
	return a.register(http.MethodPatch, path, handler)
}

// Delete registers a DELETE route.
func (a *App) Delete(path string, handler any) error {
	return a.register(http.MethodDelete, path, handler)
}

// WebSocket registers a WebSocket handshake route, per spec.md §5's
// synthetic "UPGRADE" method.
func (a *App) WebSocket(path string, handler any) error {
	return a.register("UPGRADE", path, handler)
}

func (a *App) register(method, path string, handler any) error {
	sig, err := a.analyzer.Analyze(path, method, handler)
	if err != nil {
		return fmt.Errorf("corvid: registering %s %s: %w", method, path, err)
	}
	ep, err := endpoint.NewEndpoint(sig, a.Graph, a.plugins, a.Mapper, a.Logger)
	if err != nil {
		return fmt.Errorf("corvid: compiling %s %s: %w", method, path, err)
	}
	a.Router.Handle(method, path, ep.Handler())
	return nil
}

// UseHTTP registers a chi-level middleware ahead of route matching (panic
// recovery, request-id, access logs). This is distinct from App.Use's
// plugin chain, which runs per-endpoint after routing and binding.
func (a *App) UseHTTP(mw func(http.Handler) http.Handler) {
	a.Router.Use(mw)
}

// Boot freezes the dependency graph and constructs every Singleton node.
// It must run once before Serve; splitting it out lets a caller show
// progress (a spinner, a log line) around the one step that can be slow
// and can fail before any socket is opened.
func (a *App) Boot(ctx context.Context) error {
	a.Graph.Freeze()
	if err := a.Graph.StartSingletons(ctx, a.Logger); err != nil {
		return fmt.Errorf("corvid: starting singletons: %w", err)
	}
	return nil
}

// Start calls Boot, then Serve. Grounded on the teacher's Server.Start/
// ListenAndServe split, folded into one call since corvid has no
// TLS/HTTP2 configuration surface distinct from its plain address.
func (a *App) Start(ctx context.Context) error {
	if err := a.Boot(ctx); err != nil {
		return err
	}
	return a.Serve()
}

// Serve blocks accepting HTTP connections until the listener closes or
// Shutdown is called. Callers that want to observe or report on Boot
// separately (a CLI startup spinner, a readiness probe) should call Boot
// then Serve directly instead of Start.
func (a *App) Serve() error {
	addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("corvid: failed to listen on %s: %w", addr, err)
	}
	a.listener = listener

	a.Logger.Info("starting server", zap.String("addr", a.Addr()))
	err = a.httpServer.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests (bounded by the configured
// shutdown timeout), then releases every started singleton resource in
// reverse construction order.
func (a *App) Shutdown(ctx context.Context) error {
	if a.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.ShutdownTimeout)*time.Second)
		defer cancel()
	}

	var shutdownErr error
	if a.httpServer != nil {
		shutdownErr = a.httpServer.Shutdown(ctx)
	}

	if errs := a.Graph.Shutdown(); len(errs) > 0 {
		for _, err := range errs {
			a.Logger.Error("resource release failed", zap.Error(err))
		}
		if shutdownErr == nil {
			shutdownErr = errs[0]
		}
	}
	return shutdownErr
}

// Addr returns the server's bound network address, valid once Start has
// begun listening.
func (a *App) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
}
