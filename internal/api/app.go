package api

import (
	"context"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timada-org/doorphone/internal/core"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/internal/logger"
	"github.com/timada-org/doorphone/internal/notify"
	"github.com/timada-org/doorphone/internal/recording"
	"github.com/timada-org/doorphone/internal/sse"
	"go.uber.org/zap"
)

type Options struct {
	Config     *core.Config
	Registry   *door.Registry
	Recordings *recording.Store
	Notifier   core.Notifier
	// Mirror is optional. When set it is attached to the bus and closed with
	// the app.
	Mirror *notify.Mirror
	Clock  clock.Clock
	Logger *zap.Logger
}

type App struct {
	config     *core.Config
	logger     *zap.Logger
	clock      clock.Clock
	bus        *core.EventBus
	registry   *door.Registry
	dispatcher *core.Dispatcher
	server     *sse.Server
	recordings *recording.Store
	mirror     *notify.Mirror
	router     *httprouter.Router
	httpServer *http.Server
}

func New(options Options) *App {
	log := logger.OrNop(options.Logger)

	clk := options.Clock
	if clk == nil {
		clk = clock.New()
	}

	bus := core.NewEventBus(&core.EventBusOptions{Logger: log})

	app := &App{
		config:   options.Config,
		logger:   log,
		clock:    clk,
		bus:      bus,
		registry: options.Registry,
		dispatcher: core.NewDispatcher(core.DispatcherOptions{
			Bus:           bus,
			Registry:      options.Registry,
			Notifier:      options.Notifier,
			Clock:         clk,
			Logger:        log,
			NotifyTimeout: options.Config.WebhookTimeout(),
		}),
		server:     sse.New(&sse.ServerOptions{WriteTimeout: 10 * time.Second, Logger: log}),
		recordings: options.Recordings,
		mirror:     options.Mirror,
	}

	if app.mirror != nil {
		app.mirror.Attach(bus)
	}

	app.router = app.routes()
	app.httpServer = &http.Server{
		Addr:              app.config.Addr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app
}

func (app *App) routes() *httprouter.Router {
	router := httprouter.New()

	router.GET("/api/doors", app.listDoors())
	router.POST("/api/doors", app.createDoor())
	router.GET("/api/doors/:id", app.getDoor())
	router.PATCH("/api/doors/:id", app.updateDoor())
	router.DELETE("/api/doors/:id", app.deleteDoor())

	router.GET("/api/doors/:id/events", app.events())
	router.POST("/api/doors/:id/press", app.press())
	router.POST("/api/doors/:id/opened", app.opened())

	router.GET("/api/doors/:id/recordings", app.listRecordings())
	router.DELETE("/api/doors/:id/recordings/:filename", app.deleteRecording())
	router.POST("/api/recordings", app.uploadRecording())
	router.GET("/temp/*path", app.serveRecording())

	router.GET("/api/manifest/:id", app.manifest())

	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	return router
}

// Handler exposes the router, mainly for tests.
func (app *App) Handler() http.Handler {
	return app.router
}

// Bus is the app's event bus.
func (app *App) Bus() *core.EventBus {
	return app.bus
}

func (app *App) Listen() error {
	app.logger.Info("listening", zap.String("addr", app.config.Addr))

	return app.httpServer.ListenAndServe()
}

// Close ends open streams, stops the listener, waits for in-flight
// notifications and releases the stores.
func (app *App) Close(ctx context.Context) error {
	app.server.Close()

	err := app.httpServer.Shutdown(ctx)

	app.dispatcher.Wait()

	if app.mirror != nil {
		app.mirror.Close()
	}

	if cerr := app.registry.Close(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}
