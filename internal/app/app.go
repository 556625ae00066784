package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"railroad-api/internal/config"
	"railroad-api/internal/database"
	"railroad-api/internal/event"
	"railroad-api/internal/handler"
	"railroad-api/internal/metrics"
	"railroad-api/internal/middleware"
	"railroad-api/internal/repository"
	"railroad-api/internal/router"
	"railroad-api/internal/service"
	"railroad-api/internal/token"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	codec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	stationRepo := repository.NewStationRepository(pool)
	trainRepo := repository.NewTrainRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	slog.Info("database ready")

	appMetrics := metrics.New()
	bus := event.NewBus()
	bus.OnDrop(func(e event.Event) { appMetrics.DroppedEvent(string(e.Type)) })

	userService := service.NewUserService(userRepo, codec, cfg.BcryptCost, bus)
	if cfg.BootstrapAdmin() {
		if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminPseudo); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure bootstrap admin: %w", err)
		}
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := event.Consume(consumerCtx, bus,
		event.AuditLog(slog.Default().With("component", "audit")),
		func(e event.Event) { appMetrics.DomainEvent(string(e.Type)) },
	)

	authMiddleware := middleware.NewAuthMiddleware(codec, userRepo, appMetrics)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Health:  handler.NewHealthHandler(db),
		User:    handler.NewUserHandler(userService),
		Station: handler.NewStationHandler(service.NewStationService(stationRepo, bus)),
		Train:   handler.NewTrainHandler(service.NewTrainService(trainRepo, stationRepo, bus)),
		Ticket:  handler.NewTicketHandler(service.NewTicketService(ticketRepo, trainRepo, bus)),
	}, appMetrics)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			func() {
				stopConsumer()
				<-consumerDone
			},
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-serveErr:
		a.cleanup()
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		slog.Info("shutdown requested", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
