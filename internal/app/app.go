package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kriya-gateway/internal/config"
	"kriya-gateway/internal/database"
	"kriya-gateway/internal/handler"
	"kriya-gateway/internal/logger"
	"kriya-gateway/internal/middleware"
	"kriya-gateway/internal/plane"
	"kriya-gateway/internal/repository"
	"kriya-gateway/internal/router"
	"kriya-gateway/internal/service"
)

type App struct {
	server *http.Server
	db     *database.DB
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Setup(cfg.Debug)

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	userRepo := repository.NewUserRepository(db.Pool)
	slog.Info("database ready")

	planeClient := plane.NewClient(cfg.PlaneBackendURL, cfg.PlaneTimeout, cfg.PlaneProbeTimeout)

	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry(), cfg.TokenIssuer, userRepo)
	sessionService := service.NewSessionService(userRepo)
	credentialService := service.NewCredentialService(userRepo, tokenService, planeClient, cfg.PlaneWorkspaceSlug, cfg.PlaneProjectID)
	authService := service.NewAuthService(userRepo, tokenService, credentialService)
	proxyService := service.NewProxyService(credentialService, planeClient)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	secureCookies := !cfg.Debug

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:       handler.NewAuthHandler(authService, tokenService, sessionService, cfg.PlaneAPIKey, secureCookies),
		Session:    handler.NewSessionHandler(sessionService, tokenService, secureCookies),
		Proxy:      handler.NewProxyHandler(proxyService),
		Task:       handler.NewTaskHandler(userRepo, credentialService, planeClient),
		Onboarding: handler.NewOnboardingHandler(authService),
		Admin:      handler.NewAdminHandler(credentialService),
		Info:       handler.NewInfoHandler(cfg.AppName, cfg.AppVersion, db),
	})

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.db.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.db.Close()

	slog.Info("server stopped")
	return nil
}
