package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/voltgrid/investorportal/internal/portal/http"
	"github.com/voltgrid/investorportal/internal/portal/mail"
	"github.com/voltgrid/investorportal/internal/portal/service"
	"github.com/voltgrid/investorportal/internal/portal/store"
	"github.com/voltgrid/investorportal/internal/portal/store/drivers/sqlite"
	"github.com/voltgrid/investorportal/pkg/jwtx"
	"github.com/voltgrid/investorportal/pkg/sessionwatch"
	"github.com/voltgrid/investorportal/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the portal backend with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer
	watch  *sessionwatch.Registry
	mailer *mail.Client

	authService         *service.AuthService
	mfaService          *service.MFAService
	adminService        *service.AdminService
	signatureService    *service.SignatureService
	emailService        *service.EmailService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "investor-portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	signer, err := jwtx.NewSigner(cfg.JWTSecret, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.watch = sessionwatch.NewRegistry()
	if cfg.EmailAPIURL != "" {
		app.mailer = mail.NewClient(cfg.EmailAPIURL, cfg.EmailAPIKey)
	} else {
		app.logger.Warn("EMAIL_API_URL not set, outbound mail disabled")
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("investor portal starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down investor portal...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	// Stop idle monitors without firing expiry callbacks; session rows
	// stay put and monitors rebuild from activity after restart.
	app.watch.StopAll()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("investor portal stopped")
	return nil
}

// initDatabase opens the SQLite store and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:      app.db,
		Signer:     app.signer,
		Watch:      app.watch,
		Logger:     app.logger,
		SessionTTL: app.cfg.SessionTTL,
		Timeout:    app.cfg.SessionTimeout,
		Warning:    app.cfg.SessionWarning,
		Debounce:   app.cfg.SessionDebounce,
	}

	app.mfaService = &service.MFAService{
		Store:      app.db,
		Signer:     app.signer,
		Logger:     app.logger,
		Issuer:     "VoltGrid Investor Portal",
		SessionTTL: app.cfg.SessionTTL,
	}

	app.adminService = &service.AdminService{
		Store:  app.db,
		Watch:  app.watch,
		Logger: app.logger,
	}

	app.signatureService = &service.SignatureService{
		Store:   app.db,
		Mailer:  app.mailer,
		Logger:  app.logger,
		SiteURL: app.cfg.SiteURL,
	}

	app.emailService = &service.EmailService{
		Mailer:  app.mailer,
		Logger:  app.logger,
		SiteURL: app.cfg.SiteURL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.cfg.CORSOrigin,
		app.cfg.WebhookSecret,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.MFAService = app.mfaService
	router.AdminService = app.adminService
	router.SignatureService = app.signatureService
	router.EmailService = app.emailService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
