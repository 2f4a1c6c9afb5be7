package cmd

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

	"eventmanager/config"
	"eventmanager/internal/adapters/auth"
	"eventmanager/internal/adapters/email"
	deliveryhttp "eventmanager/internal/delivery/http"
	"eventmanager/internal/delivery/http/controllers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/metrics"
	"eventmanager/internal/repository/postgres"
	"eventmanager/internal/services"

	"github.com/spf13/cobra"
)

var serverPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server.

The server loads configuration from the environment (and .env outside
production), applies pending migrations when MIGRATE_ON_START is true, and
shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverPort, "port", "", "listen port (default: PORT or 8080)")
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverPort != "" {
		cfg.Port = serverPort
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("starting eventsvc", "version", Version, "env", cfg.Environment)

	if cfg.MigrateOnStart {
		if err := postgres.MigrateUp(cfg.DBUrl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	openCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.Open(openCtx, cfg.DBUrl, postgres.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()
	metrics.Init(db)

	tokens, err := auth.NewJWTService(auth.TokenConfig{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTExpiry})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:        cfg.Email.Provider,
		FromAddress:     cfg.Email.FromAddress,
		FromName:        cfg.Email.FromName,
		Region:          cfg.Email.AWSRegion,
		AccessKeyID:     cfg.Email.AWSAccessKeyID,
		SecretAccessKey: cfg.Email.AWSSecretAccessKey,
	}, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	eventRepo := postgres.NewEventRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	userRepo := postgres.NewUserRepository(db)

	emailSvc := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)
	eventSvc := services.NewEventService(eventRepo, logger, cfg.ContextTimeout)
	attendeeSvc := services.NewAttendeeService(attendeeRepo, eventRepo, emailSvc, logger, cfg.ContextTimeout)
	authSvc := services.NewAuthService(userRepo, auth.NewBcryptHasher(cfg.BcryptCost), tokens, logger, cfg.ContextTimeout)

	handler := deliveryhttp.NewRouter(deliveryhttp.RouterDeps{
		Logger:         logger,
		Events:         controllers.NewEventController(logger, eventSvc),
		Attendees:      controllers.NewAttendeeController(logger, attendeeSvc, cfg.MaxUploadBytes),
		Auth:           controllers.NewAuthController(logger, authSvc),
		Health:         controllers.NewHealthController(logger, db),
		Tokens:         tokens,
		AuthRateLimit:  middleware.NewRateLimiter(cfg.AuthRateLimitPerMin),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return gracefulShutdown(server, logger, errCh)
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := os.Getenv("LOG_LEVEL")
	if logLevel != "" {
		level = logLevel
	}
	return config.NewLoggerTo(os.Stdout, cfg.Environment, level)
}

func gracefulShutdown(server *http.Server, logger *slog.Logger, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
