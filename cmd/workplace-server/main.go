package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/workplace/workplace/internal/config"
	"github.com/workplace/workplace/internal/domain/assignment"
	"github.com/workplace/workplace/internal/domain/audit"
	"github.com/workplace/workplace/internal/domain/cases"
	"github.com/workplace/workplace/internal/domain/directory"
	"github.com/workplace/workplace/internal/domain/opinion"
	"github.com/workplace/workplace/internal/domain/peerreview"
	"github.com/workplace/workplace/internal/domain/professional"
	"github.com/workplace/workplace/internal/domain/signature"
	"github.com/workplace/workplace/internal/platform/auth"
	"github.com/workplace/workplace/internal/platform/cache"
	"github.com/workplace/workplace/internal/platform/db"
	"github.com/workplace/workplace/internal/platform/middleware"
	"github.com/workplace/workplace/internal/platform/notification"
	"github.com/workplace/workplace/internal/platform/rng"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "workplace-server",
		Short: "Second opinion workflow API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the workflow API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	var directoryCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		directoryCache, err = cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		logger.Info().Msg("connected to redis")
	}

	var notifier notification.Notifier = notification.NopNotifier{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notification.NewWebhookNotifier(cfg.NotifyWebhookURL, logger)
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuth(uuid.New()))
	} else {
		apiV1.Use(auth.JWT([]byte(cfg.AuthSigningKey)))
	}

	// Repositories
	profRepo := professional.NewRepoPG(pool)
	caseRepo := cases.NewRepoPG(pool)
	assignRepo := assignment.NewRepoPG(pool)
	opinionRepo := opinion.NewRepoPG(pool)
	sigRepo := signature.NewRepoPG(pool)
	reviewRepo := peerreview.NewRepoPG(pool)
	auditRepo := audit.NewRepoPG(pool)

	runner := &db.PoolRunner{Pool: pool}
	random := rng.Default()

	// Services
	auditSvc := audit.NewService(auditRepo)
	directorySvc := directory.NewService(caseRepo, profRepo, directoryCache,
		time.Duration(cfg.DirectoryCacheTTLSeconds)*time.Second, random, logger)
	assignSvc := assignment.NewService(assignRepo, auditSvc, runner, notifier, logger)
	opinionSvc := opinion.NewService(opinionRepo, assignSvc, caseRepo, auditSvc, runner)
	reviewSvc := peerreview.NewService(reviewRepo, opinionRepo, caseRepo, auditSvc,
		runner, notifier, random, cfg.PeerReviewRate, logger)
	sigSvc := signature.NewService(sigRepo, opinionRepo, caseRepo, reviewSvc,
		auditSvc, runner, notifier)

	// Handlers
	directory.NewHandler(directorySvc, profRepo).RegisterRoutes(apiV1)
	assignment.NewHandler(assignSvc).RegisterRoutes(apiV1)
	opinion.NewHandler(opinionSvc).RegisterRoutes(apiV1)
	signature.NewHandler(sigSvc).RegisterRoutes(apiV1)
	peerreview.NewHandler(reviewSvc).RegisterRoutes(apiV1)
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
