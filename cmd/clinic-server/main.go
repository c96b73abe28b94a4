package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-backend/internal/cache"
	"clinic-backend/internal/config"
	"clinic-backend/internal/database"
	"clinic-backend/internal/events"
	"clinic-backend/internal/handlers"
	"clinic-backend/internal/logger"
	"clinic-backend/internal/middleware"
	"clinic-backend/internal/scheduling"
	"clinic-backend/internal/seed"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply schema migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(); err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(database.DB); err != nil {
				return err
			}
			logger.Log.Info("Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load verified demo accounts from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(file)
			if err != nil {
				return err
			}
			if _, err := setup(); err != nil {
				return err
			}
			defer database.Close()

			if err := database.Migrate(database.DB); err != nil {
				return err
			}
			res, err := seed.Apply(database.DB, f)
			if err != nil {
				return err
			}
			logger.WithFields(map[string]interface{}{
				"created": res.Created,
				"skipped": res.Skipped,
			}).Info("Seed applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "fixtures/seed.yaml", "seed file")
	return cmd
}

// setup loads configuration, configures logging and opens the database.
func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel)
	if err := database.InitDB(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(migrate bool) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer database.Close()

	if migrate {
		if err := database.Migrate(database.DB); err != nil {
			return err
		}
	}

	window, err := scheduling.NewWindow(cfg.ClinicOpen, cfg.ClinicClose)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cfg.RedisAddr != "" {
		counter, err := cache.NewRedisCounter(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, visit counters served from the database")
		} else {
			cache.Visits = counter
			defer counter.Close()
			logger.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, "clinic-server")
		events.Default = pub
		defer pub.Close()
		logger.WithField("topic", cfg.KafkaTopic).Info("Publishing domain events to Kafka")
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Options{
		Auth:        middleware.NewAuth(cfg.JWTSecret, cfg.JWTTTL, cfg.AdminKey),
		Window:      window,
		StaticDir:   cfg.StaticDir,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ListenPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.ListenPort).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Log.Info("Server exited")
	return nil
}
