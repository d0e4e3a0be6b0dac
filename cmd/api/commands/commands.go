package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/taskhive/core/internal/adapters/mailer"
	"github.com/taskhive/core/internal/adapters/repository"
	"github.com/taskhive/core/internal/application/services"
	"github.com/taskhive/core/internal/infrastructure/config"
	"github.com/taskhive/core/internal/infrastructure/database"
	"github.com/taskhive/core/internal/infrastructure/logger"
	"github.com/taskhive/core/internal/infrastructure/scheduler"
	"github.com/taskhive/core/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TaskHive API server",
		Long:  "Start the TaskHive API server with all configured routes, middleware and the reminder sweeper",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewSweepCommand creates the one-shot reminder sweep command
func NewSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single reminder sweep",
		Long:  "Scan for overdue and soon-due tasks and send reminder emails, then exit",
		Run: func(cmd *cobra.Command, args []string) {
			runSweep()
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print TaskHive version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("TaskHive Core v1.0.0")
		},
	}
}

func runServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	srv, err := server.New(cfg, db, appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	var sweepRunner *scheduler.Runner
	if cfg.Sweeper.Enabled {
		taskRepo := repository.NewTaskRepository(db.DB)
		smtpMailer := mailer.New(cfg.SMTP)
		sweeper := services.NewNotificationSweeper(taskRepo, smtpMailer, cfg.Sweeper.Window, appLogger)

		sweepRunner = scheduler.NewRunner("reminder_sweep", cfg.Sweeper.Interval, func(ctx context.Context) error {
			_, err := sweeper.Sweep(ctx)
			return err
		}, appLogger)
		sweepRunner.Start(context.Background())
	}

	go func() {
		appLogger.Infow("Starting TaskHive API server",
			"port", cfg.Server.Port,
			"environment", cfg.App.Environment,
		)

		if err := srv.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			appLogger.Errorw("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutdown signal received")

	if sweepRunner != nil {
		sweepRunner.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
	}
}

func runSweep() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	db, err := database.New(cfg.Database)
	if err != nil {
		appLogger.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	taskRepo := repository.NewTaskRepository(db.DB)
	smtpMailer := mailer.New(cfg.SMTP)
	sweeper := services.NewNotificationSweeper(taskRepo, smtpMailer, cfg.Sweeper.Window, appLogger)

	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		appLogger.Fatalw("Sweep failed", "error", err)
	}

	fmt.Printf("Sweep completed: scanned=%d sent=%d failed=%d\n", result.Scanned, result.Sent, result.Failed)
}

func runMigration(direction string) {
	m, db := newMigrator()
	defer db.Close()

	var err error
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	}

	if err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Migration failed: %v", err)
	}

	if err == migrate.ErrNoChange {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	m, db := newMigrator()
	defer db.Close()

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func newMigrator() (*migrate.Migrate, *database.DB) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		log.Fatalf("Failed to create migration driver: %v", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	return m, db
}
