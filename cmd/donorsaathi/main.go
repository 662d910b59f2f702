package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/app"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "donorsaathi",
		Short:         "Donor Saathi allocation and matching engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger = app.NewLogger(cfg.Environment)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(dispatchAlertsCmd())
	rootCmd.AddCommand(generateSlotsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("❌ %v", err)
		stop()
		os.Exit(1)
	}
}

// withApp собирает приложение и закрывает его после команды
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, Telegram bot and background tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shutdownTracing, err := app.SetupTracing(cmd.Context(), cfg.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Warn("Tracing shutdown failed", zap.Error(err))
				}
			}()

			logger.Info("Starting donorsaathi",
				zap.String("environment", cfg.Environment),
				zap.String("storage", cfg.Storage),
				zap.Bool("telegram", cfg.TelegramToken != ""),
			)

			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if !skipMigrations {
					if err := a.Migrate(ctx); err != nil {
						return err
					}
				}
				return a.Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply migrations on start")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Migrate(ctx)
			})
		},
	}
}

func dispatchAlertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch-alerts",
		Short: "Deliver pending rare donor alerts once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				result, err := a.Dispatcher().Dispatch(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("sent=%d in_app=%d failed=%d expired=%d skipped=%d\n", result.Sent, result.InApp, result.Failed, result.Expired, result.Skipped)
				return nil
			})
		},
	}
}

func generateSlotsCmd() *cobra.Command {
	var weeks int

	cmd := &cobra.Command{
		Use:   "generate-slots",
		Short: "Generate slots for all active recurring schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks <= 0 {
				weeks = cfg.SlotWeeksAhead
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				created, err := a.Services().Slots.GenerateSlotsForAllRecurringSchedules(ctx, weeks)
				if err != nil {
					return err
				}
				fmt.Printf("created %d slots\n", created)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&weeks, "weeks", 0, "Weeks ahead to generate (defaults to SLOT_WEEKS_AHEAD)")
	return cmd
}
