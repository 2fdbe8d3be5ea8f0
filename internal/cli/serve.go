package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/server"
)

var (
	serveAddr     string
	serveInterval int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor as a long-lived service",
	Long: `Start the HTTP API and the periodic evaluation scheduler. Each cycle
evaluates every active source and dispatches notifications when violations
are found.

The check interval (minutes) must be one of 5, 15, or 30. Flags override
the corresponding .sheetconfig values.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil || Events == nil || Evaluator == nil {
			return fmt.Errorf("monitor services not initialized")
		}

		addr := serveAddr
		interval := serveInterval
		if Cfg != nil {
			if addr == "" {
				addr = Cfg.ListenAddr
			}
			if interval == 0 {
				interval = Cfg.CheckIntervalMinutes
			}
		}

		srv, err := server.New(server.Deps{
			Registry:  Registry,
			Events:    Events,
			Evaluator: Evaluator,
			Notifier:  Notifier,
			Logger:    slog.Default(),
		}, addr, interval)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fmt.Printf("serving on %s, checking every %d minutes\n", addr, interval)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().IntVar(&serveInterval, "interval", 0, "check interval in minutes: 5, 15, or 30 (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
