package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightdelivered/payout-ledger/internal/api"
	"github.com/insightdelivered/payout-ledger/internal/observability"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes POST /api/convert (statement text or an uploaded
.pdf/.txt file), GET /api/health and GET /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	log := observability.NewLogger(cfg.Log.Level)
	defer log.Sync()

	app := api.NewApp(&api.Handler{
		Chart:     cfg.Accounts,
		Logger:    log,
		Metrics:   observability.NewMetrics(),
		StaticDir: cfg.Server.StaticDir,
		Version:   Version,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("listening",
		zap.String("addr", addr),
		zap.String("version", Version),
		zap.String("bank_account", cfg.Accounts.Bank),
	)
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
