package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/strangelove-ventures/cctp-payroll/payroll"
)

const shutdownTimeout = 30 * time.Second

// Starts the payroll scheduler, the admin api and the metrics server
func Start(a *AppState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the payroll scheduler and admin api",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.InitAppState()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.Logger
			cfg := a.Config

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			port, err := cmd.Flags().GetInt16(flagMetricsPort)
			if err != nil {
				return fmt.Errorf("invalid port: %w", err)
			}

			svc, err := a.newServices(ctx, true)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.close(context.Background()); err != nil {
					logger.Error("Error closing directory", "err", err)
				}
			}()

			scheduler, err := payroll.NewScheduler(svc.runner, svc.directory, cfg.Payroll, logger, svc.metrics)
			if err != nil {
				return err
			}

			go func() {
				if err := svc.metrics.Serve(port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Metrics server stopped", "err", err)
				}
			}()

			gin.SetMode(gin.ReleaseMode)
			router, err := (&api{
				logger:        logger.With("component", "api"),
				transfers:     svc.orchestrator,
				payroll:       scheduler,
				organisations: svc.directory,
				balances:      svc.balances,
				treasury:      cfg.Treasury,
				metrics:       svc.metrics.Handler(),
			}).router(cfg.Api.TrustedProxies)
			if err != nil {
				return fmt.Errorf("error configuring api: %w", err)
			}

			addr := cfg.Api.ListenAddress
			if addr == "" {
				addr = defaultListenAddress
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				logger.Info("Starting api", "address", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Api server stopped", "err", err)
					stop()
				}
			}()

			scheduler.Start()
			logger.Info("Payroll scheduler started", "next_run", scheduler.Next())

			<-ctx.Done()
			logger.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error shutting down api", "err", err)
			}

			// wait for a run in progress
			select {
			case <-scheduler.Stop().Done():
			case <-shutdownCtx.Done():
				logger.Error("Payroll run still in progress at shutdown")
			}
			return nil
		},
	}

	return addMetricsPortFlag(cmd)
}
