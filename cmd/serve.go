package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/regioniq/insight-cli/internal/api"
)

var (
	servePort  int
	serveBuild string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the insight and data API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		server := api.NewServer(api.Deps{
			Store:    env.Store,
			Insights: env.Insights,
			Regions:  env.Hierarchy,
			Server:   cfg.Server,
			Engine:   cfg.Engine,
			Forecast: cfg.Forecast,
			Build:    serveBuild,
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("vintage", cfg.Forecast.Vintage),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveBuild, "build", "dev", "build identifier reported by /version")
	rootCmd.AddCommand(serveCmd)
}
