package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/koustreak/idwiden/internal/engine"
	"github.com/koustreak/idwiden/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rewrite preview API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cat, err := a.loadCatalog(ctx)
			if err != nil {
				return err
			}

			sc := a.cfg.Server
			srv, err := server.New(&server.Config{
				Addr:         sc.Addr,
				CacheSize:    sc.CacheSize,
				MaxBodyBytes: sc.MaxBodyBytes,
				ReadTimeout:  sc.ReadTimeout,
				WriteTimeout: sc.WriteTimeout,
			}, cat, engine.New(cat, &engine.Config{Workers: a.cfg.Workers, DryRun: true}, a.log), a.log)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if err != nil {
					a.log.ErrorWith("server stopped", err, map[string]any{"addr": sc.Addr})
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8080)")
	return cmd
}
