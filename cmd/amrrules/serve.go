package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amrverse/amrrulebrowser/internal/ingest"
	"github.com/amrverse/amrrulebrowser/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var noSync bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rule browser API over HTTP",
		Long: `Starts an HTTP JSON API under /api. The server syncs with GitHub in the
background on startup; the stored files are available immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, err := a.session(ctx)
			if err != nil {
				return err
			}
			srv := server.New(sess)

			if !noSync {
				go func() {
					t0 := time.Now()
					report := sess.Sync(ctx, ingest.SyncOptions{})
					a.logger.Info("background sync finished",
						zap.String("result", report.Message()),
						zap.Duration("elapsed", time.Since(t0)))
				}()
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.Start(a.v.GetString("server.addr")) }()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr, :8080)")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "skip the startup sync")
	return cmd
}
