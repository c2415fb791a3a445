// Command collabd runs the demo collaboration server: a WebSocket
// endpoint binding connected editor clients to the CRDT document core via
// the reconcile package.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Polqt/docsync/session"
	"github.com/Polqt/docsync/transport"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "collabd",
		Short:         "Document collaboration server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	var addr string
	var idleTTL time.Duration
	var reapInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket collaboration server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(addr, idleTTL, reapInterval)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&idleTTL, "idle-ttl", 30*time.Minute, "evict a document after it sits idle (zero sessions) this long")
	cmd.Flags().DurationVar(&reapInterval, "reap-interval", time.Minute, "how often to sweep for idle documents")
	return cmd
}

func serve(addr string, idleTTL, reapInterval time.Duration) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	hub := session.NewHub(idleTTL, log)
	go hub.Run(reapInterval)
	defer hub.Stop()

	router := mux.NewRouter()
	transport.NewHandler(hub, log).Register(router)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("collabd listening", zap.String("addr", addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
