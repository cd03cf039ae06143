package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON HTTP API",
	Long: `Serves the scheduling engine over HTTP.

Endpoints:
  POST /schedule         plan the week for a task set
  POST /groups           group tasks
  POST /evaluate         score an existing block sequence
  POST /embeddings       embed tasks
  POST /recommendations  suggest schedule improvements
  POST /analyze          workload statistics
  POST /calendar/sync    push a schedule to the calendar
  GET  /healthz          liveness check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := buildEngine(st)
		if err != nil {
			return err
		}

		srv := server.New(cfg.Server, engine)
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		fmt.Printf("✓ PolyLearner API listening on %s\n", srv.Addr())

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			logging.Server("Received %v, shutting down", sig)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		fmt.Println("✓ Server stopped")
		return nil
	},
}
