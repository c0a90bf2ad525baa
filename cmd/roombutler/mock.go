package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacopomaroli/roombutler/internal/mockserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mockAddr     string
	mockInterval time.Duration
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a fake presence server for development",
	Long: `Run a local server that mimics the presence backend: a few seeded
devices, the REST command endpoints, and a websocket that pushes
wandering room updates and fake training runs.`,
	RunE: runMock,
}

func init() {
	rootCmd.AddCommand(mockCmd)

	mockCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8000", "address to listen on")
	mockCmd.Flags().DurationVar(&mockInterval, "interval", 3*time.Second,
		"delay between generated room updates")
}

func runMock(_ *cobra.Command, _ []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := mockserver.NewServer(sugar)
	gen := mockserver.NewGenerator(srv, mockInterval)
	gen.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- mockserver.ListenAndServe(mockAddr, srv)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		sugar.Infow("shutting down", "signal", sig.String())
		return nil
	case err := <-errCh:
		return err
	}
}
