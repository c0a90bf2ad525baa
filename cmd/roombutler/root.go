package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jacopomaroli/roombutler/internal/api"
	"github.com/jacopomaroli/roombutler/internal/app"
	"github.com/jacopomaroli/roombutler/internal/bus"
	"github.com/jacopomaroli/roombutler/internal/config"
	"github.com/jacopomaroli/roombutler/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	serverURL string
	wsURL     string
)

var rootCmd = &cobra.Command{
	Use:   "roombutler",
	Short: "Terminal client for the room presence server",
	Long: `A terminal client for a WiFi/BLE room presence server. It tracks which
room a device is in, collects signal fingerprints per room, and drives
model training, all from the keyboard.`,
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml",
		"path to config file")
	rootCmd.Flags().StringVar(&serverURL, "server", "", "server base URL (overrides config)")
	rootCmd.Flags().StringVar(&wsURL, "ws", "", "websocket URL (overrides config)")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		// Running without a config file is fine unless one was asked for.
		if !os.IsNotExist(err) || cmd.Flags().Changed("config") {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}
	if serverURL != "" {
		cfg.Server.BaseURL = serverURL
	}
	if wsURL != "" {
		cfg.Server.WSURL = wsURL
	}

	// Stdout belongs to the TUI, so logs go to a file.
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.New()
	client := api.NewClient(cfg.Server.BaseURL, cfg.Client.RequestTimeout, sugar)
	push := api.NewPushChannel(cfg.Server.WSURL, b,
		cfg.Client.ReconnectBase, cfg.Client.ReconnectMax, sugar)
	go push.Run(ctx)

	sess := session.New(client, b, sugar)
	defer sess.Close()

	model := app.New(sess, b)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err = p.Run()
	model.Close()
	return err
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{cfg.Log.File}
	zcfg.ErrorOutputPaths = []string{cfg.Log.File}
	if cfg.Log.Debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zcfg.Build()
}
