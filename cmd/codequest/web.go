package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-codequest/internal/platform/web"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

var (
	flagHTTPAddr   string
	flagWebTimeout time.Duration
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server for browser front ends and graders.

Endpoints:
  GET  /api/levels                  - List levels
  GET  /api/levels/{id}?seed=N      - A resolved level
  POST /api/runs                    - Run {level, source, seed, player} to completion
  GET  /api/runs/recent?level=&limit=
  GET  /api/runs/{id}               - One saved run
  GET  /api/runs/stream?level=&seed= - Websocket; each text message is a program
  GET  /api/health

Examples:
  codequest web
  codequest web --http 127.0.0.1:8080 --pace fast`,
	Args: cobra.NoArgs,
	RunE: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&flagHTTPAddr, "http", ":8080", "HTTP server address (host:port)")
	webCmd.Flags().DurationVar(&flagWebTimeout, "run-timeout", 10*time.Second, "Longest a graded run may take")
}

func runWeb(_ *cobra.Command, _ []string) error {
	set, err := loadSettings(os.Stderr)
	if err != nil {
		return err
	}

	store, err := storage.Open(set.Config.StoragePath())
	if err != nil {
		set.Logger.Warn("could not open run history", "error", err)
		// Continue without storage
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	srv := web.NewServer(web.Options{
		Config:     set.Config,
		Store:      store,
		Logger:     set.Logger.WithPrefix("web"),
		FrameRate:  set.Config.Render.FrameRate,
		RunTimeout: flagWebTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting CodeQuest HTTP server on %s\n", flagHTTPAddr)
	fmt.Println("Press Ctrl+C to stop")
	return srv.ListenAndServe(ctx, flagHTTPAddr)
}
