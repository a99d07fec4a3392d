package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/udslink/udslink/internal/command"
	"github.com/udslink/udslink/internal/core"
	"github.com/udslink/udslink/internal/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the udslink server",
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := core.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	srv, err := server.New(cfg, command.New(logger, cfg.Message.TTL), logger)
	if err != nil {
		return fmt.Errorf("initializing server: %w", err)
	}

	// Ctrl-C shuts the server down gracefully; a second signal kills it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Infof("waiting to shut down gracefully...")
		cancel()
		<-c
		logger.Errorf("hard exiting (killed)")
		os.Exit(1)
	}()

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
