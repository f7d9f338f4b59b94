package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/undiscoveredWorld/chat-on-sockets/internal/config"
	"github.com/undiscoveredWorld/chat-on-sockets/internal/history"
	"github.com/undiscoveredWorld/chat-on-sockets/internal/logging"
	"github.com/undiscoveredWorld/chat-on-sockets/internal/server"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "config.ini", "Path to configuration file")
	logPath := flag.String("log", "", "Path to log directory (overrides config)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// No logger yet, fall back to stderr
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *logPath != "" {
		cfg.Paths.LogPath = *logPath
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Paths.LogPath)
	defer logger.Close()

	logger.Info("Chat server starting...")
	logger.Info("Using config file: %s", *configPath)

	// Open the message history store
	store, err := history.Open(cfg.History.DatabasePath)
	if err != nil {
		logger.Error("Failed to open history store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	if count, err := store.Count(); err == nil {
		logger.Info("History store contains %d messages", count)
	}

	// Create server instances
	chatServer := server.NewChatServer(cfg, store, logger)

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer, err = server.NewHTTPServer(cfg, logger, chatServer, store)
		if err != nil {
			logger.Error("Failed to create admin HTTP server: %v", err)
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run the servers. A bind failure cancels the group and is fatal;
	// there is no retry.
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(chatServer.Start)

	if httpServer != nil {
		g.Go(func() error {
			if err := httpServer.Start(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal: %v, shutting down...", sig)
		case <-ctx.Done():
		}

		chatServer.Stop()
		if httpServer != nil {
			httpServer.Stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed: %v", err)
		logger.Close()
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
