package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushboard/solo-board/internal/config"
	"github.com/rushboard/solo-board/internal/game"
	"github.com/rushboard/solo-board/internal/persistence"
	"github.com/rushboard/solo-board/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting board server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize snapshot store
	store, err := persistence.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open snapshot store", zap.Error(err))
	}
	defer store.Close()

	// Initialize board manager
	boardMgr := game.NewManager(store, game.ManagerOptions{
		HistoryLimit: cfg.Board.HistoryLimit,
		SaveTimeout:  cfg.Storage.SaveTimeout,
		ReplayDir:    cfg.Board.ReplayDir,
	}, logger)
	logger.Info("board manager initialized",
		zap.Int("history_limit", cfg.Board.HistoryLimit),
		zap.Bool("replays", cfg.Board.ReplayDir != ""),
	)

	wsServer := server.NewWebSocketServer(cfg.Server.WebSocket, boardMgr, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- wsServer.Start(ctx)
	}()

	logger.Info("board server initialized",
		zap.String("version", version),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	// Wait for termination signal or server failure
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("WebSocket server error", zap.Error(err))
		}
	}

	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket shutdown error", zap.Error(err))
	}
	cancel()

	// Flush pending saves
	boardMgr.CloseAll()

	logger.Info("board server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
