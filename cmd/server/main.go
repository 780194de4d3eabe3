package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/midnight-machinations/midnight-machinations-sub000/internal/config"
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/game"
	_ "github.com/midnight-machinations/midnight-machinations-sub000/internal/roles" // Import to register roles
	"github.com/midnight-machinations/midnight-machinations-sub000/internal/server"
)

const shutdownTimeout = 10 * time.Second

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

	logger.Info("starting nightfall server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("nightfall server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ws := cfg.Server.WebSocket
	hub := server.NewHub(logger.Named("hub"), ws.SendQueue, ws.WriteTimeout)
	manager := game.NewManager(ctx, logger.Named("games"), hub, game.ManagerConfig{
		TickInterval: cfg.Game.TickInterval,
		QueueSize:    cfg.Game.QueueSize,
	})
	srv := server.NewServer(ctx, cfg, logger.Named("http"), manager, hub, server.NewSeatStore(bcrypt.DefaultCost))

	httpServer := &http.Server{
		Addr:              ws.Address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer, health := server.NewGRPCServer(cfg.Server.GRPC, logger.Named("grpc"))

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPC.Address, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("starting WebSocket server",
			zap.String("address", ws.Address),
			zap.String("path", ws.Path),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully...")
		server.SetServing(health, false)

		shutdownCtx, release := context.WithTimeout(context.Background(), shutdownTimeout)
		defer release()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		cancel()
		manager.Wait()
		return err
	})

	server.SetServing(health, true)
	logger.Info("nightfall server initialized",
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", ws.Address),
		zap.Int("max_games", cfg.Server.MaxGames),
	)
	return g.Wait()
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
