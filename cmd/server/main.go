package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/magnategame/magnate-server/internal/config"
	"github.com/magnategame/magnate-server/internal/game"
	"github.com/magnategame/magnate-server/internal/repository"
	"github.com/magnategame/magnate-server/internal/server"
	"github.com/magnategame/magnate-server/internal/session"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting magnate server",
		zap.String("address", cfg.Server.WebSocket.Address),
		zap.Bool("persistence", cfg.Database.URL != ""))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo *repository.GameRepository
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()

		repo = repository.NewGameRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema migration failed", zap.Error(err))
		}
		stats := db.Stats()
		logger.Info("database connected",
			zap.Int32("max_conns", stats.MaxConns()),
			zap.Int32("total_conns", stats.TotalConns()))
	}

	sessions := session.NewManager(cfg.Server.LeasePeriod, cfg.Server.MaxSessions, logger)
	go sessions.CleanupExpiredSessions(ctx)

	engine := game.NewEngine(game.Config{
		StartMoney:   cfg.Game.StartMoney,
		Salary:       cfg.Game.Salary,
		JailFine:     cfg.Game.JailFine,
		MaxJailTurns: cfg.Game.MaxJailTurns,
	}, logger)

	gateway := server.NewGateway(cfg, engine, sessions, repo, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartWebSocketServer(cfg.Server.WebSocket, gateway, logger)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Fatal("websocket server failed", zap.Error(err))
	}

	logger.Info("server stopped",
		zap.Int("active_games", engine.ActiveGameCount()),
		zap.Int("active_sessions", sessions.Count()))
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	return zapCfg.Build()
}
