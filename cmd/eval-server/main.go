package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/coachbuilder"
	appcfg "github.com/park285/chess-coach/internal/config"
	"github.com/park285/chess-coach/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv("eval-server"); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	deps, err := coachbuilder.NewEval(cfg, logger)
	if err != nil {
		logger.Fatal("eval init error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("engine_pool_close", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- deps.Server.ListenAndServe(cfg.EvalListenAddr) }()
	logger.Info("eval_server_listening",
		zap.String("addr", cfg.EvalListenAddr),
		zap.Int("depth", cfg.EngineDepth),
		zap.Int("movetime_ms", cfg.EngineMoveTimeMS),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("eval_server_failed", zap.Error(err))
		}
		return
	}

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := deps.Server.Shutdown(sctx); err != nil {
		logger.Warn("eval_server_shutdown", zap.Error(err))
	}
}
