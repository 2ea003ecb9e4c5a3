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
	if err := obslog.InitFromEnv("coach-server"); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := coachbuilder.NewCoach(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("coach init error", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	hctx, hcancel := context.WithTimeout(ctx, 3*time.Second)
	if err := deps.Eval.Healthy(hctx); err != nil {
		logger.Warn("eval_server_unreachable", zap.String("url", cfg.EvalServerURL), zap.Error(err))
	}
	hcancel()

	errCh := make(chan error, 1)
	go func() { errCh <- deps.Server.ListenAndServe() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("coach_server_failed", zap.Error(err))
		}
		return
	}

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := deps.Server.Shutdown(sctx); err != nil {
		logger.Warn("coach_server_shutdown", zap.Error(err))
	}
}
