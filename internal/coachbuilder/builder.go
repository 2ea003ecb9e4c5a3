// Package coachbuilder assembles the coach and evaluation servers from config.
package coachbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/boardimg"
	"github.com/park285/chess-coach/internal/config"
	"github.com/park285/chess-coach/internal/engine"
	"github.com/park285/chess-coach/internal/engine/uci"
	"github.com/park285/chess-coach/internal/evalclient"
	"github.com/park285/chess-coach/internal/evalserver"
	"github.com/park285/chess-coach/internal/msgcat"
	"github.com/park285/chess-coach/internal/sessionstore"
	"github.com/park285/chess-coach/internal/trainer"
	"github.com/park285/chess-coach/internal/wsapi"
)

type CoachDeps struct {
	Catalog *msgcat.Catalog
	Eval    *evalclient.Client
	Store   sessionstore.Store
	Trainer *trainer.Trainer
	Server  *wsapi.Server
}

func (d *CoachDeps) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

// NewCoach wires the coach server. Without REDIS_URL sessions live in memory.
func NewCoach(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*CoachDeps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.ValidateCoach(); err != nil {
		return nil, err
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	client := evalclient.NewClient(cfg.EvalServerURL,
		evalclient.WithTimeout(cfg.EvalTimeout()),
		evalclient.WithRetry(cfg.EvalRetry),
	)

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	tr, err := trainer.New(client, store, catalog, trainer.Config{
		CoachedSide:        cfg.Side(),
		EvalTimeout:        cfg.EvalTimeout(),
		PieceScoreMaxMoves: cfg.PieceScoreMaxMoves,
	}, logger.Named("trainer"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := []wsapi.Option{wsapi.WithLogger(logger.Named("ws")), wsapi.WithCatalog(catalog)}
	if cfg.BoardImage {
		opts = append(opts, wsapi.WithBoardImages(boardimg.Render))
	}
	srv, err := wsapi.New(tr, wsapi.Config{
		Addr:           cfg.ListenAddr,
		OriginPatterns: append([]string(nil), cfg.AllowedOrigins...),
	}, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &CoachDeps{Catalog: catalog, Eval: client, Store: store, Trainer: tr, Server: srv}, nil
}

func newStore(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (sessionstore.Store, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		logger.Info("session_store", zap.String("kind", "memory"))
		return sessionstore.NewMemoryStore(cfg.SessionTTL()), nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := sessionstore.DialRedis(dialCtx, cfg.RedisURL, cfg.SessionTTL())
	if err != nil {
		return nil, fmt.Errorf("init redis session store: %w", err)
	}
	logger.Info("session_store", zap.String("kind", "redis"))
	return store, nil
}

type EvalDeps struct {
	Pool     *uci.Pool
	Analyzer *engine.Analyzer
	Server   *evalserver.Server
}

func (d *EvalDeps) Close() error {
	if d == nil || d.Analyzer == nil {
		return nil
	}
	return d.Analyzer.Close()
}

// NewEval wires the evaluation server around a pool of engine processes.
func NewEval(cfg *config.AppConfig, logger *zap.Logger) (*EvalDeps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.ValidateEval(); err != nil {
		return nil, err
	}

	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.StockfishPath,
		Capacity:   cfg.EnginePoolSize,
		Options:    uci.Options{Threads: cfg.EngineThreads, HashMB: cfg.EngineHashMB, MultiPV: 1},
		Logger:     logger.Named("uci"),
	})
	if err != nil {
		return nil, fmt.Errorf("init engine pool: %w", err)
	}

	analyzer, err := engine.NewAnalyzer(pool, uci.Limits{
		Depth:          cfg.EngineDepth,
		MoveTimeMillis: cfg.EngineMoveTimeMS,
	}, logger.Named("analyzer"))
	if err != nil {
		return nil, errors.Join(err, pool.Close())
	}

	srv, err := evalserver.New(analyzer, evalserver.Config{}, logger.Named("http"))
	if err != nil {
		return nil, errors.Join(err, analyzer.Close())
	}
	return &EvalDeps{Pool: pool, Analyzer: analyzer, Server: srv}, nil
}
