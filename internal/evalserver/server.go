// Package evalserver exposes position evaluation over HTTP.
package evalserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/engine"
	"github.com/park285/chess-coach/pkg/coachdto"
)

const requestIDHeader = "X-Request-Id"

// Analyzer is the engine side of the service.
type Analyzer interface {
	Evaluate(ctx context.Context, fen string) (engine.Evaluation, error)
}

type Config struct {
	// RequestTimeout bounds one evaluation, including the wait for a free engine.
	RequestTimeout time.Duration
	MaxBodyBytes   int
}

type Server struct {
	analyzer Analyzer
	cfg      Config
	logger   *zap.Logger
	srv      *fasthttp.Server
}

func New(analyzer Analyzer, cfg Config, logger *zap.Logger) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{analyzer: analyzer, cfg: cfg, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "chess-coach-eval",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       cfg.RequestTimeout + 5*time.Second,
		MaxRequestBodySize: cfg.MaxBodyBytes,
		Logger:             zap.NewStdLog(logger),
	}
	return s, nil
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("eval_server_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Serve runs on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes requests; it is exported for embedding in other servers.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	reqID := strings.TrimSpace(string(ctx.Request.Header.Peek(requestIDHeader)))
	if reqID == "" {
		reqID = uuid.NewString()
	}
	ctx.Response.Header.Set(requestIDHeader, reqID)

	switch path := string(ctx.Path()); {
	case path == "/evaluate" && ctx.IsPost():
		s.handleEvaluate(ctx, reqID)
	case path == "/evaluate":
		ctx.Response.Header.Set("Allow", fasthttp.MethodPost)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "use POST", false)
	case path == "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not_found", "unknown path", false)
	}

	s.logger.Info("http_access",
		zap.String("request_id", reqID),
		zap.String("method", string(ctx.Method())),
		zap.String("path", string(ctx.Path())),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) handleEvaluate(ctx *fasthttp.RequestCtx, reqID string) {
	var req coachdto.EvaluateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "invalid JSON body", false)
		return
	}
	fen := strings.TrimSpace(req.FEN)
	if fen == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "bad_request", "fen required", false)
		return
	}

	evalCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.analyzer.Evaluate(evalCtx, fen)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidPosition):
			writeError(ctx, fasthttp.StatusBadRequest, "invalid_position", "invalid FEN", false)
		case errors.Is(err, engine.ErrEngineTimeout):
			s.logger.Warn("evaluate_timeout", zap.String("request_id", reqID), zap.String("fen", fen), zap.Error(err))
			writeError(ctx, fasthttp.StatusServiceUnavailable, "engine_timeout", "engine timed out", true)
		default:
			s.logger.Error("evaluate_failed", zap.String("request_id", reqID), zap.String("fen", fen), zap.Error(err))
			writeError(ctx, fasthttp.StatusServiceUnavailable, "engine_unavailable", "engine unavailable", true)
		}
		return
	}

	pv := result.PV
	if pv == nil {
		pv = []string{}
	}
	writeJSON(ctx, fasthttp.StatusOK, coachdto.EvaluateResponse{
		Eval:     result.Score,
		BestMove: result.BestMove,
		PV:       pv,
		Depth:    result.Depth,
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, msg string, retryable bool) {
	writeJSON(ctx, status, coachdto.DomainError{Code: code, Message: msg, Retryable: retryable})
}
