// Package wsapi exposes trainer sessions over WebSocket. Each connection owns
// exactly one session and handles its frames in order.
package wsapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/presenter"
	"github.com/park285/chess-coach/internal/trainer"
)

// Coach is the part of the trainer the transport drives.
type Coach interface {
	Open(ctx context.Context, id string) (*trainer.Session, bool, error)
	Save(ctx context.Context, s *trainer.Session) error
	Reset(ctx context.Context, s *trainer.Session) (string, error)
	Play(ctx context.Context, s *trainer.Session, in trainer.MoveInput) trainer.Feedback
	PieceScores(ctx context.Context, s *trainer.Session) (map[string]int, error)
	GameOver(s *trainer.Session) (string, bool)
}

type Catalog interface {
	Text(key, fallback string, data any) string
}

type Config struct {
	Addr           string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadLimitBytes int64
	OriginPatterns []string
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCatalog(c Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithBoardImages makes every connection attach rendered boards to its frames.
func WithBoardImages(render presenter.RenderFunc) Option {
	return func(s *Server) { s.render = render }
}

type Server struct {
	coach   Coach
	catalog Catalog
	render  presenter.RenderFunc
	cfg     Config
	logger  *zap.Logger
	httpSrv *http.Server
}

func New(coach Coach, cfg Config, opts ...Option) (*Server, error) {
	if coach == nil {
		return nil, errors.New("coach is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ReadLimitBytes <= 0 {
		cfg.ReadLimitBytes = 16 << 10
	}
	s := &Server{coach: coach, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler serves /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown, including one that happened before Serve was called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("coach_server_listening", zap.String("addr", ln.Addr().String()))
	err := s.httpSrv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections. Open sockets are closed when their
// request contexts end. It is safe to call concurrently with Serve.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) text(key, fallback string, data any) string {
	if s.catalog == nil {
		return fallback
	}
	return s.catalog.Text(key, fallback, data)
}
