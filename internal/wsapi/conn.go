package wsapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chess-coach/internal/presenter"
	"github.com/park285/chess-coach/internal/trainer"
	"github.com/park285/chess-coach/pkg/coachdto"
)

type connection struct {
	srv     *Server
	conn    *websocket.Conn
	session *trainer.Session
	out     *presenter.Presenter
	logger  *zap.Logger
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  s.cfg.OriginPatterns,
	})
	if err != nil {
		s.logger.Warn("ws_accept_failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(s.cfg.ReadLimitBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, resumed, err := s.coach.Open(ctx, r.URL.Query().Get("session"))
	if err != nil {
		s.logger.Error("session_open_failed", zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "session unavailable")
		return
	}

	c := &connection{
		srv:     s,
		conn:    conn,
		session: session,
		logger:  s.logger.With(zap.String("session_id", session.ID)),
	}
	opts := []presenter.Option{presenter.WithLogger(c.logger)}
	if s.render != nil {
		opts = append(opts, presenter.WithBoardImages(s.render))
	}
	c.out = presenter.New(c.write, opts...)

	if err := c.greet(ctx, resumed); err != nil {
		c.logger.Debug("ws_greet_failed", zap.Error(err))
		return
	}

	go c.pingLoop(ctx, cancel)
	err = c.readLoop(ctx)
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		c.logger.Debug("ws_closed", zap.Int("status", int(status)))
	case errors.Is(err, context.Canceled):
		c.logger.Debug("ws_cancelled")
	default:
		c.logger.Info("ws_read_failed", zap.Error(err))
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (c *connection) greet(ctx context.Context, resumed bool) error {
	if !resumed {
		return c.out.State(ctx, c.session)
	}
	msg := c.srv.text("notice.resumed", "Session resumed.", map[string]any{
		"ID":    c.session.ID,
		"Moves": len(c.session.Game.History()),
	})
	return c.out.Notice(ctx, c.session, msg)
}

func (c *connection) readLoop(ctx context.Context) error {
	for {
		var frame coachdto.ClientFrame
		if err := wsjson.Read(ctx, c.conn, &frame); err != nil {
			return err
		}
		if err := c.handle(ctx, frame); err != nil {
			return err
		}
	}
}

// handle processes one client frame. Returned errors end the connection;
// domain problems are reported to the client as frames instead.
func (c *connection) handle(ctx context.Context, frame coachdto.ClientFrame) error {
	switch strings.ToLower(strings.TrimSpace(frame.Type)) {
	case coachdto.FrameMove:
		fb := c.srv.coach.Play(ctx, c.session, trainer.MoveInput{
			From:      frame.From,
			To:        frame.To,
			Promotion: frame.Promotion,
		})
		if fb.Kind != trainer.KindInvalid {
			c.save(ctx)
		}
		if err := c.out.Feedback(ctx, c.session, fb); err != nil {
			return err
		}
		if fb.Kind == trainer.KindInvalid {
			return nil
		}
		if msg, over := c.srv.coach.GameOver(c.session); over {
			return c.out.Notice(ctx, c.session, msg)
		}
		return nil

	case coachdto.FrameNewGame:
		msg, err := c.srv.coach.Reset(ctx, c.session)
		if err != nil {
			c.logger.Warn("session_reset_save_failed", zap.Error(err))
		}
		if strings.TrimSpace(msg) == "" {
			msg = c.srv.text("notice.new_game", "New game started.", map[string]any{"Side": c.session.CoachedSide.String()})
		}
		return c.out.Notice(ctx, c.session, msg)

	case coachdto.FrameScores:
		scores, err := c.srv.coach.PieceScores(ctx, c.session)
		if err != nil {
			c.logger.Warn("piece_scores_failed", zap.Error(err))
			return c.out.Error(ctx, "scores_unavailable", c.srv.text("notice.scores_unavailable", "Unable to score pieces", nil), true)
		}
		return c.out.Scores(ctx, c.session, scores)

	case coachdto.FrameState:
		return c.out.State(ctx, c.session)

	default:
		msg := c.srv.text("notice.unknown_frame", "Unknown request type.", map[string]any{"Type": frame.Type})
		return c.out.Error(ctx, "unknown_frame", msg, false)
	}
}

func (c *connection) save(ctx context.Context) {
	if err := c.srv.coach.Save(ctx, c.session); err != nil {
		c.logger.Warn("session_save_failed", zap.Error(err))
	}
}

func (c *connection) write(ctx context.Context, frame coachdto.ServerFrame) error {
	writeCtx, cancel := context.WithTimeout(ctx, c.srv.cfg.WriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, c.conn, frame)
}

// pingLoop drops the connection after two consecutive failed pings.
func (c *connection) pingLoop(ctx context.Context, cancel context.CancelFunc) {
	t := time.NewTicker(c.srv.cfg.PingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
			err := c.conn.Ping(pingCtx)
			pingCancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				c.logger.Info("ws_ping_failed", zap.Error(err))
				cancel()
				return
			}
		}
	}
}
