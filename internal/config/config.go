// Package config loads settings for the coach and evaluation servers from the
// environment, optionally layered over a YAML file named by COACH_CONFIG.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/park285/chess-coach/internal/rules"
)

type AppConfig struct {
	// coach-server
	ListenAddr         string   `yaml:"listen_addr"`
	EvalServerURL      string   `yaml:"eval_server_url"`
	EvalTimeoutMS      int      `yaml:"eval_timeout_ms"`
	EvalRetry          int      `yaml:"eval_retry"`
	RedisURL           string   `yaml:"redis_url"`
	SessionTTLSec      int      `yaml:"session_ttl_sec"`
	CoachSide          string   `yaml:"coach_side"`
	BoardImage         bool     `yaml:"board_image"`
	PieceScoreMaxMoves int      `yaml:"piece_score_max_moves"`
	MessagesDir        string   `yaml:"messages_dir"`
	AllowedOrigins     []string `yaml:"allowed_origins"`

	// eval-server
	StockfishPath    string `yaml:"stockfish_path"`
	EvalListenAddr   string `yaml:"eval_listen_addr"`
	EngineDepth      int    `yaml:"engine_depth"`
	EngineMoveTimeMS int    `yaml:"engine_movetime_ms"`
	EngineThreads    int    `yaml:"engine_threads"`
	EngineHashMB     int    `yaml:"engine_hash_mb"`
	EnginePoolSize   int    `yaml:"engine_pool_size"`
}

func defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:         ":8080",
		EvalTimeoutMS:      10000,
		EvalRetry:          1,
		SessionTTLSec:      3600,
		CoachSide:          "white",
		BoardImage:         true,
		PieceScoreMaxMoves: 64,
		EvalListenAddr:     ":3001",
		EngineDepth:        12,
		EngineThreads:      1,
		EngineHashMB:       16,
	}
}

// Load builds the configuration: defaults, then the COACH_CONFIG file, then
// environment variables. Malformed numeric or boolean values are ignored.
func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("COACH_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	envString(&cfg.ListenAddr, "COACH_LISTEN_ADDR")
	envString(&cfg.EvalServerURL, "EVAL_SERVER_URL")
	envInt(&cfg.EvalTimeoutMS, "EVAL_TIMEOUT_MS", 1)
	envInt(&cfg.EvalRetry, "EVAL_RETRY", 1)
	envString(&cfg.RedisURL, "REDIS_URL")
	envInt(&cfg.SessionTTLSec, "SESSION_TTL_SEC", 1)
	envString(&cfg.CoachSide, "COACH_SIDE")
	if v := strings.TrimSpace(os.Getenv("BOARD_IMAGE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.BoardImage = b
		}
	}
	envInt(&cfg.PieceScoreMaxMoves, "PIECE_SCORE_MAX_MOVES", 1)
	envString(&cfg.MessagesDir, "MESSAGES_DIR")
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}

	envString(&cfg.StockfishPath, "STOCKFISH_PATH")
	envString(&cfg.EvalListenAddr, "EVAL_LISTEN_ADDR")
	envInt(&cfg.EngineDepth, "ENGINE_DEPTH", 0)
	envInt(&cfg.EngineMoveTimeMS, "ENGINE_MOVETIME_MS", 0)
	envInt(&cfg.EngineThreads, "ENGINE_THREADS", 1)
	envInt(&cfg.EngineHashMB, "ENGINE_HASH_MB", 1)
	envInt(&cfg.EnginePoolSize, "ENGINE_POOL_SIZE", 0)

	return cfg, nil
}

// ValidateCoach checks the settings cmd/coach-server needs.
func (c *AppConfig) ValidateCoach() error {
	if strings.TrimSpace(c.EvalServerURL) == "" {
		return errors.New("EVAL_SERVER_URL is required")
	}
	if _, err := rules.ParseSide(c.CoachSide); err != nil {
		return fmt.Errorf("COACH_SIDE: %w", err)
	}
	if c.EvalTimeoutMS <= 0 {
		return errors.New("EVAL_TIMEOUT_MS must be positive")
	}
	return nil
}

// ValidateEval checks the settings cmd/eval-server needs.
func (c *AppConfig) ValidateEval() error {
	if strings.TrimSpace(c.StockfishPath) == "" {
		return errors.New("STOCKFISH_PATH is required")
	}
	if c.EngineDepth <= 0 && c.EngineMoveTimeMS <= 0 {
		return errors.New("one of ENGINE_DEPTH or ENGINE_MOVETIME_MS must be positive")
	}
	return nil
}

func (c *AppConfig) EvalTimeout() time.Duration {
	return time.Duration(c.EvalTimeoutMS) * time.Millisecond
}

func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

// Side returns the coached side, white when unparseable.
func (c *AppConfig) Side() rules.Side {
	side, err := rules.ParseSide(c.CoachSide)
	if err != nil {
		return rules.White
	}
	return side
}

func envString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string, minimum int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n >= minimum {
		*dst = n
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
