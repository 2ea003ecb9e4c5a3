// Package sessionstore keeps live trainer sessions between connections.
// Snapshots expire with the session; finished games are not archived.
package sessionstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrInvalidSnapshot = errors.New("invalid session snapshot")

// Snapshot is the minimum needed to rebuild a session: the start position,
// the moves played and the pending suggestion.
type Snapshot struct {
	ID          string    `json:"id"`
	StartFEN    string    `json:"startFen"`
	Moves       []string  `json:"moves"`
	Pending     string    `json:"pending,omitempty"`
	CoachedSide string    `json:"coachedSide"`
	StartedAt   time.Time `json:"startedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Snapshot) validate() error {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSnapshot
	}
	return nil
}

// Store persists snapshots. Load returns nil, nil for an unknown or expired id.
type Store interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
	Close() error
}
