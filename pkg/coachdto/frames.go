package coachdto

import "time"

// Client frame types.
const (
	FrameMove    = "move"
	FrameNewGame = "new_game"
	FrameScores  = "scores"
	FrameState   = "state"
)

// Server frame types.
const (
	FrameFeedback = "feedback"
	FrameError    = "error"
)

// ClientFrame is one message from the board client.
type ClientFrame struct {
	Type      string `json:"type"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// ServerFrame is one message pushed to the board client. Exactly one of the
// payload fields is set, matching Type.
type ServerFrame struct {
	Type     string           `json:"type"`
	Feedback *FeedbackPayload `json:"feedback,omitempty"`
	State    *StatePayload    `json:"state,omitempty"`
	Scores   *ScoresPayload   `json:"scores,omitempty"`
	Error    *DomainError     `json:"error,omitempty"`
}

type MoveSummary struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Side      string `json:"side"`
	Piece     string `json:"piece"`
	Captured  string `json:"captured,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
}

type FeedbackPayload struct {
	Kind     string        `json:"kind"`
	Message  string        `json:"message"`
	Move     *MoveSummary  `json:"move,omitempty"`
	Score    *int          `json:"score,omitempty"`
	BestMove string        `json:"bestMove,omitempty"`
	PV       []string      `json:"pv,omitempty"`
	Intent   string        `json:"intent,omitempty"`
	Verdict  string        `json:"verdict,omitempty"`
	State    *StatePayload `json:"state,omitempty"`
}

type StatePayload struct {
	SessionID   string    `json:"sessionId"`
	FEN         string    `json:"fen"`
	Turn        string    `json:"turn"`
	CoachedSide string    `json:"coachedSide"`
	MovesUCI    []string  `json:"movesUci"`
	MovesSAN    []string  `json:"movesSan"`
	Pending     string    `json:"pendingSuggestion,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	OpeningCode string    `json:"openingCode,omitempty"`
	OpeningName string    `json:"openingName,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ImagePNG    string    `json:"imagePng,omitempty"`
}

// ScoresPayload maps origin squares to the best white-relative score reachable
// from that square.
type ScoresPayload struct {
	Scores   map[string]int `json:"scores"`
	ImagePNG string         `json:"imagePng,omitempty"`
}
