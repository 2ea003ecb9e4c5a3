package coachdto

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	FEN string `json:"fen"`
}

// EvaluateResponse is the success body of POST /evaluate. Eval is in
// centipawns from white's point of view; mates are reported as +/-30000.
type EvaluateResponse struct {
	Eval     int      `json:"eval"`
	BestMove string   `json:"bestMove"`
	PV       []string `json:"pv"`
	Depth    int      `json:"depth,omitempty"`
}
