package trainer

// EvaluationText grades a white-relative score for display next to the
// board. The first two full moves are never graded.
func EvaluationText(score *int, moveNumber int) string {
	if score == nil {
		return "Evaluation unavailable"
	}
	if moveNumber < 3 {
		return "Game just started"
	}
	switch cp := *score; {
	case cp > 100:
		return "You are clearly ahead!"
	case cp > 20:
		return "Slight advantage"
	case cp > -20:
		return "It’s even"
	case cp > -100:
		return "You are slightly behind"
	default:
		return "You are in trouble"
	}
}
