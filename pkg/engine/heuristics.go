package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Weights are the additive terms of the move heuristic.
type Weights struct {
	Finish        float64 `json:"finish"`
	LeaveHome     float64 `json:"leave_home"`
	Capture       float64 `json:"capture"`
	SafeCell      float64 `json:"safe_cell"`
	FormBlockade  float64 `json:"form_blockade"`
	BreakBlockade float64 `json:"break_blockade"` // applied as a penalty
	Threatened    float64 `json:"threatened"`     // applied as a penalty
	Hunting       float64 `json:"hunting"`
	PerPip        float64 `json:"per_pip"`
	TravelBonus   float64 `json:"travel_bonus"` // per pip already travelled
}

// DefaultWeights returns the standard tuning.
func DefaultWeights() Weights {
	return Weights{
		Finish:        80,
		LeaveHome:     60,
		Capture:       100,
		SafeCell:      40,
		FormBlockade:  55,
		BreakBlockade: 20,
		Threatened:    35,
		Hunting:       15,
		PerPip:        1,
		TravelBonus:   0.1,
	}
}

// ScoredMove is one candidate with its score and the terms that produced it.
type ScoredMove struct {
	Piece       PieceID     `json:"pieceId"`
	Score       float64     `json:"score"`
	Legal       bool        `json:"legal"`
	Destination Position    `json:"destination"`
	Interaction Interaction `json:"interaction"`
	Threatened  bool        `json:"threatened"`
	Hunting     bool        `json:"hunting"`
}

// ScoreMoves scores every eligible piece of active for die, in input order.
// Ids that do not name one of active's pieces, or that cannot move, score
// negative infinity.
func ScoreMoves(w Weights, active Player, all []Player, die int, eligible []PieceID) []ScoredMove {
	board := Snapshot{Players: all}
	moves := make([]ScoredMove, len(eligible))
	for i, id := range eligible {
		moves[i] = ScoredMove{Piece: id, Score: math.Inf(-1)}
		piece, ok := active.Piece(id)
		if !ok {
			continue
		}
		dest, ok := Destination(piece, die)
		if !ok {
			continue
		}
		moves[i] = scoreMove(w, piece, dest, die, board)
	}
	return moves
}

func scoreMove(w Weights, piece Piece, dest Position, die int, board Snapshot) ScoredMove {
	inter := EvaluateInteraction(piece, dest, board)
	m := ScoredMove{Piece: piece.ID, Legal: true, Destination: dest, Interaction: inter}

	if dest.IsFinished() {
		m.Score += w.Finish
	}
	if piece.Position.IsHome() {
		m.Score += w.LeaveHome
	}
	if inter.Captured != nil {
		m.Score += w.Capture
	}
	if dest.OnRing() && IsSafeCell(dest.Cell()) {
		m.Score += w.SafeCell
	}
	if inter.FormsBlockade {
		m.Score += w.FormBlockade
	}
	if inter.BreaksBlockade {
		m.Score -= w.BreakBlockade
	}
	if !IsSafe(dest) && threatened(piece.Color, dest, board, inter.Captured) {
		m.Threatened = true
		m.Score -= w.Threatened
	}
	if dest.OnRing() && hunting(piece, dest, board) {
		m.Hunting = true
		m.Score += w.Hunting
	}
	if !piece.Position.IsHome() {
		m.Score += w.PerPip*float64(die) + w.TravelBonus*float64(Progress(piece.Color, piece.Position))
	}
	return m
}

// threatened reports whether any opposing piece could land on dest with a
// single roll. The piece being captured by this move is ignored.
func threatened(c Color, dest Position, board Snapshot, captured *PieceID) bool {
	for _, pl := range board.Players {
		if pl.Color == c || pl.Removed {
			continue
		}
		for _, op := range pl.Pieces {
			if captured != nil && op.ID == *captured {
				continue
			}
			if !op.Position.OnRing() {
				continue
			}
			for die := MinDie; die <= MaxDie; die++ {
				if to, ok := Destination(op, die); ok && to == dest {
					return true
				}
			}
		}
	}
	return false
}

// hunting reports whether, standing on dest, the piece could capture an
// opposing piece with its next roll. Removed players are ignored.
func hunting(piece Piece, dest Position, board Snapshot) bool {
	from := Piece{ID: piece.ID, Color: piece.Color, Position: dest}
	for die := MinDie; die <= MaxDie; die++ {
		to, ok := Destination(from, die)
		if !ok || IsSafe(to) {
			continue
		}
		if _, ok := opponentAt(board, piece.Color, to); ok {
			return true
		}
	}
	return false
}

// BestOf picks the first move with the highest score. If no move scores
// positively the first candidate wins.
func BestOf(moves []ScoredMove) (ScoredMove, bool) {
	if len(moves) == 0 {
		return ScoredMove{}, false
	}
	scores := make([]float64, len(moves))
	for i, m := range moves {
		scores[i] = m.Score
	}
	best := floats.MaxIdx(scores)
	if !(scores[best] > 0) {
		return moves[0], true
	}
	return moves[best], true
}

// SelectBestMove returns the eligible piece with the highest heuristic
// score for die using DefaultWeights. Ties go to the earliest id in
// eligible. It returns -1 when eligible is empty.
func SelectBestMove(active Player, all []Player, die int, eligible []PieceID) PieceID {
	return SelectBestMoveWeighted(DefaultWeights(), active, all, die, eligible)
}

// SelectBestMoveWeighted is SelectBestMove with explicit weights.
func SelectBestMoveWeighted(w Weights, active Player, all []Player, die int, eligible []PieceID) PieceID {
	best, ok := BestOf(ScoreMoves(w, active, all, die, eligible))
	if !ok {
		return -1
	}
	return best.Piece
}
