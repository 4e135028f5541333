package engine

// Interaction is the predicted side effect of landing on a destination.
// It is advisory: the peer's snapshot decides what actually happened.
type Interaction struct {
	Captured       *PieceID `json:"captured,omitempty"`
	FormsBlockade  bool     `json:"formsBlockade"`
	BreaksBlockade bool     `json:"breaksBlockade"`
}

// EvaluateInteraction predicts capture and blockade effects of moving piece
// to dest on board s. Only unsafe ring cells can capture; the first opposing
// piece on dest in seating order is the one captured. Pieces of removed
// players are out of play and never captured.
func EvaluateInteraction(piece Piece, dest Position, s Snapshot) Interaction {
	var out Interaction

	if dest.OnRing() && !IsSafeCell(dest.Cell()) {
		if p, ok := opponentAt(s, piece.Color, dest); ok {
			id := p.ID
			out.Captured = &id
		}
	}

	if dest.OnRing() {
		// the mover plus at least one other own piece already on dest
		if countOwn(s, piece, dest) >= 1 {
			out.FormsBlockade = true
		}
	}
	if piece.Position.OnRing() && countOwn(s, piece, piece.Position) >= 1 {
		out.BreaksBlockade = true
	}
	return out
}

// countOwn counts piece's colour-mates, excluding piece itself, at pos.
func countOwn(s Snapshot, piece Piece, pos Position) int {
	n := 0
	for _, p := range s.Pieces() {
		if p.Color == piece.Color && p.ID != piece.ID && p.Position == pos {
			n++
		}
	}
	return n
}

// IsBlockade reports whether two or more pieces of one colour share a ring
// cell.
func IsBlockade(s Snapshot, cell int) bool {
	counts := make(map[Color]int)
	for _, p := range s.Pieces() {
		if p.Position.OnRing() && p.Position.Cell() == cell {
			counts[p.Color]++
			if counts[p.Color] >= 2 {
				return true
			}
		}
	}
	return false
}

// opponentAt returns the first piece of a seated, not removed opponent of c
// standing on pos.
func opponentAt(s Snapshot, c Color, pos Position) (Piece, bool) {
	for _, pl := range s.Players {
		if pl.Color == c || pl.Removed {
			continue
		}
		for _, p := range pl.Pieces {
			if p.Position == pos {
				return p, true
			}
		}
	}
	return Piece{}, false
}
