package engine

import (
	"errors"
	"fmt"
	"slices"
)

// Dice bounds.
const (
	MinDie        = 1
	MaxDie        = 6
	LeaveHomeRoll = 6 // the only roll that brings a piece out of the yard
)

// ResolvePath returns the cells a piece passes through for a die value, in
// order, ending on its destination. An empty path means the piece cannot
// move. A path shorter than die (outside the yard) means the walk would
// overshoot the finish slot, which is illegal. The piece is not modified.
func ResolvePath(p Piece, die int) []Position {
	if die < MinDie || die > MaxDie {
		return nil
	}
	switch {
	case p.Position.IsFinished():
		return nil
	case p.Position.IsHome():
		if die != LeaveHomeRoll {
			return nil
		}
		return []Position{Ring(StartCell(p.Color))}
	}

	path := make([]Position, 0, die)
	cur := p.Position
	for step := 0; step < die; step++ {
		next, ok := advance(p.Color, cur)
		if !ok {
			break
		}
		path = append(path, next)
		cur = next
	}
	return path
}

// advance moves one pip forward for colour c. It fails only at the finish.
func advance(c Color, cur Position) (Position, bool) {
	switch {
	case cur.InStretch():
		i := cur.StretchIndex()
		if i >= HomeStretchLength-1 {
			return cur, false
		}
		return Stretch(i + 1), true
	case cur.Cell() == PreHomeCell(c):
		return Stretch(0), true
	default:
		return Ring(cur.Cell()%RingSize + 1), true
	}
}

// Legal reports whether the die moves the piece to a destination without
// overshooting the finish.
func Legal(p Piece, die int) bool {
	path := ResolvePath(p, die)
	if len(path) == 0 {
		return false
	}
	if p.Position.IsHome() {
		return true
	}
	return len(path) == die
}

// Destination returns where the piece lands, if the move is legal.
func Destination(p Piece, die int) (Position, bool) {
	if !Legal(p, die) {
		return Home, false
	}
	path := ResolvePath(p, die)
	return path[len(path)-1], true
}

// LegalMoves returns the player's pieces that can move for die, in slot
// order. A removed player has none.
func LegalMoves(pl Player, die int) []PieceID {
	if pl.Removed {
		return nil
	}
	var ids []PieceID
	for _, p := range pl.Pieces {
		if Legal(p, die) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// MoveOutcome describes a locally predicted move.
type MoveOutcome struct {
	Piece       PieceID     `json:"pieceId"`
	Path        []Position  `json:"path"`
	From        Position    `json:"from"`
	To          Position    `json:"to"`
	Interaction Interaction `json:"interaction"`
	Finished    bool        `json:"finished"`
}

// Move prediction errors.
var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrUnknownPiece = errors.New("unknown piece")
)

// ApplyMove predicts the board after intent on a copy of s. A captured
// piece goes back to its yard. The die is consumed but turn order is left
// alone: passing the turn is decided by the authoritative peer.
func ApplyMove(s Snapshot, intent MoveIntent) (Snapshot, MoveOutcome, error) {
	piece, _, ok := s.Piece(intent.PieceID)
	if !ok {
		return s, MoveOutcome{}, fmt.Errorf("%w: %d", ErrUnknownPiece, intent.PieceID)
	}
	if len(s.MovablePieces) > 0 && !slices.Contains(s.MovablePieces, intent.PieceID) {
		return s, MoveOutcome{}, ErrNotEligible
	}
	path := ResolvePath(piece, intent.DieValue)
	if !Legal(piece, intent.DieValue) {
		return s, MoveOutcome{Piece: piece.ID, Path: path, From: piece.Position}, fmt.Errorf(
			"%w: piece %d cannot move %d from %s", ErrIllegalMove, piece.ID, intent.DieValue, piece.Position)
	}
	dest := path[len(path)-1]

	out := MoveOutcome{
		Piece:       piece.ID,
		Path:        path,
		From:        piece.Position,
		To:          dest,
		Interaction: EvaluateInteraction(piece, dest, s),
		Finished:    dest.IsFinished(),
	}

	next := s.Clone()
	if out.Interaction.Captured != nil {
		next.setPosition(*out.Interaction.Captured, Home)
	}
	next.setPosition(piece.ID, dest)
	next.DiceValue = nil
	next.MovablePieces = nil
	return next, out, nil
}
