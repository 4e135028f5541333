package engine

import (
	"errors"
	"fmt"
	"slices"
)

// GameStatus is the lifecycle of a session as reported by the peer.
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

// Snapshot is the full authoritative game state broadcast after each action.
type Snapshot struct {
	Players            []Player   `json:"players"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	DiceValue          *int       `json:"diceValue"`
	MovablePieces      []PieceID  `json:"movablePieces"`
	Status             GameStatus `json:"status,omitempty"`
	Winner             string     `json:"winner,omitempty"`
}

// NewSnapshot seats the players with every piece in its yard.
func NewSnapshot(players ...Player) Snapshot {
	s := Snapshot{Status: StatusWaiting}
	for _, p := range players {
		p.Pieces = NewPieces(p.Color)
		s.Players = append(s.Players, p)
	}
	return s
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Players = slices.Clone(s.Players)
	c.MovablePieces = slices.Clone(s.MovablePieces)
	if s.DiceValue != nil {
		v := *s.DiceValue
		c.DiceValue = &v
	}
	return c
}

// ActivePlayer returns the player whose turn it is.
func (s Snapshot) ActivePlayer() (*Player, bool) {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil, false
	}
	return &s.Players[s.CurrentPlayerIndex], true
}

// PlayerByID returns the index of the player with the given session id.
func (s Snapshot) PlayerByID(id string) (int, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Piece finds a piece anywhere on the board.
func (s Snapshot) Piece(id PieceID) (Piece, int, bool) {
	for i := range s.Players {
		if p, ok := s.Players[i].Piece(id); ok {
			return p, i, true
		}
	}
	return Piece{}, -1, false
}

func (s *Snapshot) setPosition(id PieceID, pos Position) {
	for i := range s.Players {
		for j := range s.Players[i].Pieces {
			if s.Players[i].Pieces[j].ID == id {
				s.Players[i].Pieces[j].Position = pos
				return
			}
		}
	}
}

// Pieces returns every seated piece in seating order.
func (s Snapshot) Pieces() []Piece {
	out := make([]Piece, 0, len(s.Players)*PiecesPerPlayer)
	for _, pl := range s.Players {
		out = append(out, pl.Pieces[:]...)
	}
	return out
}

// Snapshot invariant violations.
var (
	ErrBadPieceSet     = errors.New("player pieces do not match colour")
	ErrMovableNoDie    = errors.New("movable pieces without a pending die")
	ErrMovableNotLegal = errors.New("movable piece has no legal move")
	ErrBadTurn         = errors.New("current player index out of range")
)

// Validate checks the snapshot invariants and returns every breach joined.
func (s Snapshot) Validate() error {
	var errs []error
	seen := make(map[Color]bool)
	for _, pl := range s.Players {
		if !pl.Color.Valid() || seen[pl.Color] {
			errs = append(errs, fmt.Errorf("player %s: %w", pl.ID, ErrBadPieceSet))
			continue
		}
		seen[pl.Color] = true
		for slot, p := range pl.Pieces {
			if p.ID != MakePieceID(pl.Color, slot) || p.Color != pl.Color {
				errs = append(errs, fmt.Errorf("player %s piece %d: %w", pl.ID, p.ID, ErrBadPieceSet))
			}
		}
	}

	if len(s.MovablePieces) > 0 {
		active, ok := s.ActivePlayer()
		switch {
		case !ok:
			errs = append(errs, ErrBadTurn)
		case s.DiceValue == nil:
			errs = append(errs, ErrMovableNoDie)
		default:
			for _, id := range s.MovablePieces {
				p, owned := active.Piece(id)
				if !owned || !Legal(p, *s.DiceValue) {
					errs = append(errs, fmt.Errorf("piece %d: %w", id, ErrMovableNotLegal))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// MoveIntent is a request to move one piece by the die in effect.
type MoveIntent struct {
	PieceID  PieceID `json:"pieceId"`
	DieValue int     `json:"dieValue"`
}

// Move intent errors.
var (
	ErrNotYourTurn  = errors.New("not the acting player's turn")
	ErrNoDie        = errors.New("no die value pending")
	ErrDieMismatch  = errors.New("die value does not match snapshot")
	ErrNotYourPiece = errors.New("piece does not belong to the acting player")
	ErrNotEligible  = errors.New("piece is not in the eligible-move set")
)

// ValidateIntent checks that actorID may submit intent against s.
func ValidateIntent(s Snapshot, actorID string, intent MoveIntent) error {
	active, ok := s.ActivePlayer()
	if !ok || active.ID != actorID {
		return ErrNotYourTurn
	}
	if s.DiceValue == nil {
		return ErrNoDie
	}
	if *s.DiceValue != intent.DieValue {
		return fmt.Errorf("%w: have %d, got %d", ErrDieMismatch, *s.DiceValue, intent.DieValue)
	}
	if _, owned := active.Piece(intent.PieceID); !owned {
		return ErrNotYourPiece
	}
	if !slices.Contains(s.MovablePieces, intent.PieceID) {
		return ErrNotEligible
	}
	return nil
}
