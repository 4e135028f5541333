// Package engine provides the board topology, movement rules and move
// heuristics for four-colour Ludo.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Color identifies one of the four seats. The numeric order is the clockwise
// seating order around the board.
type Color int

const (
	Green Color = iota
	Yellow
	Blue
	Red
)

// NumColors is the number of seats on the board.
const NumColors = 4

// PiecesPerPlayer is the number of pieces each colour owns.
const PiecesPerPlayer = 4

// Colors lists every colour in seating order.
var Colors = [NumColors]Color{Green, Yellow, Blue, Red}

var colorNames = [NumColors]string{"green", "yellow", "blue", "red"}

// String returns the lowercase colour name used on the wire.
func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("color(%d)", int(c))
	}
	return colorNames[c]
}

// Valid reports whether c is one of the four colours.
func (c Color) Valid() bool { return c >= Green && c <= Red }

// ParseColor converts a wire name to a Color.
func ParseColor(s string) (Color, error) {
	for i, name := range colorNames {
		if name == s {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

// MarshalJSON encodes the colour as its name.
func (c Color) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid color %d", int(c))
	}
	return json.Marshal(colorNames[c])
}

// UnmarshalJSON accepts the colour name.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PieceState is the lifecycle stage of a piece.
type PieceState int

const (
	AtHome PieceState = iota
	OnBoard
	Finished
)

var pieceStateNames = [...]string{"AtHome", "OnBoard", "Finished"}

func (s PieceState) String() string {
	if s < AtHome || s > Finished {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return pieceStateNames[s]
}

// Wire encoding of positions.
const (
	WireHome        = -1
	WireStretchBase = 100
	WireFinish      = WireStretchBase + HomeStretchLength - 1 // 105
)

type positionKind uint8

const (
	kindHome positionKind = iota
	kindRing
	kindStretch
	kindFinished
)

// Position is where a piece stands. The zero value is the home yard.
//
// Ring cells are 1..RingSize. Stretch indices are 0..HomeStretchLength-2;
// the last stretch index is the finish slot and is represented as Finished.
type Position struct {
	kind  positionKind
	index uint8
}

// Home is the yard position.
var Home = Position{kind: kindHome}

// FinishPosition is the finish slot at the end of every home stretch.
var FinishPosition = Position{kind: kindFinished, index: HomeStretchLength - 1}

// Ring returns the position of a shared ring cell.
func Ring(cell int) Position {
	if cell < 1 || cell > RingSize {
		panic(fmt.Sprintf("engine: ring cell %d out of range", cell))
	}
	return Position{kind: kindRing, index: uint8(cell)}
}

// Stretch returns the position at the given home stretch index. Index
// HomeStretchLength-1 is the finish slot.
func Stretch(index int) Position {
	if index < 0 || index >= HomeStretchLength {
		panic(fmt.Sprintf("engine: stretch index %d out of range", index))
	}
	if index == HomeStretchLength-1 {
		return FinishPosition
	}
	return Position{kind: kindStretch, index: uint8(index)}
}

// IsHome reports whether the position is the home yard.
func (p Position) IsHome() bool { return p.kind == kindHome }

// IsFinished reports whether the position is the finish slot.
func (p Position) IsFinished() bool { return p.kind == kindFinished }

// OnRing reports whether the position is a shared ring cell.
func (p Position) OnRing() bool { return p.kind == kindRing }

// InStretch reports whether the position is inside a home stretch, the
// finish slot included.
func (p Position) InStretch() bool { return p.kind == kindStretch || p.kind == kindFinished }

// Cell returns the ring cell number. It is 0 off the ring.
func (p Position) Cell() int {
	if p.kind != kindRing {
		return 0
	}
	return int(p.index)
}

// StretchIndex returns the home stretch index, or -1 outside the stretch.
func (p Position) StretchIndex() int {
	if !p.InStretch() {
		return -1
	}
	return int(p.index)
}

// State returns the lifecycle state implied by the position.
func (p Position) State() PieceState {
	switch p.kind {
	case kindHome:
		return AtHome
	case kindFinished:
		return Finished
	default:
		return OnBoard
	}
}

// Wire returns the numeric wire form: -1, 1..52 or 100..105.
func (p Position) Wire() int {
	switch p.kind {
	case kindHome:
		return WireHome
	case kindRing:
		return int(p.index)
	default:
		return WireStretchBase + int(p.index)
	}
}

func (p Position) String() string {
	switch p.kind {
	case kindHome:
		return "home"
	case kindRing:
		return fmt.Sprintf("ring:%d", p.index)
	case kindStretch:
		return fmt.Sprintf("stretch:%d", p.index)
	default:
		return "finish"
	}
}

// ErrInvalidPosition is returned when a wire position is outside every domain.
var ErrInvalidPosition = errors.New("invalid position")

// PositionFromWire decodes a numeric wire position.
func PositionFromWire(v int) (Position, error) {
	switch {
	case v == WireHome:
		return Home, nil
	case v >= 1 && v <= RingSize:
		return Ring(v), nil
	case v >= WireStretchBase && v <= WireFinish:
		return Stretch(v - WireStretchBase), nil
	}
	return Home, fmt.Errorf("%w: %d", ErrInvalidPosition, v)
}

// MarshalJSON writes the wire number.
func (p Position) MarshalJSON() ([]byte, error) { return json.Marshal(p.Wire()) }

// UnmarshalJSON reads the wire number.
func (p *Position) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	pos, err := PositionFromWire(v)
	if err != nil {
		return err
	}
	*p = pos
	return nil
}

// PieceID is stable for the lifetime of a game: color*4 + slot.
type PieceID int

// MakePieceID returns the id of a colour's slot.
func MakePieceID(c Color, slot int) PieceID { return PieceID(int(c)*PiecesPerPlayer + slot) }

// Color returns the colour that owns the id.
func (id PieceID) Color() Color { return Color(int(id) / PiecesPerPlayer) }

// Slot returns the yard slot (0..3) of the id.
func (id PieceID) Slot() int { return int(id) % PiecesPerPlayer }

// Valid reports whether the id belongs to one of the 16 pieces.
func (id PieceID) Valid() bool { return id >= 0 && int(id) < NumColors*PiecesPerPlayer }

// Piece is one token on the board.
type Piece struct {
	ID       PieceID
	Color    Color
	Position Position
}

// State returns the lifecycle state of the piece.
func (p Piece) State() PieceState { return p.Position.State() }

type wirePiece struct {
	ID       PieceID `json:"id"`
	Color    Color   `json:"color"`
	State    string  `json:"state"`
	Position int     `json:"position"`
}

// MarshalJSON writes {id, color, state, position}.
func (p Piece) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePiece{
		ID:       p.ID,
		Color:    p.Color,
		State:    p.State().String(),
		Position: p.Position.Wire(),
	})
}

// UnmarshalJSON rejects pieces whose state and position disagree.
func (p *Piece) UnmarshalJSON(data []byte) error {
	var w wirePiece
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("piece: %w", err)
	}
	pos, err := PositionFromWire(w.Position)
	if err != nil {
		return fmt.Errorf("piece %d: %w", w.ID, err)
	}
	if w.State != "" && w.State != pos.State().String() {
		return fmt.Errorf("piece %d: state %s does not match position %d", w.ID, w.State, w.Position)
	}
	*p = Piece{ID: w.ID, Color: w.Color, Position: pos}
	return nil
}

// NewPieces returns the four pieces of a colour, all in the yard.
func NewPieces(c Color) [PiecesPerPlayer]Piece {
	var pieces [PiecesPerPlayer]Piece
	for slot := range pieces {
		pieces[slot] = Piece{ID: MakePieceID(c, slot), Color: c, Position: Home}
	}
	return pieces
}

// Player is one seat in a game.
type Player struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Color         Color                  `json:"color"`
	Pieces        [PiecesPerPlayer]Piece `json:"pieces"`
	InactiveTurns int                    `json:"inactiveTurns"`
	Removed       bool                   `json:"isRemoved"`
}

// Piece returns the player's piece with the given id.
func (pl *Player) Piece(id PieceID) (Piece, bool) {
	for _, p := range pl.Pieces {
		if p.ID == id {
			return p, true
		}
	}
	return Piece{}, false
}
