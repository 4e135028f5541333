package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/internal/positionid"
	"gonum.org/v1/gonum/floats"
)

// Engine bundles the heuristic tuning with a best-move cache.
type Engine struct {
	weights Weights
	cache   *MoveCache
}

// EngineOptions configures the engine
type EngineOptions struct {
	Weights   *Weights // nil = DefaultWeights
	CacheSize int      // 0 = DefaultCacheSize, negative = disabled
}

// NewEngine creates an engine with the given options
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{weights: DefaultWeights()}
	if opts.Weights != nil {
		e.weights = *opts.Weights
	}
	switch {
	case opts.CacheSize == 0:
		e.cache = NewMoveCache(DefaultCacheSize)
	case opts.CacheSize > 0:
		e.cache = NewMoveCache(uint32(opts.CacheSize))
	}
	return e
}

// Weights returns the tuning in use.
func (e *Engine) Weights() Weights { return e.weights }

// Cache returns the move cache (may be nil if disabled)
func (e *Engine) Cache() *MoveCache { return e.cache }

// Analysis ranks every candidate of the active player for the pending die.
type Analysis struct {
	Die      int          `json:"die"`
	Color    Color        `json:"color"`
	Moves    []ScoredMove `json:"moves"` // best first; ties keep eligible order
	NumLegal int          `json:"numLegal"`
	Best     PieceID      `json:"best"`
	Mean     float64      `json:"mean"` // mean score of the legal moves
}

// Analysis errors.
var (
	ErrNoActivePlayer = errors.New("no active player")
	ErrNoLegalMove    = errors.New("no legal move")
)

// candidates returns the active player and the ids to score: the snapshot's
// eligible set, or the derived legal moves when the peer sent none.
func candidates(s Snapshot) (*Player, int, []PieceID, error) {
	active, ok := s.ActivePlayer()
	if !ok {
		return nil, 0, nil, ErrNoActivePlayer
	}
	if s.DiceValue == nil {
		return nil, 0, nil, ErrNoDie
	}
	die := *s.DiceValue
	eligible := s.MovablePieces
	if len(eligible) == 0 {
		eligible = LegalMoves(*active, die)
	}
	if len(eligible) == 0 {
		return nil, 0, nil, fmt.Errorf("%w for %s with %d", ErrNoLegalMove, active.Color, die)
	}
	return active, die, eligible, nil
}

// Analyze scores and ranks every candidate move.
func (e *Engine) Analyze(s Snapshot) (*Analysis, error) {
	active, die, eligible, err := candidates(s)
	if err != nil {
		return nil, err
	}
	moves := ScoreMoves(e.weights, *active, s.Players, die, eligible)
	best, _ := BestOf(moves)

	a := &Analysis{Die: die, Color: active.Color, Best: best.Piece}
	var legal []float64
	for _, m := range moves {
		if m.Legal {
			legal = append(legal, m.Score)
		}
	}
	a.NumLegal = len(legal)
	if len(legal) > 0 {
		a.Mean = floats.Sum(legal) / float64(len(legal))
	}

	a.Moves = append([]ScoredMove(nil), moves...)
	sort.SliceStable(a.Moves, func(i, j int) bool { return a.Moves[i].Score > a.Moves[j].Score })
	return a, nil
}

// BestMove returns the piece the heuristic would move, consulting the cache.
func (e *Engine) BestMove(s Snapshot) (PieceID, error) {
	active, die, eligible, err := candidates(s)
	if err != nil {
		return -1, err
	}

	var key positionid.PositionKey
	ctx, cacheable := MakeMoveContext(active.Color, die, eligible)
	cacheable = cacheable && e.cache != nil
	if cacheable {
		key = positionid.MakePositionKey(BoardOf(s))
		ctx |= removedMask(s)
		if entry, ok := e.cache.Lookup(key, ctx); ok {
			return entry.Piece, nil
		}
	}

	best, _ := BestOf(ScoreMoves(e.weights, *active, s.Players, die, eligible))
	if cacheable {
		e.cache.Add(key, ctx, best.Piece, best.Score)
	}
	return best.Piece, nil
}

// removedMask marks removed colours in bits 16-19 of a move context.
func removedMask(s Snapshot) int32 {
	var m int32
	for _, pl := range s.Players {
		if pl.Removed {
			m |= 1 << (16 + int(pl.Color))
		}
	}
	return m
}

// BoardOf encodes the piece positions of s. Unseated colours are absent.
func BoardOf(s Snapshot) positionid.Board {
	var b positionid.Board
	for i := range b {
		b[i] = positionid.CodeAbsent
	}
	for _, p := range s.Pieces() {
		if p.ID.Valid() {
			b[p.ID] = positionCode(p.Position)
		}
	}
	return b
}

// PositionID returns the compact ID of the board in s.
func PositionID(s Snapshot) string {
	return positionid.PositionID(BoardOf(s))
}

func positionCode(p Position) uint8 {
	switch {
	case p.IsHome():
		return positionid.CodeHome
	case p.OnRing():
		return uint8(p.Cell())
	default:
		return uint8(positionid.CodeStretchFirst + p.StretchIndex())
	}
}

func positionFromCode(code uint8) Position {
	switch {
	case code == positionid.CodeHome:
		return Home
	case code <= positionid.CodeRingLast:
		return Ring(int(code))
	default:
		return Stretch(int(code) - positionid.CodeStretchFirst)
	}
}

// SnapshotFromBoard seats one player per present colour, named after it.
func SnapshotFromBoard(b positionid.Board) Snapshot {
	var s Snapshot
	for _, c := range Colors {
		if !positionid.Seated(b, int(c)) {
			continue
		}
		pl := Player{ID: c.String(), Name: c.String(), Color: c, Pieces: NewPieces(c)}
		for slot := range pl.Pieces {
			pl.Pieces[slot].Position = positionFromCode(b[MakePieceID(c, slot)])
		}
		s.Players = append(s.Players, pl)
	}
	s.Status = StatusPlaying
	return s
}

// SnapshotFromPositionID decodes a position ID into a snapshot.
func SnapshotFromPositionID(id string) (Snapshot, error) {
	b, err := positionid.BoardFromPositionID(id)
	if err != nil {
		return Snapshot{}, err
	}
	return SnapshotFromBoard(b), nil
}
