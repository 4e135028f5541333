// Package api provides the HTTP/JSON and WebSocket analysis service for the
// Ludo engine.
package api

import "github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"

// ============================================================================
// Request Types
// ============================================================================

// BoardRequest names the board a request is about, either as a full
// snapshot or as a position ID plus the colour to move.
type BoardRequest struct {
	Snapshot *engine.Snapshot `json:"snapshot,omitempty"` // Full board snapshot
	Position string           `json:"position,omitempty"` // Position ID (16 chars)
	Turn     string           `json:"turn,omitempty"`     // Colour to move with a position ID (default green)
	Die      int              `json:"die,omitempty"`      // Die value, overrides the snapshot's
}

// PathRequest asks for the path of a single piece.
type PathRequest struct {
	Color    string `json:"color"`    // Owning colour
	Position int    `json:"position"` // Wire position: -1, 1..52, 100..105
	Die      int    `json:"die"`      // Die value 1-6
}

// InteractionRequest asks what moving one piece would do to the board.
type InteractionRequest struct {
	BoardRequest
	PieceID engine.PieceID `json:"piece_id"` // Piece to move
}

// MoveRequest asks for the ranked candidate moves of the player to move.
type MoveRequest struct {
	BoardRequest
	NumMoves int `json:"num_moves,omitempty"` // Max moves to return (default all)
}

// TutorMoveRequest asks for a review of a played move.
type TutorMoveRequest struct {
	BoardRequest
	Played engine.PieceID `json:"played"` // Piece that was moved
}

// ============================================================================
// Response Types
// ============================================================================

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`          // Human readable message
	Code  string `json:"code,omitempty"` // Machine readable code
}

// CacheStats reports the engine's best-move cache.
type CacheStats struct {
	Lookups uint64  `json:"lookups"`
	Hits    uint64  `json:"hits"`
	Adds    uint64  `json:"adds"`
	HitRate float64 `json:"hit_rate"` // Percent
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string      `json:"status"`          // "ok"
	Version string      `json:"version"`         // Server version
	Ready   bool        `json:"ready"`           // Engine available
	Pool    *PoolStats  `json:"pool,omitempty"`  // Worker pool stats
	Cache   *CacheStats `json:"cache,omitempty"` // Move cache stats
}

// PathResponse is the resolved path of one piece.
type PathResponse struct {
	Path        []int          `json:"path"`                  // Wire positions passed through
	Legal       bool           `json:"legal"`                 // False for an empty or cut short path
	Destination *int           `json:"destination,omitempty"` // Landing position when legal
	State       string         `json:"state"`                 // Lifecycle after the move
	Coords      []engine.Coord `json:"coords"`                // Grid cells for animation
}

// InteractionResponse is the predicted outcome of one move.
type InteractionResponse struct {
	PieceID        engine.PieceID  `json:"piece_id"`
	Destination    int             `json:"destination"`        // Wire position
	Captured       *engine.PieceID `json:"captured,omitempty"` // Opponent sent home
	FormsBlockade  bool            `json:"forms_blockade"`
	BreaksBlockade bool            `json:"breaks_blockade"`
	Safe           bool            `json:"safe"` // Destination cannot be captured on
}

// MoveResponse is one ranked candidate.
type MoveResponse struct {
	PieceID        engine.PieceID  `json:"piece_id"`
	Score          float64         `json:"score"`
	From           int             `json:"from"` // Wire position before the move
	To             int             `json:"to"`   // Wire position after the move
	Captured       *engine.PieceID `json:"captured,omitempty"`
	FormsBlockade  bool            `json:"forms_blockade,omitempty"`
	BreaksBlockade bool            `json:"breaks_blockade,omitempty"`
	Threatened     bool            `json:"threatened,omitempty"`
	Hunting        bool            `json:"hunting,omitempty"`
}

// MovesResponse lists the ranked candidates for a board and die.
type MovesResponse struct {
	Moves    []MoveResponse `json:"moves"`     // Best first
	NumLegal int            `json:"num_legal"` // Number of legal candidates
	Best     engine.PieceID `json:"best"`      // Piece the heuristic moves
	Mean     float64        `json:"mean"`      // Mean score of the legal candidates
	Die      int            `json:"die"`
	Color    string         `json:"color"`    // Colour to move
	Position string         `json:"position"` // Position ID of the board
}

// TutorMoveResponse is the skill review of a played move.
type TutorMoveResponse struct {
	Skill       string         `json:"skill"`       // "none", "doubtful", "bad", "very_bad"
	SkillAbbr   string         `json:"skill_abbr"`  // "", "?!", "?", "??"
	ScoreLoss   float64        `json:"score_loss"`  // Best score minus played score
	Played      engine.PieceID `json:"played"`
	PlayedScore float64        `json:"played_score"`
	Best        engine.PieceID `json:"best"`
	BestScore   float64        `json:"best_score"`
	IsForced    bool           `json:"is_forced"`  // True if only one legal move
	TopMoves    []MoveResponse `json:"top_moves"`  // Up to three best moves for context
	Suggestion  string         `json:"suggestion"` // Improvement suggestion
}

// ============================================================================
// Helper Functions
// ============================================================================

func skillKey(s engine.SkillType) string {
	switch s {
	case engine.SkillVeryBad:
		return "very_bad"
	case engine.SkillBad:
		return "bad"
	case engine.SkillDoubtful:
		return "doubtful"
	default:
		return "none"
	}
}

// MoveToResponse converts a scored candidate of the given board.
func MoveToResponse(s engine.Snapshot, m engine.ScoredMove) MoveResponse {
	resp := MoveResponse{
		PieceID:        m.Piece,
		Score:          m.Score,
		To:             m.Destination.Wire(),
		Captured:       m.Interaction.Captured,
		FormsBlockade:  m.Interaction.FormsBlockade,
		BreaksBlockade: m.Interaction.BreaksBlockade,
		Threatened:     m.Threatened,
		Hunting:        m.Hunting,
	}
	if p, _, ok := s.Piece(m.Piece); ok {
		resp.From = p.Position.Wire()
	}
	return resp
}
