package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Handlers holds the HTTP handlers and engine reference.
type Handlers struct {
	engine  *engine.Engine
	version string
	pool    *WorkerPool
	log     zerolog.Logger

	wsRate  rate.Limit
	wsBurst int
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(e *engine.Engine, version string) *Handlers {
	return NewHandlersWithPool(e, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(e *engine.Engine, version string, pool *WorkerPool) *Handlers {
	return &Handlers{
		engine:  e,
		version: version,
		pool:    pool,
		log:     zerolog.Nop(),
		wsRate:  20,
		wsBurst: 40,
	}
}

// WithLogger sets the logger used for request and connection logs.
func (h *Handlers) WithLogger(l zerolog.Logger) *Handlers {
	h.log = l
	return h
}

// WithRateLimit sets the per-connection WebSocket message rate.
func (h *Handlers) WithRateLimit(perSecond float64, burst int) *Handlers {
	h.wsRate = rate.Limit(perSecond)
	h.wsBurst = burst
	return h
}

// apiError is a failed request: an HTTP status plus the ErrorResponse body.
type apiError struct {
	status int
	msg    string
	code   string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(code, format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...), code: code}
}

func unprocessable(code string, err error) *apiError {
	return &apiError{status: http.StatusUnprocessableEntity, msg: err.Error(), code: code}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// serveJSON decodes a request of type Req, runs fn in a pool slot and
// writes its result.
func serveJSON[Req any, Resp any](h *Handlers, fn func(*Req) (*Resp, *apiError)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.pool != nil {
			if err := h.pool.Acquire(r.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
				return
			}
			defer h.pool.Release()
		}

		var req Req
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
			return
		}

		resp, apiErr := fn(&req)
		if apiErr != nil {
			writeError(w, apiErr.status, apiErr.msg, apiErr.code)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// parseDie checks a die value from a request.
func parseDie(die int) (int, *apiError) {
	if die < engine.MinDie || die > engine.MaxDie {
		return 0, badRequest("INVALID_DIE", "die must be %d-%d", engine.MinDie, engine.MaxDie)
	}
	return die, nil
}

// resolveBoard builds the snapshot a request refers to.
func resolveBoard(req BoardRequest) (engine.Snapshot, *apiError) {
	var s engine.Snapshot
	switch {
	case req.Snapshot != nil:
		s = req.Snapshot.Clone()
	case req.Position != "":
		var err error
		s, err = engine.SnapshotFromPositionID(req.Position)
		if err != nil {
			return s, badRequest("INVALID_POSITION", "invalid position ID: %v", err)
		}
		if req.Turn != "" {
			c, err := engine.ParseColor(req.Turn)
			if err != nil {
				return s, badRequest("INVALID_COLOR", "%v", err)
			}
			idx := -1
			for i, pl := range s.Players {
				if pl.Color == c {
					idx = i
				}
			}
			if idx < 0 {
				return s, badRequest("INVALID_COLOR", "%s is not seated in %s", c, req.Position)
			}
			s.CurrentPlayerIndex = idx
		}
	default:
		return s, badRequest("MISSING_BOARD", "snapshot or position is required")
	}

	if req.Die != 0 {
		die, apiErr := parseDie(req.Die)
		if apiErr != nil {
			return s, apiErr
		}
		if s.DiceValue == nil || *s.DiceValue != die {
			s.MovablePieces = nil
		}
		s.DiceValue = &die
	}

	if err := s.Validate(); err != nil {
		return s, badRequest("INVALID_SNAPSHOT", "%v", err)
	}
	return s, nil
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.engine != nil,
	}

	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	if h.engine != nil && h.engine.Cache() != nil {
		c := h.engine.Cache()
		lookups, hits, adds := c.Stats()
		resp.Cache = &CacheStats{Lookups: lookups, Hits: hits, Adds: adds, HitRate: c.HitRate()}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Path handles POST /api/path
func (h *Handlers) Path(w http.ResponseWriter, r *http.Request) {
	serveJSON(h, h.path)(w, r)
}

// Interaction handles POST /api/interaction
func (h *Handlers) Interaction(w http.ResponseWriter, r *http.Request) {
	serveJSON(h, h.interaction)(w, r)
}

// Move handles POST /api/move
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	serveJSON(h, h.moves)(w, r)
}

// HandleTutorMove handles POST /api/tutor/move
func (h *Handlers) HandleTutorMove(w http.ResponseWriter, r *http.Request) {
	serveJSON(h, h.tutorMove)(w, r)
}

func (h *Handlers) path(req *PathRequest) (*PathResponse, *apiError) {
	c, err := engine.ParseColor(req.Color)
	if err != nil {
		return nil, badRequest("INVALID_COLOR", "%v", err)
	}
	pos, err := engine.PositionFromWire(req.Position)
	if err != nil {
		return nil, badRequest("INVALID_POSITION", "%v", err)
	}
	die, apiErr := parseDie(req.Die)
	if apiErr != nil {
		return nil, apiErr
	}

	piece := engine.Piece{ID: engine.MakePieceID(c, 0), Color: c, Position: pos}
	path := engine.ResolvePath(piece, die)
	resp := &PathResponse{
		Path:   make([]int, len(path)),
		Legal:  engine.Legal(piece, die),
		State:  pos.State().String(),
		Coords: make([]engine.Coord, len(path)),
	}
	for i, p := range path {
		resp.Path[i] = p.Wire()
		resp.Coords[i] = engine.PieceCoord(engine.Piece{ID: piece.ID, Color: c, Position: p})
	}
	if resp.Legal {
		dest := path[len(path)-1]
		wire := dest.Wire()
		resp.Destination = &wire
		resp.State = dest.State().String()
	}
	return resp, nil
}

func (h *Handlers) interaction(req *InteractionRequest) (*InteractionResponse, *apiError) {
	s, apiErr := resolveBoard(req.BoardRequest)
	if apiErr != nil {
		return nil, apiErr
	}
	if s.DiceValue == nil {
		return nil, badRequest("INVALID_DIE", "die is required")
	}
	piece, _, ok := s.Piece(req.PieceID)
	if !ok {
		return nil, badRequest("UNKNOWN_PIECE", "piece %d is not on the board", req.PieceID)
	}
	dest, ok := engine.Destination(piece, *s.DiceValue)
	if !ok {
		return nil, unprocessable("ILLEGAL_MOVE", fmt.Errorf("%w: piece %d with %d", engine.ErrIllegalMove, piece.ID, *s.DiceValue))
	}

	in := engine.EvaluateInteraction(piece, dest, s)
	return &InteractionResponse{
		PieceID:        piece.ID,
		Destination:    dest.Wire(),
		Captured:       in.Captured,
		FormsBlockade:  in.FormsBlockade,
		BreaksBlockade: in.BreaksBlockade,
		Safe:           engine.IsSafe(dest),
	}, nil
}

// analysisError maps engine errors to API errors.
func analysisError(err error) *apiError {
	switch {
	case errors.Is(err, engine.ErrNoDie):
		return badRequest("INVALID_DIE", "die is required")
	case errors.Is(err, engine.ErrNoActivePlayer):
		return badRequest("INVALID_SNAPSHOT", "%v", err)
	case errors.Is(err, engine.ErrNoLegalMove):
		return unprocessable("NO_LEGAL_MOVE", err)
	case errors.Is(err, engine.ErrIllegalMove):
		return unprocessable("ILLEGAL_MOVE", err)
	default:
		return &apiError{status: http.StatusInternalServerError, msg: err.Error(), code: "ANALYSIS_ERROR"}
	}
}

func (h *Handlers) moves(req *MoveRequest) (*MovesResponse, *apiError) {
	s, apiErr := resolveBoard(req.BoardRequest)
	if apiErr != nil {
		return nil, apiErr
	}
	analysis, err := h.engine.Analyze(s)
	if err != nil {
		return nil, analysisError(err)
	}

	numMoves := req.NumMoves
	if numMoves <= 0 || numMoves > analysis.NumLegal {
		numMoves = analysis.NumLegal
	}

	return &MovesResponse{
		Moves:    legalMoves(s, analysis, numMoves),
		NumLegal: analysis.NumLegal,
		Best:     analysis.Best,
		Mean:     analysis.Mean,
		Die:      analysis.Die,
		Color:    analysis.Color.String(),
		Position: engine.PositionID(s),
	}, nil
}

// legalMoves converts up to n legal candidates, best first. Illegal
// candidates score negative infinity and are left out.
func legalMoves(s engine.Snapshot, a *engine.Analysis, n int) []MoveResponse {
	moves := make([]MoveResponse, 0, n)
	for _, m := range a.Moves {
		if len(moves) == n {
			break
		}
		if m.Legal {
			moves = append(moves, MoveToResponse(s, m))
		}
	}
	return moves
}

func (h *Handlers) tutorMove(req *TutorMoveRequest) (*TutorMoveResponse, *apiError) {
	s, apiErr := resolveBoard(req.BoardRequest)
	if apiErr != nil {
		return nil, apiErr
	}
	review, err := h.engine.ReviewMove(s, req.Played)
	if err != nil {
		return nil, analysisError(err)
	}
	analysis, err := h.engine.Analyze(s)
	if err != nil {
		return nil, analysisError(err)
	}

	return &TutorMoveResponse{
		Skill:       skillKey(review.Skill),
		SkillAbbr:   review.Skill.Abbr(),
		ScoreLoss:   review.ScoreLoss,
		Played:      review.Played,
		PlayedScore: review.PlayedScore,
		Best:        review.Best,
		BestScore:   review.BestScore,
		IsForced:    review.IsForced,
		TopMoves:    legalMoves(s, analysis, 3),
		Suggestion:  review.Suggestion(),
	}, nil
}
