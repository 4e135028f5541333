package engine

import (
	"fmt"
)

// SkillType represents the skill rating of a played move.
type SkillType int

const (
	SkillVeryBad  SkillType = iota // Blunder: loses >= 60 points
	SkillBad                       // Error: loses 30-60 points
	SkillDoubtful                  // Doubtful: loses 10-30 points
	SkillNone                      // Good or best move
)

// String returns the display name of the skill type.
func (s SkillType) String() string {
	return [...]string{"Very Bad", "Bad", "Doubtful", "None"}[s]
}

// Abbr returns the abbreviated notation (??, ?, ?!).
func (s SkillType) Abbr() string {
	return [...]string{"??", "?", "?!", ""}[s]
}

// SkillThresholds are the score-loss thresholds for skill ratings.
// Roughly: missing a capture is a blunder, walking into a threat is an error.
var SkillThresholds = [4]float64{
	60, // very bad
	30, // bad
	10, // doubtful
	0,  // none
}

// ClassifySkill returns the skill rating based on score loss.
// scoreLoss should be positive for moves worse than best.
func ClassifySkill(scoreLoss float64) SkillType {
	if scoreLoss >= SkillThresholds[0] {
		return SkillVeryBad
	} else if scoreLoss >= SkillThresholds[1] {
		return SkillBad
	} else if scoreLoss >= SkillThresholds[2] {
		return SkillDoubtful
	}
	return SkillNone
}

// MoveReview compares a played move with the heuristic's choice.
type MoveReview struct {
	Played      PieceID    `json:"played"`
	Best        PieceID    `json:"best"`
	PlayedScore float64    `json:"playedScore"`
	BestScore   float64    `json:"bestScore"`
	ScoreLoss   float64    `json:"scoreLoss"`
	Skill       SkillType  `json:"skill"`
	IsForced    bool       `json:"isForced"` // only one legal move
	Alternative ScoredMove `json:"alternative"`
}

// ReviewMove rates moving played in s. The die and candidates come from s.
func (e *Engine) ReviewMove(s Snapshot, played PieceID) (*MoveReview, error) {
	a, err := e.Analyze(s)
	if err != nil {
		return nil, err
	}

	var playedMove, bestMove *ScoredMove
	for i := range a.Moves {
		if a.Moves[i].Piece == played {
			playedMove = &a.Moves[i]
		}
		if a.Moves[i].Piece == a.Best {
			bestMove = &a.Moves[i]
		}
	}
	if playedMove == nil || !playedMove.Legal {
		return nil, fmt.Errorf("%w: piece %d is not a candidate", ErrIllegalMove, played)
	}

	best := *bestMove
	r := &MoveReview{
		Played:      played,
		Best:        best.Piece,
		PlayedScore: playedMove.Score,
		BestScore:   best.Score,
		ScoreLoss:   best.Score - playedMove.Score,
		IsForced:    a.NumLegal == 1,
		Alternative: best,
	}
	if r.IsForced {
		r.ScoreLoss = 0
	}
	r.Skill = ClassifySkill(r.ScoreLoss)
	return r, nil
}

// Suggestion returns a one-line hint for a review.
func (r *MoveReview) Suggestion() string {
	switch {
	case r.IsForced:
		return "Forced move."
	case r.Skill == SkillNone:
		return "Good move."
	case r.Alternative.Interaction.Captured != nil:
		return fmt.Sprintf("Piece %d could have captured piece %d.", r.Best, *r.Alternative.Interaction.Captured)
	case r.Alternative.Destination.IsFinished():
		return fmt.Sprintf("Piece %d could have finished.", r.Best)
	default:
		return fmt.Sprintf("Consider moving piece %d (%.0f points better).", r.Best, r.ScoreLoss)
	}
}
