package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestPositionWire(t *testing.T) {
	tests := []struct {
		wire  int
		state PieceState
	}{
		{-1, AtHome},
		{1, OnBoard},
		{52, OnBoard},
		{100, OnBoard},
		{104, OnBoard},
		{105, Finished},
	}

	for _, tc := range tests {
		pos, err := PositionFromWire(tc.wire)
		if err != nil {
			t.Fatalf("PositionFromWire(%d) error: %v", tc.wire, err)
		}
		if pos.Wire() != tc.wire {
			t.Errorf("Wire() = %d, want %d", pos.Wire(), tc.wire)
		}
		if pos.State() != tc.state {
			t.Errorf("PositionFromWire(%d).State() = %s, want %s", tc.wire, pos.State(), tc.state)
		}
	}

	for _, bad := range []int{-2, 0, 53, 99, 106} {
		if _, err := PositionFromWire(bad); !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("PositionFromWire(%d) error = %v, want ErrInvalidPosition", bad, err)
		}
	}
}

func TestPieceJSON(t *testing.T) {
	p := piece(Blue, 2, Stretch(3))
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"id":10,"color":"blue","state":"OnBoard","position":103}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back Piece
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if back != p {
		t.Errorf("Unmarshal = %+v, want %+v", back, p)
	}
}

func TestPieceJSONRejectsMismatchedState(t *testing.T) {
	tests := []string{
		`{"id":0,"color":"green","state":"OnBoard","position":-1}`,
		`{"id":0,"color":"green","state":"AtHome","position":12}`,
		`{"id":0,"color":"green","state":"OnBoard","position":105}`,
		`{"id":0,"color":"purple","state":"AtHome","position":-1}`,
	}
	for _, raw := range tests {
		var p Piece
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", raw)
		}
	}
}

func TestSnapshotValidate(t *testing.T) {
	s := twoPlayerBoard()
	if err := s.Validate(); err != nil {
		t.Fatalf("fresh board Validate() = %v", err)
	}

	s.MovablePieces = []PieceID{0}
	if err := s.Validate(); !errors.Is(err, ErrMovableNoDie) {
		t.Errorf("Validate() = %v, want ErrMovableNoDie", err)
	}

	die := 3
	s.DiceValue = &die
	if err := s.Validate(); !errors.Is(err, ErrMovableNotLegal) {
		t.Errorf("Validate() = %v, want ErrMovableNotLegal (home piece with a 3)", err)
	}

	six := 6
	s.DiceValue = &six
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	s.MovablePieces = []PieceID{MakePieceID(Yellow, 0)}
	if err := s.Validate(); !errors.Is(err, ErrMovableNotLegal) {
		t.Errorf("Validate() = %v, want ErrMovableNotLegal for another player's piece", err)
	}

	bad := twoPlayerBoard()
	bad.Players[1].Pieces[0].ID = 0
	if err := bad.Validate(); !errors.Is(err, ErrBadPieceSet) {
		t.Errorf("Validate() = %v, want ErrBadPieceSet", err)
	}
}

func TestSnapshotJSON(t *testing.T) {
	raw := `{
		"players": [
			{"id": "u1", "name": "Ann", "color": "green", "inactiveTurns": 1, "isRemoved": false,
			 "pieces": [
				{"id": 0, "color": "green", "state": "OnBoard", "position": 50},
				{"id": 1, "color": "green", "state": "AtHome", "position": -1},
				{"id": 2, "color": "green", "state": "OnBoard", "position": 104},
				{"id": 3, "color": "green", "state": "Finished", "position": 105}
			 ]}
		],
		"currentPlayerIndex": 0,
		"diceValue": 3,
		"movablePieces": [0],
		"status": "playing"
	}`

	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if s.Players[0].Pieces[0].Position != Ring(50) || !s.Players[0].Pieces[3].Position.IsFinished() {
		t.Errorf("unexpected pieces: %+v", s.Players[0].Pieces)
	}
	if s.DiceValue == nil || *s.DiceValue != 3 {
		t.Errorf("DiceValue = %v, want 3", s.DiceValue)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(out), `"position":104`) {
		t.Errorf("Marshal lost stretch position: %s", out)
	}
}

func TestValidateIntent(t *testing.T) {
	s := twoPlayerBoard()
	s.Players[0].Pieces[0].Position = Ring(4)
	die := 2
	s.DiceValue = &die
	s.MovablePieces = []PieceID{0}

	tests := []struct {
		name   string
		actor  string
		intent MoveIntent
		want   error
	}{
		{"ok", "g", MoveIntent{PieceID: 0, DieValue: 2}, nil},
		{"wrong actor", "y", MoveIntent{PieceID: 0, DieValue: 2}, ErrNotYourTurn},
		{"wrong die", "g", MoveIntent{PieceID: 0, DieValue: 5}, ErrDieMismatch},
		{"opponent piece", "g", MoveIntent{PieceID: 4, DieValue: 2}, ErrNotYourPiece},
		{"not eligible", "g", MoveIntent{PieceID: 1, DieValue: 2}, ErrNotEligible},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateIntent(s, tc.actor, tc.intent)
			if tc.want == nil && err != nil {
				t.Errorf("ValidateIntent = %v, want nil", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("ValidateIntent = %v, want %v", err, tc.want)
			}
		})
	}

	s.DiceValue = nil
	if err := ValidateIntent(s, "g", MoveIntent{PieceID: 0, DieValue: 2}); !errors.Is(err, ErrNoDie) {
		t.Errorf("ValidateIntent without die = %v, want ErrNoDie", err)
	}
}
