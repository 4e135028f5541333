package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
)

// Outbound command actions.
const (
	ActionAuth      = "AUTH"
	ActionStartGame = "START_GAME"
	ActionRollDice  = "ROLL_DICE"
	ActionMovePiece = "MOVE_PIECE"
	ActionLeaveGame = "LEAVE_GAME"
	ActionSendChat  = "SEND_CHAT_MESSAGE"
)

// Inbound event types.
const (
	TypeAuthSuccess     = "AUTH_SUCCESS"
	TypeAuthFailure     = "AUTH_FAILURE"
	TypeGameStateUpdate = "GAME_STATE_UPDATE"
	TypeGameArchived    = "GAME_ARCHIVED"
	TypeError           = "ERROR"
)

// Close codes used on the session transport.
const (
	CloseNormal       = 1000
	CloseAbnormal     = 1006
	CloseAuthRejected = 4001
)

// Command is the outbound envelope.
type Command struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type authPayload struct {
	Token string `json:"token"`
}

type movePayload struct {
	PieceID engine.PieceID `json:"pieceId"`
}

type chatPayload struct {
	Text string `json:"text"`
}

// Auth builds the handshake command. It is sent by the Manager itself.
func Auth(token string) Command {
	return Command{Action: ActionAuth, Payload: authPayload{Token: token}}
}

func StartGame() Command { return Command{Action: ActionStartGame} }

func RollDice() Command { return Command{Action: ActionRollDice} }

func MovePiece(id engine.PieceID) Command {
	return Command{Action: ActionMovePiece, Payload: movePayload{PieceID: id}}
}

func LeaveGame() Command { return Command{Action: ActionLeaveGame} }

func SendChat(text string) Command {
	return Command{Action: ActionSendChat, Payload: chatPayload{Text: text}}
}

// Message is the inbound envelope. Payload is decoded according to Type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeMessage parses one inbound frame.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decoding message: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("decoding message: missing type")
	}
	return m, nil
}

// Snapshot decodes a GAME_STATE_UPDATE or GAME_ARCHIVED payload.
func (m Message) Snapshot() (engine.Snapshot, error) {
	var s engine.Snapshot
	if len(m.Payload) == 0 {
		return s, fmt.Errorf("%s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, &s); err != nil {
		return s, fmt.Errorf("%s: %w", m.Type, err)
	}
	return s, nil
}

// Text returns the human readable message carried by ERROR and
// AUTH_FAILURE. Structured payloads are flattened to a string.
func (m Message) Text() string {
	return normalizeText(m.Payload)
}

func normalizeText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "unknown server error"
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil {
		for _, key := range []string{"message", "error", "reason"} {
			v, ok := obj[key]
			if !ok {
				continue
			}
			if json.Unmarshal(v, &s) == nil {
				return s
			}
			return string(v)
		}
	}
	return string(raw)
}
