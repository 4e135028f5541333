// Package positionid implements compact position encoding for Ludo boards.
//
// A board is the position of all 16 pieces. Each piece is stored as a 6-bit
// code, so a position ID is exactly 16 base64 characters: the character at
// index i is the code of piece i (color*4 + slot).
package positionid

import (
	"errors"
)

const (
	// NumPieces is the number of pieces on a full board
	NumPieces = 16
	// PositionIDLength is the length of a position ID string
	PositionIDLength = NumPieces

	// CodeHome is a piece waiting in its yard
	CodeHome = 0
	// CodeRingFirst..CodeRingLast are ring cells 1..52
	CodeRingFirst = 1
	CodeRingLast  = 52
	// CodeStretchFirst is home stretch index 0; the finish is CodeFinish
	CodeStretchFirst = 53
	CodeFinish       = 58
	// CodeAbsent marks a piece whose colour is not seated
	CodeAbsent = 63
)

// Base64 alphabet used for position ID encoding
const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Board holds one code per piece, indexed by piece id
type Board [NumPieces]uint8

// PositionKey is a packed board used as a hash key (one byte per piece)
type PositionKey struct {
	Data [4]uint32
}

// MakePositionKey packs a board into a key
func MakePositionKey(board Board) PositionKey {
	var key PositionKey
	for i, j := 0, 0; i < 4; i, j = i+1, j+4 {
		key.Data[i] = uint32(board[j]) | uint32(board[j+1])<<8 |
			uint32(board[j+2])<<16 | uint32(board[j+3])<<24
	}
	return key
}

// BoardFromKey unpacks a key
func BoardFromKey(key PositionKey) Board {
	var board Board
	for i, j := 0, 0; i < 4; i, j = i+1, j+4 {
		board[j] = uint8(key.Data[i] & 0xff)
		board[j+1] = uint8((key.Data[i] >> 8) & 0xff)
		board[j+2] = uint8((key.Data[i] >> 16) & 0xff)
		board[j+3] = uint8((key.Data[i] >> 24) & 0xff)
	}
	return board
}

// PositionID generates the base64 position ID of a board
func PositionID(board Board) string {
	result := make([]byte, PositionIDLength)
	for i, code := range board {
		result[i] = base64Chars[code&0x3f]
	}
	return string(result)
}

// PositionIDFromKey generates a position ID from a key
func PositionIDFromKey(key PositionKey) string {
	return PositionID(BoardFromKey(key))
}

// base64Decode decodes a base64 character to its value
func base64Decode(ch byte) uint8 {
	if ch >= 'A' && ch <= 'Z' {
		return ch - 'A'
	}
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 26
	}
	if ch >= '0' && ch <= '9' {
		return ch - '0' + 52
	}
	if ch == '+' {
		return 62
	}
	if ch == '/' {
		return 63
	}
	return 255
}

// ErrInvalidPositionID is returned when a position ID is invalid
var ErrInvalidPositionID = errors.New("invalid position ID")

// BoardFromPositionID decodes a position ID
func BoardFromPositionID(posID string) (Board, error) {
	var board Board

	if len(posID) != PositionIDLength {
		return board, ErrInvalidPositionID
	}
	for i := 0; i < PositionIDLength; i++ {
		board[i] = base64Decode(posID[i])
		if board[i] == 255 {
			return board, ErrInvalidPositionID
		}
	}
	if !CheckPosition(board) {
		return board, ErrInvalidPositionID
	}
	return board, nil
}

// CheckPosition validates a board: every code is in range and each colour
// is either fully seated or fully absent
func CheckPosition(board Board) bool {
	seated := 0
	for c := 0; c < NumPieces/4; c++ {
		absent := 0
		for slot := 0; slot < 4; slot++ {
			code := board[c*4+slot]
			switch {
			case code == CodeAbsent:
				absent++
			case code > CodeFinish:
				return false
			}
		}
		if absent != 0 && absent != 4 {
			return false
		}
		if absent == 0 {
			seated++
		}
	}
	return seated > 0
}

// Seated reports whether colour index c has pieces on the board
func Seated(board Board, c int) bool {
	return board[c*4] != CodeAbsent
}

// EqualBoards returns true if two boards are identical
func EqualBoards(b1, b2 Board) bool {
	return b1 == b2
}

// EqualKeys returns true if two position keys are identical
func EqualKeys(k1, k2 PositionKey) bool {
	return k1.Data == k2.Data
}
