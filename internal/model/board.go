package model

import (
	"encoding/json"
	"fmt"
)

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side. The zero color has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return ""
}

// forward is the row delta a pawn of this color advances by.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

// homeRow is the back rank the color starts on.
func (c Color) homeRow() int {
	if c == White {
		return 7
	}
	return 0
}

func (c Color) pawnRow() int {
	if c == White {
		return 6
	}
	return 1
}

// Piece is a kind and a color. The zero value is an empty square.
type Piece struct {
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
}

// Empty is the value stored on squares without a piece.
var Empty = Piece{}

func (p Piece) IsEmpty() bool {
	return p.Type == ""
}

// IsOpponentOf reports whether both squares hold pieces of different colors.
func (p Piece) IsOpponentOf(other Piece) bool {
	return !p.IsEmpty() && !other.IsEmpty() && p.Color != other.Color
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s %s", p.Color, p.Type)
}

// MarshalJSON encodes empty squares as null so clients can test for a piece directly.
func (p Piece) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	type plain Piece
	return json.Marshal(plain(p))
}

type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) OnBoard() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) offset(dRow, dCol int) Square {
	return Square{Row: s.Row + dRow, Col: s.Col + dCol}
}

func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

// Board is indexed [row][col]. Row 0 is Black's back rank, row 7 is White's.
type Board [8][8]Piece

// At returns the piece on sq, or ok == false when sq is off the board.
func (b *Board) At(sq Square) (Piece, bool) {
	if !sq.OnBoard() {
		return Empty, false
	}
	return b[sq.Row][sq.Col], true
}

func (b *Board) set(sq Square, p Piece) {
	b[sq.Row][sq.Col] = p
}

// CastlingRights records whether each castling piece has left its home square.
// A flag never resets, and capturing a rook in place does not set it.
type CastlingRights struct {
	WhiteKingMoved  bool `json:"whiteKingMoved"`
	WhiteRookAMoved bool `json:"whiteRookAMoved"`
	WhiteRookHMoved bool `json:"whiteRookHMoved"`
	BlackKingMoved  bool `json:"blackKingMoved"`
	BlackRookAMoved bool `json:"blackRookAMoved"`
	BlackRookHMoved bool `json:"blackRookHMoved"`
}

func (c CastlingRights) kingMoved(color Color) bool {
	if color == White {
		return c.WhiteKingMoved
	}
	return c.BlackKingMoved
}

func (c CastlingRights) rookMoved(color Color, kingSide bool) bool {
	switch {
	case color == White && kingSide:
		return c.WhiteRookHMoved
	case color == White:
		return c.WhiteRookAMoved
	case kingSide:
		return c.BlackRookHMoved
	default:
		return c.BlackRookAMoved
	}
}

// LastMove is the most recently applied move, kept for en passant.
type LastMove struct {
	Piece Piece  `json:"piece"`
	From  Square `json:"from"`
	To    Square `json:"to"`
}

// Position is the full engine state of one game. It carries no locking;
// a caller sharing it between goroutines must serialize access.
type Position struct {
	Board    Board          `json:"board"`
	ToMove   Color          `json:"toMove"`
	Castling CastlingRights `json:"castling"`
	LastMove *LastMove      `json:"lastMove"`
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewPosition returns the standard starting position with White to move.
func NewPosition() *Position {
	pos := &Position{ToMove: White}
	for col := 0; col < 8; col++ {
		pos.Board[0][col] = Piece{Type: backRank[col], Color: Black}
		pos.Board[1][col] = Piece{Type: Pawn, Color: Black}
		pos.Board[6][col] = Piece{Type: Pawn, Color: White}
		pos.Board[7][col] = Piece{Type: backRank[col], Color: White}
	}
	return pos
}

// Clone returns a copy that shares no state with p.
func (p *Position) Clone() *Position {
	c := *p
	if p.LastMove != nil {
		lm := *p.LastMove
		c.LastMove = &lm
	}
	return &c
}
