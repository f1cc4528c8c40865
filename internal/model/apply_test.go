package model

import (
	"errors"
	"testing"
)

func TestApplyMoveKingSideCastle(t *testing.T) {
	pos := NewPosition()
	pos.Board[7][5] = Empty
	pos.Board[7][6] = Empty

	pos.ApplyMove(sq(7, 4), sq(7, 6))

	if got := pos.Board[7][6]; got != (Piece{Type: King, Color: White}) {
		t.Fatalf("expected king on (7,6), got %s", got)
	}
	if got := pos.Board[7][5]; got != (Piece{Type: Rook, Color: White}) {
		t.Fatalf("expected rook on (7,5), got %s", got)
	}
	if !pos.Board[7][7].IsEmpty() || !pos.Board[7][4].IsEmpty() {
		t.Fatalf("expected (7,4) and (7,7) vacated")
	}
	if !pos.Castling.WhiteKingMoved || !pos.Castling.WhiteRookHMoved {
		t.Fatalf("expected white king and h-rook flags set, got %+v", pos.Castling)
	}
	if pos.Castling.WhiteRookAMoved || pos.Castling.BlackKingMoved {
		t.Fatalf("unrelated castling flags changed: %+v", pos.Castling)
	}
	if pos.ToMove != White {
		t.Fatalf("ApplyMove must not toggle the side to move")
	}
}

func TestApplyMoveQueenSideCastleBlack(t *testing.T) {
	pos := NewPosition()
	pos.Board[0][1] = Empty
	pos.Board[0][2] = Empty
	pos.Board[0][3] = Empty
	pos.ToMove = Black

	if _, ok := findDestination(pos.LegalMoves(sq(0, 4)), sq(0, 2)); !ok {
		t.Fatalf("expected queen-side castle for black")
	}
	pos.ApplyMove(sq(0, 4), sq(0, 2))

	if got := pos.Board[0][2]; got != (Piece{Type: King, Color: Black}) {
		t.Fatalf("expected king on (0,2), got %s", got)
	}
	if got := pos.Board[0][3]; got != (Piece{Type: Rook, Color: Black}) {
		t.Fatalf("expected rook on (0,3), got %s", got)
	}
	if !pos.Board[0][0].IsEmpty() {
		t.Fatalf("expected (0,0) vacated")
	}
	if !pos.Castling.BlackKingMoved || !pos.Castling.BlackRookAMoved {
		t.Fatalf("expected black king and a-rook flags set, got %+v", pos.Castling)
	}
}

func TestRookMoveClearsCastlingPermanently(t *testing.T) {
	pos := NewPosition()
	pos.Board[7][5] = Empty
	pos.Board[7][6] = Empty

	pos.ApplyMove(sq(7, 7), sq(7, 6))
	pos.ApplyMove(sq(7, 6), sq(7, 7))

	if !pos.Castling.WhiteRookHMoved {
		t.Fatalf("expected h-rook flag set")
	}
	if _, ok := findDestination(pos.LegalMoves(sq(7, 4)), sq(7, 6)); ok {
		t.Fatalf("castling offered after the rook returned home")
	}
}

func TestCapturedRookLeavesFlagUntouched(t *testing.T) {
	pos := emptyPosition(Black)
	place(pos, 7, 4, King, White)
	place(pos, 7, 0, Rook, White)
	place(pos, 4, 0, Rook, Black)

	pos.ApplyMove(sq(4, 0), sq(7, 0))

	if pos.Castling.WhiteRookAMoved {
		t.Fatalf("capturing a rook in place must not set its moved flag")
	}
}

func TestApplyMoveRecordsLastMove(t *testing.T) {
	pos := NewPosition()
	pos.ApplyMove(sq(7, 1), sq(5, 2))

	want := LastMove{Piece: Piece{Type: Knight, Color: White}, From: sq(7, 1), To: sq(5, 2)}
	if pos.LastMove == nil || *pos.LastMove != want {
		t.Fatalf("expected last move %+v, got %+v", want, pos.LastMove)
	}
}

func TestTryMove(t *testing.T) {
	t.Run("EmptyOrigin", func(t *testing.T) {
		pos := NewPosition()
		_, err := pos.TryMove(sq(4, 4), sq(3, 4), Rules{})
		if !errors.Is(err, ErrInvalidOrigin) || !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("expected invalid origin, got %v", err)
		}
	})

	t.Run("IllegalDestination", func(t *testing.T) {
		pos := NewPosition()
		before := pos.Clone()
		_, err := pos.TryMove(sq(6, 4), sq(3, 4), Rules{})
		if !errors.Is(err, ErrIllegalDestination) || !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("expected illegal destination, got %v", err)
		}
		if pos.Board != before.Board || pos.ToMove != before.ToMove {
			t.Fatalf("rejected move changed the position")
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		pos := NewPosition()
		_, err := pos.TryMove(sq(6, 4), sq(6, 8), Rules{})
		if !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("expected out of bounds, got %v", err)
		}
	})

	t.Run("AppliesAndPassesTurn", func(t *testing.T) {
		pos := NewPosition()
		ply, err := pos.TryMove(sq(6, 4), sq(4, 4), Rules{})
		if err != nil {
			t.Fatalf("opening move: %v", err)
		}
		if pos.ToMove != Black {
			t.Fatalf("expected black to move, got %s", pos.ToMove)
		}
		if ply.CapturedPiece != nil || ply.CastleRookMove != nil || ply.EnPassant {
			t.Fatalf("unexpected ply details: %+v", ply)
		}
	})

	t.Run("RecordsEnPassantCapture", func(t *testing.T) {
		pos := emptyPosition(White)
		place(pos, 3, 4, Pawn, White)
		place(pos, 1, 3, Pawn, Black)
		pos.ApplyMove(sq(1, 3), sq(3, 3))

		ply, err := pos.TryMove(sq(3, 4), sq(2, 3), Rules{})
		if err != nil {
			t.Fatalf("en passant: %v", err)
		}
		if !ply.EnPassant || ply.CapturedPiece == nil || *ply.CapturedAt != sq(3, 3) {
			t.Fatalf("expected en passant capture of (3,3), got %+v", ply)
		}
		if !pos.Board[3][3].IsEmpty() {
			t.Fatalf("expected captured pawn removed")
		}
	})

	t.Run("RecordsCastle", func(t *testing.T) {
		pos := NewPosition()
		pos.Board[7][5] = Empty
		pos.Board[7][6] = Empty
		ply, err := pos.TryMove(sq(7, 4), sq(7, 6), Rules{})
		if err != nil {
			t.Fatalf("castle: %v", err)
		}
		want := CastleRookMove{From: sq(7, 7), To: sq(7, 5)}
		if ply.CastleRookMove == nil || *ply.CastleRookMove != want {
			t.Fatalf("expected rook move %+v, got %+v", want, ply.CastleRookMove)
		}
	})
}
