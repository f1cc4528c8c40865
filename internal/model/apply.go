package model

import "fmt"

// ApplyMove moves the piece on from to to and performs the bookkeeping that
// comes with it: the rook hop of a castle, the pawn removal of an en passant
// capture, castling-rights updates and LastMove. The side to move is left
// alone.
//
// The move is not validated. Applying anything outside LegalMoves(from)
// leaves the board in an undefined state; network callers use TryMove.
func (p *Position) ApplyMove(from, to Square) {
	p.applyMove(from, to)
}

func (p *Position) applyMove(from, to Square) Ply {
	piece := p.Board[from.Row][from.Col]
	ply := Ply{Piece: piece, From: from, To: to}

	if piece.Type == King && abs(to.Col-from.Col) == 2 {
		ply.CastleRookMove = p.handleCastle(from, to)
	}

	if piece.Type == Pawn && to.Col != from.Col && p.Board[to.Row][to.Col].IsEmpty() {
		behind := Square{Row: to.Row - piece.Color.forward(), Col: to.Col}
		if captured, ok := p.Board.At(behind); ok {
			ply.CapturedPiece = &captured
			ply.CapturedAt = &behind
			ply.EnPassant = true
			p.Board.set(behind, Empty)
		}
	}

	if target := p.Board[to.Row][to.Col]; !target.IsEmpty() {
		ply.CapturedPiece = &target
		capturedAt := to
		ply.CapturedAt = &capturedAt
	}
	p.Board.set(to, piece)
	p.Board.set(from, Empty)

	p.updateCastlingRights(piece, from)

	p.LastMove = &LastMove{Piece: piece, From: from, To: to}
	return ply
}

func (p *Position) handleCastle(from, to Square) *CastleRookMove {
	var rookMove CastleRookMove
	switch to.Col {
	case 6:
		rookMove = CastleRookMove{From: Square{Row: from.Row, Col: 7}, To: Square{Row: from.Row, Col: 5}}
	case 2:
		rookMove = CastleRookMove{From: Square{Row: from.Row, Col: 0}, To: Square{Row: from.Row, Col: 3}}
	default:
		return nil
	}
	rook := p.Board[rookMove.From.Row][rookMove.From.Col]
	p.Board.set(rookMove.To, rook)
	p.Board.set(rookMove.From, Empty)
	p.updateCastlingRights(Piece{Type: Rook, Color: rook.Color}, rookMove.From)
	return &rookMove
}

func (p *Position) updateCastlingRights(piece Piece, from Square) {
	switch piece.Type {
	case King:
		if piece.Color == White {
			p.Castling.WhiteKingMoved = true
		} else {
			p.Castling.BlackKingMoved = true
		}
	case Rook:
		switch from {
		case Square{Row: 7, Col: 0}:
			p.Castling.WhiteRookAMoved = true
		case Square{Row: 7, Col: 7}:
			p.Castling.WhiteRookHMoved = true
		case Square{Row: 0, Col: 0}:
			p.Castling.BlackRookAMoved = true
		case Square{Row: 0, Col: 7}:
			p.Castling.BlackRookHMoved = true
		}
	}
}

// TryMove validates a move against MovesFor under rules, applies it, and
// passes the turn to the other side.
func (p *Position) TryMove(from, to Square, rules Rules) (Ply, error) {
	if !from.OnBoard() || !to.OnBoard() {
		return Ply{}, fmt.Errorf("%w: %s -> %s", ErrOutOfBounds, from, to)
	}
	piece := p.Board[from.Row][from.Col]
	if piece.IsEmpty() {
		return Ply{}, fmt.Errorf("%w: no piece at %s", ErrInvalidOrigin, from)
	}

	legal := false
	for _, dest := range p.MovesFor(from, rules) {
		if dest.Square == to {
			legal = true
			break
		}
	}
	if !legal {
		return Ply{}, fmt.Errorf("%w: %s cannot move %s -> %s", ErrIllegalDestination, piece, from, to)
	}

	ply := p.applyMove(from, to)
	p.ToMove = p.ToMove.Opponent()
	return ply, nil
}
