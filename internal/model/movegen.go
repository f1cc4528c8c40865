package model

// Destination is a square a piece may move to and whether landing there captures.
type Destination struct {
	Square
	IsCapture bool `json:"isCapture"`
}

var (
	rookDirs   = []Square{{Row: 1, Col: 0}, {Row: -1, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: -1}}
	bishopDirs = []Square{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	queenDirs  = append(append([]Square{}, rookDirs...), bishopDirs...)
	kingDirs   = queenDirs
	knightDirs = []Square{
		{Row: 2, Col: 1}, {Row: 2, Col: -1}, {Row: -2, Col: 1}, {Row: -2, Col: -1},
		{Row: 1, Col: 2}, {Row: 1, Col: -2}, {Row: -1, Col: 2}, {Row: -1, Col: -2},
	}
)

// LegalMoves lists the pseudo-legal destinations of the piece on from.
// Moves that leave the mover's king attacked are not filtered out, and
// whose turn it is is not checked. The order of the result is unspecified.
func (p *Position) LegalMoves(from Square) []Destination {
	piece, ok := p.Board.At(from)
	if !ok || piece.IsEmpty() {
		return []Destination{}
	}
	switch piece.Type {
	case Pawn:
		return p.pawnMoves(from, piece)
	case Knight:
		return p.stepMoves(from, piece, knightDirs)
	case Bishop:
		return p.rayMoves(from, piece, bishopDirs)
	case Rook:
		return p.rayMoves(from, piece, rookDirs)
	case Queen:
		return p.rayMoves(from, piece, queenDirs)
	case King:
		return append(p.stepMoves(from, piece, kingDirs), p.castleMoves(from, piece)...)
	default:
		return []Destination{}
	}
}

func (p *Position) pawnMoves(from Square, piece Piece) []Destination {
	moves := []Destination{}
	dir := piece.Color.forward()

	one := from.offset(dir, 0)
	if target, ok := p.Board.At(one); ok && target.IsEmpty() {
		moves = append(moves, Destination{Square: one})
		two := from.offset(2*dir, 0)
		if from.Row == piece.Color.pawnRow() {
			if target, ok := p.Board.At(two); ok && target.IsEmpty() {
				moves = append(moves, Destination{Square: two})
			}
		}
	}

	for _, dCol := range []int{-1, 1} {
		diag := from.offset(dir, dCol)
		target, ok := p.Board.At(diag)
		if !ok {
			continue
		}
		if piece.IsOpponentOf(target) {
			moves = append(moves, Destination{Square: diag, IsCapture: true})
		} else if p.enPassantTarget(from, piece, diag) {
			moves = append(moves, Destination{Square: diag, IsCapture: true})
		}
	}
	return moves
}

// enPassantTarget reports whether a pawn on from may capture en passant by
// moving to diag: the last move must be an opposing pawn's double step that
// landed beside from on diag's column.
func (p *Position) enPassantTarget(from Square, piece Piece, diag Square) bool {
	lm := p.LastMove
	if lm == nil || lm.Piece.Type != Pawn || lm.Piece.Color == piece.Color {
		return false
	}
	if abs(lm.To.Row-lm.From.Row) != 2 || lm.From.Col != lm.To.Col {
		return false
	}
	return lm.To.Row == from.Row && abs(lm.To.Col-from.Col) == 1 && lm.To.Col == diag.Col
}

// stepMoves covers knight and king single-step offsets: an off-board
// offset is skipped, a friendly piece blocks, an enemy piece is a capture.
func (p *Position) stepMoves(from Square, piece Piece, dirs []Square) []Destination {
	moves := []Destination{}
	for _, dir := range dirs {
		targetPos := from.offset(dir.Row, dir.Col)
		target, ok := p.Board.At(targetPos)
		if !ok {
			continue
		}
		if target.IsEmpty() {
			moves = append(moves, Destination{Square: targetPos})
		} else if piece.IsOpponentOf(target) {
			moves = append(moves, Destination{Square: targetPos, IsCapture: true})
		}
	}
	return moves
}

// rayMoves walks each direction until the edge or the first occupied square,
// which is included only when it holds an enemy piece.
func (p *Position) rayMoves(from Square, piece Piece, dirs []Square) []Destination {
	moves := []Destination{}
	for _, dir := range dirs {
		targetPos := from.offset(dir.Row, dir.Col)
		for {
			target, ok := p.Board.At(targetPos)
			if !ok {
				break
			}
			if target.IsEmpty() {
				moves = append(moves, Destination{Square: targetPos})
			} else {
				if piece.IsOpponentOf(target) {
					moves = append(moves, Destination{Square: targetPos, IsCapture: true})
				}
				break
			}
			targetPos = targetPos.offset(dir.Row, dir.Col)
		}
	}
	return moves
}

// castleMoves offers castling from the king's home square. Only the moved
// flags and the squares between king and rook are consulted; attacked
// squares are not, and neither is the rook's presence.
func (p *Position) castleMoves(from Square, piece Piece) []Destination {
	moves := []Destination{}
	row := piece.Color.homeRow()
	if from != (Square{Row: row, Col: 4}) || p.Castling.kingMoved(piece.Color) {
		return moves
	}
	if !p.Castling.rookMoved(piece.Color, true) && p.emptyBetween(row, 5, 6) {
		moves = append(moves, Destination{Square: Square{Row: row, Col: 6}})
	}
	if !p.Castling.rookMoved(piece.Color, false) && p.emptyBetween(row, 1, 3) {
		moves = append(moves, Destination{Square: Square{Row: row, Col: 2}})
	}
	return moves
}

func (p *Position) emptyBetween(row, fromCol, toCol int) bool {
	for col := fromCol; col <= toCol; col++ {
		if !p.Board[row][col].IsEmpty() {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
