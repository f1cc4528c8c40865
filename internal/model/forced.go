package model

// Rules selects engine variants for a game.
type Rules struct {
	// ForcedCapture requires the side to move to capture whenever any of
	// its pieces can.
	ForcedCapture bool `json:"forcedCapture"`
}

// ForcedCaptureOrigins scans the board for pieces of the side to move that
// have at least one capturing destination. An empty result means the
// forced-capture rule is not in effect for this position.
func (p *Position) ForcedCaptureOrigins() []Square {
	origins := []Square{}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			piece := p.Board[row][col]
			if piece.IsEmpty() || piece.Color != p.ToMove {
				continue
			}
			sq := Square{Row: row, Col: col}
			if hasCapture(p.LegalMoves(sq)) {
				origins = append(origins, sq)
			}
		}
	}
	return origins
}

// MovesFor is LegalMoves with the variant rules applied. Under forced
// capture, while any piece of the side to move can capture, pieces of that
// side are offered captures only, so a piece without one gets nothing.
func (p *Position) MovesFor(from Square, rules Rules) []Destination {
	moves := p.LegalMoves(from)
	if !rules.ForcedCapture || len(moves) == 0 {
		return moves
	}
	if p.Board[from.Row][from.Col].Color != p.ToMove {
		return moves
	}
	if len(p.ForcedCaptureOrigins()) == 0 {
		return moves
	}
	return capturesOnly(moves)
}

func hasCapture(moves []Destination) bool {
	for _, m := range moves {
		if m.IsCapture {
			return true
		}
	}
	return false
}

func capturesOnly(moves []Destination) []Destination {
	out := []Destination{}
	for _, m := range moves {
		if m.IsCapture {
			out = append(out, m)
		}
	}
	return out
}
