package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/capturechess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]ws.Conn // playerID -> connection
	mu          sync.RWMutex

	// sendMu orders broadcasts; sent is the newest sequence delivered.
	sendMu sync.Mutex
	sent   uint64
}

// Game is one session: a Position plus the seats, clocks and observers around
// it. The mutex serializes every access to the position, which has no
// locking of its own.
type Game struct {
	ID          string
	mu          sync.Mutex
	position    *Position
	rules       Rules
	white       string
	black       string
	history     []Ply
	captured    CapturedPieces
	result      *Result
	connections *GameConnections
	whiteClock  *Clock
	blackClock  *Clock
	seq         uint64
}

// CapturedPieces lists the pieces each side has taken.
type CapturedPieces struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

type Result struct {
	Winner Color  `json:"winner"`
	Reason string `json:"reason"`
}

const (
	ReasonResignation = "resignation"
	ReasonTimeout     = "timeout"
)

// GameState is the snapshot sent to clients.
type GameState struct {
	ID                   string         `json:"id"`
	Board                Board          `json:"board"`
	ToMove               Color          `json:"toMove"`
	Castling             CastlingRights `json:"castling"`
	LastMove             *LastMove      `json:"lastMove"`
	Rules                Rules          `json:"rules"`
	ForcedCaptureOrigins []Square       `json:"forcedCaptureOrigins"`
	MoveHistory          []Ply          `json:"moveHistory"`
	CapturedPieces       CapturedPieces `json:"capturedPieces"`
	Players              struct {
		White ClientPlayer `json:"white"`
		Black ClientPlayer `json:"black"`
	} `json:"players"`
	Result *Result `json:"result"`
}

func NewGame(id string, rules Rules, clock time.Duration) *Game {
	return &Game{
		ID:          id,
		position:    NewPosition(),
		rules:       rules,
		history:     make([]Ply, 0),
		captured:    newCapturedPieces(),
		connections: NewGameConnections(),
		whiteClock:  NewClock(clock),
		blackClock:  NewClock(clock),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]ws.Conn),
	}
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]Piece, 0),
		Black: make([]Piece, 0),
	}
}

// AddPlayer seats playerID as White, then Black. A player already seated
// gets their existing color back.
func (g *Game) AddPlayer(playerID string) (Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.seatOf(playerID); ok {
		return color, nil
	}
	if g.white == "" {
		g.white = playerID
		log.Infof("game %s: %s seated as white", g.ID, playerID)
		return White, nil
	}
	if g.black == "" {
		g.black = playerID
		log.Infof("game %s: %s seated as black", g.ID, playerID)
		return Black, nil
	}
	return "", ErrGameFull
}

func (g *Game) seatOf(playerID string) (Color, bool) {
	switch {
	case playerID == "":
		return "", false
	case g.white == playerID:
		return White, true
	case g.black == playerID:
		return Black, true
	}
	return "", false
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.seatOf(playerID)
	return ok
}

func (g *Game) canSpectate() bool {
	return g.white == "" || g.black == ""
}

// Rules returns the variant rules the game was created with.
func (g *Game) Rules() Rules {
	return g.rules
}

// Position returns a copy of the current position.
func (g *Game) Position() *Position {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.position.Clone()
}

// LegalMoves lists the destinations the piece on sq is offered under the
// game's rules.
func (g *Game) LegalMoves(sq Square) []Destination {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.position.MovesFor(sq, g.rules)
}

// ForcedCaptureOrigins lists the squares the side to move must pick from.
// It is empty when the game does not play forced capture or no capture is
// available.
func (g *Game) ForcedCaptureOrigins() []Square {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.forcedOriginsLocked()
}

func (g *Game) forcedOriginsLocked() []Square {
	if !g.rules.ForcedCapture {
		return []Square{}
	}
	return g.position.ForcedCaptureOrigins()
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.stateLocked()
}

func (g *Game) stateLocked() GameState {
	state := GameState{
		ID:                   g.ID,
		Board:                g.position.Board,
		ToMove:               g.position.ToMove,
		Castling:             g.position.Castling,
		Rules:                g.rules,
		ForcedCaptureOrigins: g.forcedOriginsLocked(),
		MoveHistory:          append(make([]Ply, 0, len(g.history)), g.history...),
		CapturedPieces: CapturedPieces{
			White: append([]Piece{}, g.captured.White...),
			Black: append([]Piece{}, g.captured.Black...),
		},
	}
	if g.position.LastMove != nil {
		lm := *g.position.LastMove
		state.LastMove = &lm
	}
	if g.result != nil {
		res := *g.result
		state.Result = &res
	}
	state.Players.White = ClientPlayer{ID: g.white, Color: White, TimeLeft: g.whiteClock.tenths()}
	state.Players.Black = ClientPlayer{ID: g.black, Color: Black, TimeLeft: g.blackClock.tenths()}
	return state
}

func (g *Game) clockFor(color Color) *Clock {
	if color == White {
		return g.whiteClock
	}
	return g.blackClock
}

// MakeMove validates and plays a move for playerID, then hands the clock
// and the turn to the opponent.
func (g *Game) MakeMove(playerID string, move MoveRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	log.Debugf("game %s: %s requests %s -> %s", g.ID, playerID, move.From, move.To)

	if g.result != nil {
		return ErrGameOver
	}
	color, ok := g.seatOf(playerID)
	if !ok {
		return ErrNotInGame
	}
	toMove := g.position.ToMove
	if color != toMove {
		return ErrNotYourTurn
	}
	if piece, ok := g.position.Board.At(move.From); ok && !piece.IsEmpty() && piece.Color != toMove {
		return fmt.Errorf("%w: %s belongs to %s", ErrInvalidOrigin, move.From, piece.Color)
	}
	if g.clockFor(toMove).Expired() {
		g.result = &Result{Winner: toMove.Opponent(), Reason: ReasonTimeout}
		g.broadcastLocked()
		return ErrTimeExpired
	}

	ply, err := g.position.TryMove(move.From, move.To, g.rules)
	if err != nil {
		return err
	}

	g.clockFor(toMove).Stop()
	g.clockFor(toMove.Opponent()).Start()

	g.history = append(g.history, ply)
	if ply.CapturedPiece != nil {
		if toMove == White {
			g.captured.White = append(g.captured.White, *ply.CapturedPiece)
		} else {
			g.captured.Black = append(g.captured.Black, *ply.CapturedPiece)
		}
	}
	log.Infof("game %s: %s played %s %s -> %s", g.ID, toMove, ply.Piece.Type, ply.From, ply.To)

	g.broadcastLocked()
	return nil
}

// Resign ends the game in the opponent's favour.
func (g *Game) Resign(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	color, ok := g.seatOf(playerID)
	if !ok {
		return ErrNotInGame
	}
	if g.result != nil {
		return ErrGameOver
	}
	g.whiteClock.Stop()
	g.blackClock.Stop()
	g.result = &Result{Winner: color.Opponent(), Reason: ReasonResignation}
	log.Infof("game %s: %s resigned", g.ID, color)

	g.broadcastLocked()
	return nil
}

func (g *Game) RegisterConnection(playerID string, conn ws.Conn) error {
	g.mu.Lock()
	isAuthorized := func() bool { _, ok := g.seatOf(playerID); return ok }() || g.canSpectate()
	g.mu.Unlock()

	if !isAuthorized {
		return fmt.Errorf("not authorized to join game %s: %w", g.ID, ErrNotInGame)
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// Keep the existing connection and turn the new one away.
		g.connections.mu.Unlock()
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		_ = conn.Close()
		return nil
	}

	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	log.Infof("game %s: registered connection for %s", g.ID, playerID)

	g.mu.Lock()
	g.broadcastLocked()
	g.mu.Unlock()
	return nil
}

// UnregisterConnection drops playerID's connection if it is still conn.
func (g *Game) UnregisterConnection(playerID string, conn ws.Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		log.Infof("game %s: unregistering connection for %s", g.ID, playerID)
		delete(g.connections.connections, playerID)
	}
}

// broadcastLocked snapshots the state under g.mu and sends it without
// holding the game lock.
func (g *Game) broadcastLocked() {
	g.seq++
	state := g.stateLocked()
	go g.broadcastState(state, g.seq)
}

// broadcastState sends state unless a newer snapshot has already gone out.
func (g *Game) broadcastState(state GameState, seq uint64) {
	g.connections.sendMu.Lock()
	defer g.connections.sendMu.Unlock()
	if seq <= g.connections.sent {
		log.Debugf("game %s: dropping stale state %d", g.ID, seq)
		return
	}
	g.connections.sent = seq

	payload, err := json.Marshal(state)
	if err != nil {
		log.Errorf("game %s: marshal state: %v", g.ID, err)
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: json.RawMessage(payload)}

	g.connections.mu.RLock()
	activeConnections := make(map[string]ws.Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	for playerID, conn := range activeConnections {
		if err := conn.WriteJSON(msg); err != nil {
			log.Warnf("game %s: failed to send state to %s: %v", g.ID, playerID, err)
			g.UnregisterConnection(playerID, conn)
			continue
		}
	}
}
