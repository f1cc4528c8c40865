// service/game_manager.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/capturechess-backend/internal/model"
	"github.com/benbeisheim/capturechess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameExists     = errors.New("game already exists")
	ErrInvalidPlayers = errors.New("invalid player")
)

// Options configures the games a manager creates.
type Options struct {
	Rules         model.Rules
	ClockTime     time.Duration
	MatchInterval time.Duration
}

// GameManager owns every live game and the matchmaking queue. Each game
// guards its own position; the manager lock only covers the maps.
type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	opts             Options
	mu               sync.RWMutex
}

func NewGameManager(ctx context.Context, opts Options) *GameManager {
	if opts.ClockTime <= 0 {
		opts.ClockTime = 10 * time.Minute
	}
	if opts.MatchInterval <= 0 {
		opts.MatchInterval = time.Second
	}
	gm := &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		opts:             opts,
	}

	go gm.processMatchmaking(ctx)

	return gm
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	if playerID == "" {
		return ErrInvalidPlayers
	}
	gm.mu.Lock()
	defer gm.mu.Unlock()
	log.Debugf("registering matchmaking channel for %s", playerID)

	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		// Remove from map first so the matcher cannot write to it.
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel forgets ch if it is still registered for
// playerID. The channel is left open; its creator owns it.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
	}
}

func (gm *GameManager) processMatchmaking(ctx context.Context) {
	ticker := time.NewTicker(gm.opts.MatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.matchPending()
		}
	}
}

// matchPending pairs queued players until fewer than two remain.
func (gm *GameManager) matchPending() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		gameID := uuid.New().String()
		game := model.NewGame(gameID, gm.opts.Rules, gm.opts.ClockTime)
		p1Color, err := game.AddPlayer(player1.ID)
		if err != nil {
			log.Errorf("matchmaking: seat %s: %v", player1.ID, err)
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID)
		if err != nil {
			log.Errorf("matchmaking: seat %s: %v", player2.ID, err)
			continue
		}
		gm.games[gameID] = game
		log.Infof("matchmaking: paired %s and %s in game %s", player1.ID, player2.ID, gameID)

		sentFirst := gm.notifyMatchLocked(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
		sentSecond := gm.notifyMatchLocked(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
		if !sentFirst || !sentSecond {
			log.Warnf("matchmaking: not every player of game %s was notified", gameID)
		}
	}
}

// notifyMatchLocked sends event to playerID's channel and closes it.
func (gm *GameManager) notifyMatchLocked(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	delete(gm.matchingChannels, playerID)
	defer close(ch)

	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("matchmaking: marshal event for %s: %v", playerID, err)
		return false
	}

	select {
	case ch <- string(payload):
		return true
	default:
		return false
	}
}

// EnterMatchmaking registers ch for playerID and queues the player. A player
// who is already queued keeps their place; ch replaces the previous channel.
func (gm *GameManager) EnterMatchmaking(playerID string, ch chan string) error {
	if err := gm.RegisterMatchmakingChannel(playerID, ch); err != nil {
		return err
	}
	if err := gm.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		gm.UnregisterMatchmakingChannel(playerID, ch)
		return err
	}
	return nil
}

// CancelMatchmaking takes playerID out of the queue, but only while ch is
// still the player's registered channel.
func (gm *GameManager) CancelMatchmaking(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; !ok || current != ch {
		return
	}
	delete(gm.matchingChannels, playerID)
	gm.queue.RemovePlayer(playerID)
	log.Debugf("%s left matchmaking", playerID)
}

func (gm *GameManager) CreateGame(gameID string, rules model.Rules) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, gameID)
	}

	gm.games[gameID] = model.NewGame(gameID, rules, gm.opts.ClockTime)
	log.Infof("created game %s (forced capture: %t)", gameID, rules.ForcedCapture)
	return nil
}

func (gm *GameManager) DefaultRules() model.Rules {
	return gm.opts.Rules
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.Color, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if playerID == "" {
		return ErrInvalidPlayers
	}
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

func (gm *GameManager) LegalMoves(gameID string, from model.Square) ([]model.Destination, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMoves(from), nil
}

func (gm *GameManager) ForcedCaptureOrigins(gameID string) ([]model.Square, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.ForcedCaptureOrigins(), nil
}

func (gm *GameManager) MakeMove(gameID string, playerID string, move model.MoveRequest) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.MakeMove(playerID, move)
}

func (gm *GameManager) Resign(gameID string, playerID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Resign(playerID)
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn ws.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn ws.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}
