package service

import (
	"fmt"

	"github.com/benbeisheim/capturechess-backend/internal/model"
	"github.com/benbeisheim/capturechess-backend/internal/ws"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

// CreateGame starts a game under rules, or the manager's default rules when
// rules is nil.
func (gs *GameService) CreateGame(rules *model.Rules) (string, error) {
	gameID := uuid.New().String()

	r := gs.gameManager.DefaultRules()
	if rules != nil {
		r = *rules
	}
	if err := gs.gameManager.CreateGame(gameID, r); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) LegalMoves(gameID string, from model.Square) ([]model.Destination, error) {
	return gs.gameManager.LegalMoves(gameID, from)
}

func (gs *GameService) ForcedCaptureOrigins(gameID string) ([]model.Square, error) {
	return gs.gameManager.ForcedCaptureOrigins(gameID)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.MoveRequest) error {
	if err := gs.gameManager.MakeMove(gameID, playerID, move); err != nil {
		return fmt.Errorf("move %s -> %s: %w", move.From, move.To, err)
	}

	return nil
}

func (gs *GameService) Resign(gameID string, playerID string) error {
	return gs.gameManager.Resign(gameID, playerID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn ws.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn ws.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) EnterMatchmaking(playerID string, ch chan string) error {
	return gs.gameManager.EnterMatchmaking(playerID, ch)
}

func (gs *GameService) CancelMatchmaking(playerID string, ch chan string) {
	gs.gameManager.CancelMatchmaking(playerID, ch)
}
