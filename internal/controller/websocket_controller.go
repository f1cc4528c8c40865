package controller

import (
	"encoding/json"
	"fmt"

	"github.com/benbeisheim/capturechess-backend/internal/model"
	"github.com/benbeisheim/capturechess-backend/internal/service"
	"github.com/benbeisheim/capturechess-backend/internal/ws"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

type legalMovesReply struct {
	From  model.Square        `json:"from"`
	Moves []model.Destination `json:"moves"`
}

// HandleConnection is called when a new game WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals("wsPlayerID").(string)
	conn := ws.NewSyncConn(c)

	if err := wsc.gameService.RegisterConnection(gameID, playerID, conn); err != nil {
		log.Warnf("failed to register connection for %s in game %s: %v", playerID, gameID, err)
		sendError(conn, err.Error())
		_ = conn.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, conn)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debugf("read error for %s in game %s: %v", playerID, gameID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debugf("parse error: %v", err)
			sendError(conn, "malformed message")
			continue
		}

		if err := wsc.handleMessage(conn, gameID, playerID, msg); err != nil {
			log.Debugf("handle %s for %s: %v", msg.Type, playerID, err)
			sendError(conn, err.Error())
		}
	}
}

func (wsc *WebSocketController) handleMessage(conn ws.Conn, gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		return wsc.gameService.HandleMove(gameID, playerID, move)

	case ws.MessageTypeLegalMoves:
		var from model.Square
		if err := json.Unmarshal(msg.Payload, &from); err != nil {
			return err
		}
		moves, err := wsc.gameService.LegalMoves(gameID, from)
		if err != nil {
			return err
		}
		reply, err := ws.NewMessage(ws.MessageTypeLegalMoves, legalMovesReply{From: from, Moves: moves})
		if err != nil {
			return err
		}
		return conn.WriteJSON(reply)

	case ws.MessageTypeResign:
		return wsc.gameService.Resign(gameID, playerID)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking queues the player and holds the socket open until the
// matchmaker pairs them, then sends a single matchFound message and closes.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("wsPlayerID").(string)
	conn := ws.NewSyncConn(c)

	ch := make(chan string, 1)
	if err := wsc.gameService.EnterMatchmaking(playerID, ch); err != nil {
		sendError(conn, err.Error())
		return
	}

	// A read only fails once the client goes away or the socket is closed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()
	// The reader must stop before c is handed back to the pool.
	defer func() {
		_ = conn.Close()
		<-gone
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			log.Debugf("matchmaking socket for %s replaced by a newer one", playerID)
			return
		}
		if err := conn.WriteJSON(ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}); err != nil {
			log.Warnf("failed to send match to %s: %v", playerID, err)
		}
	case <-gone:
		wsc.gameService.CancelMatchmaking(playerID, ch)
	}
}

func sendError(conn ws.Conn, errorMsg string) {
	msg, err := ws.NewMessage(ws.MessageTypeError, errorPayload{Error: errorMsg})
	if err != nil {
		return
	}
	_ = conn.WriteJSON(msg)
}

type errorPayload struct {
	Error string `json:"error"`
}
